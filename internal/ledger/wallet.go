package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// ErrRejected marks a transfer the wallet refused or the network did not
// accept. Nothing was moved.
var ErrRejected = errors.New("ledger: transfer rejected")

// Receipt describes a submitted transfer.
type Receipt struct {
	Signature string
	Sender    string
}

// Wallet is the account that signs payments.
type Wallet interface {
	Account(ctx context.Context) (string, error)
	SignAndExecute(ctx context.Context, t Transfer) (Receipt, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// RPC is the subset of *rpc.Client the wallet uses.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
}

// SolanaWallet signs SPL token transfers with a local keypair.
type SolanaWallet struct {
	client  RPC
	key     solana.PrivateKey
	builder Builder
}

func NewSolanaWallet(client RPC, key solana.PrivateKey, builder Builder) *SolanaWallet {
	return &SolanaWallet{client: client, key: key, builder: builder}
}

// NewSolanaWalletFromConfig dials endpoint and loads a base58 secret key.
func NewSolanaWalletFromConfig(endpoint, secret, mint string, decimals uint8) (*SolanaWallet, error) {
	key, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("wallet key: %w", err)
	}
	b, err := NewBuilder(mint, decimals)
	if err != nil {
		return nil, err
	}
	return NewSolanaWallet(rpc.New(endpoint), key, b), nil
}

func (w *SolanaWallet) Account(context.Context) (string, error) {
	return w.key.PublicKey().String(), nil
}

func (w *SolanaWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(w.key.PublicKey(), w.builder.Mint)
	if err != nil {
		return decimal.Decimal{}, err
	}
	res, err := w.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("token balance: %w", err)
	}
	if res == nil || res.Value == nil {
		return decimal.Zero, nil
	}
	units, err := decimal.NewFromString(res.Value.Amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("token balance %q: %w", res.Value.Amount, err)
	}
	return units.Shift(-int32(res.Value.Decimals)), nil
}

func (w *SolanaWallet) SignAndExecute(ctx context.Context, t Transfer) (Receipt, error) {
	owner := w.key.PublicKey()
	instructions, err := w.builder.Instructions(owner, t)
	if err != nil {
		return Receipt{}, err
	}
	bh, err := w.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return Receipt{}, fmt.Errorf("latest blockhash: %w", err)
	}
	if bh == nil || bh.Value == nil {
		return Receipt{}, errors.New("latest blockhash: empty response")
	}

	tx, err := solana.NewTransaction(instructions, bh.Value.Blockhash, solana.TransactionPayer(owner))
	if err != nil {
		return Receipt{}, fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(owner) {
			return &w.key
		}
		return nil
	}); err != nil {
		return Receipt{}, fmt.Errorf("%w: sign: %v", ErrRejected, err)
	}

	sig, err := w.client.SendTransaction(ctx, tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: send: %v", ErrRejected, err)
	}
	return Receipt{Signature: sig.String(), Sender: owner.String()}, nil
}
