package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var (
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	MemoProgramID  = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

// splTransfer is the token program's Transfer instruction index.
const splTransfer = 3

// Transfer is a token payment to a recipient wallet.
type Transfer struct {
	Recipient string
	Amount    decimal.Decimal
	// Memo is attached as a memo instruction when set; the flow uses the
	// store's unique id.
	Memo string
}

// Builder turns a Transfer into ledger instructions for one token mint.
type Builder struct {
	Mint     solana.PublicKey
	Decimals uint8
}

func NewBuilder(mint string, decimals uint8) (Builder, error) {
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return Builder{}, fmt.Errorf("mint: %w", err)
	}
	return Builder{Mint: pk, Decimals: decimals}, nil
}

// Instructions builds the SPL transfer between the owner's and the
// recipient's associated token accounts, followed by the memo if any.
func (b Builder) Instructions(owner solana.PublicKey, t Transfer) ([]solana.Instruction, error) {
	recipient, err := solana.PublicKeyFromBase58(t.Recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	if recipient.Equals(owner) {
		return nil, errors.New("ledger: cannot pay yourself")
	}
	units, err := ToBaseUnits(t.Amount, b.Decimals)
	if err != nil {
		return nil, err
	}
	source, _, err := solana.FindAssociatedTokenAddress(owner, b.Mint)
	if err != nil {
		return nil, fmt.Errorf("source token account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(recipient, b.Mint)
	if err != nil {
		return nil, fmt.Errorf("destination token account: %w", err)
	}

	data := make([]byte, 9)
	data[0] = splTransfer
	binary.LittleEndian.PutUint64(data[1:], units)

	out := []solana.Instruction{
		solana.NewInstruction(TokenProgramID, solana.AccountMetaSlice{
			{PublicKey: source, IsWritable: true},
			{PublicKey: dest, IsWritable: true},
			{PublicKey: owner, IsSigner: true},
		}, data),
	}
	if t.Memo != "" {
		out = append(out, solana.NewInstruction(MemoProgramID, solana.AccountMetaSlice{}, []byte(t.Memo)))
	}
	return out, nil
}
