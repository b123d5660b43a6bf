package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

const (
	LoginPrefix = "qrpay-login:"
	LoginMaxAge = 5 * time.Minute
	clockSkew   = 30 * time.Second
)

var (
	ErrBadMessage   = errors.New("login message malformed")
	ErrStaleMessage = errors.New("login message expired")
	ErrBadSignature = errors.New("signature does not match wallet")
)

// LoginMessage is the text a wallet signs to log in at t.
func LoginMessage(t time.Time) string {
	return LoginPrefix + strconv.FormatInt(t.Unix(), 10)
}

// VerifyLogin checks that message is a fresh login message and that signature
// (base58) is the wallet's ed25519 signature over it.
func VerifyLogin(wallet, message, signature string, now time.Time) error {
	raw, ok := strings.CutPrefix(message, LoginPrefix)
	if !ok {
		return ErrBadMessage
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ErrBadMessage
	}
	signedAt := time.Unix(ts, 0)
	if now.Sub(signedAt) > LoginMaxAge || signedAt.Sub(now) > clockSkew {
		return ErrStaleMessage
	}

	pub, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return fmt.Errorf("wallet address: %w", err)
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	if !sig.Verify(pub, []byte(message)) {
		return ErrBadSignature
	}
	return nil
}
