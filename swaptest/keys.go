package swaptest

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

// NewKey returns a fresh private key.
func NewKey(t testing.TB) solana.PrivateKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("cannot generate key: %s", err)
	}
	return k
}

// NewAddress returns the address of a fresh key.
func NewAddress(t testing.TB) solana.PublicKey {
	t.Helper()
	return NewKey(t).PublicKey()
}
