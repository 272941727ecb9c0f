/*
Package swaptest provides fixtures for tests running programs on a runtime:
keys, funded wallets, mints and token accounts.
*/
package swaptest

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/runtime"
	"github.com/iov-one/swapvault/store"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
)

// Ledger is a runtime with the system, token and associated token account
// services registered, over an in-memory store.
type Ledger struct {
	*runtime.Runtime
	t     testing.TB
	nonce uint64
}

// NewLedger returns a ledger with the collaborating services registered.
func NewLedger(t testing.TB, opts ...runtime.Option) *Ledger {
	return NewLedgerOn(t, store.MemStore(), opts...)
}

// NewLedgerOn is NewLedger over the given store.
func NewLedgerOn(t testing.TB, db store.CacheableKVStore, opts ...runtime.Option) *Ledger {
	rt := runtime.New(db, opts...)
	RegisterServices(rt)
	return &Ledger{Runtime: rt, t: t}
}

// RegisterServices registers the system, token and associated token account
// services.
func RegisterServices(rt *runtime.Runtime) {
	rt.Register("system", system.NewProgram())
	rt.Register("token", token.NewProgram())
	rt.Register("token-extensible", token.NewExtensibleProgram())
	rt.Register("associated-token", ata.NewProgram())
}

// Wallet returns a new key whose system account holds lamports.
func (l *Ledger) Wallet(lamports uint64) solana.PrivateKey {
	l.t.Helper()
	k := NewKey(l.t)
	l.Fund(k.PublicKey(), lamports)
	return k
}

// Fund sets the lamports of a system account.
func (l *Ledger) Fund(key solana.PublicKey, lamports uint64) {
	l.t.Helper()
	err := l.SetAccount(key, swapvault.AccountState{Owner: system.ProgramID, Lamports: lamports})
	if err != nil {
		l.t.Fatalf("cannot fund %s: %+v", key, err)
	}
}

// Exec signs and executes a transaction.
func (l *Ledger) Exec(signers []solana.PrivateKey, ixs ...swapvault.Instruction) (*runtime.Result, error) {
	l.t.Helper()
	l.nonce++
	tx := runtime.NewTransaction(l.nonce, ixs...)
	if err := tx.Sign(signers...); err != nil {
		l.t.Fatalf("cannot sign: %+v", err)
	}
	return l.Execute(context.Background(), tx)
}

// MustExec is Exec failing the test on error.
func (l *Ledger) MustExec(signers []solana.PrivateKey, ixs ...swapvault.Instruction) *runtime.Result {
	l.t.Helper()
	res, err := l.Exec(signers, ixs...)
	if err != nil {
		for _, line := range res.Logs {
			l.t.Log(line)
		}
		l.t.Fatalf("cannot execute: %+v", err)
	}
	return res
}

// CreateMint creates a mint of the legacy 82 byte layout under the given
// token service, with authority as the mint authority and payer.
func (l *Ledger) CreateMint(tokenProgram solana.PublicKey, authority solana.PrivateKey, decimals uint8) solana.PublicKey {
	l.t.Helper()
	return l.CreateMintSized(tokenProgram, authority, decimals, token.MintLen)
}

// CreateMintSized creates a mint with the given data size. Extensible mints
// of token.ExtendedLen bytes carry the mint type tag.
func (l *Ledger) CreateMintSized(tokenProgram solana.PublicKey, authority solana.PrivateKey, decimals uint8, size int) solana.PublicKey {
	l.t.Helper()
	mint := NewKey(l.t)
	lamports := l.Rent().MinimumBalance(size)
	l.MustExec([]solana.PrivateKey{authority, mint},
		system.NewCreateAccountInstruction(authority.PublicKey(), mint.PublicKey(), lamports, uint64(size), tokenProgram),
		token.NewInitializeMint2Instruction(tokenProgram, mint.PublicKey(), decimals, authority.PublicKey(), nil),
	)
	return mint.PublicKey()
}

// CreateATA creates the associated token account of wallet for mint, paid
// by payer.
func (l *Ledger) CreateATA(payer solana.PrivateKey, wallet, mint, tokenProgram solana.PublicKey) solana.PublicKey {
	l.t.Helper()
	l.MustExec([]solana.PrivateKey{payer}, ata.NewCreateInstruction(payer.PublicKey(), wallet, mint, tokenProgram))
	return ata.MustAddress(wallet, tokenProgram, mint)
}

// MintTo issues amount tokens of mint into the token account dest.
func (l *Ledger) MintTo(tokenProgram, mint solana.PublicKey, authority solana.PrivateKey, dest solana.PublicKey, amount uint64) {
	l.t.Helper()
	l.MustExec([]solana.PrivateKey{authority},
		token.NewMintToInstruction(tokenProgram, mint, dest, authority.PublicKey(), amount))
}

// Balance returns the balance of a token account.
func (l *Ledger) Balance(key solana.PublicKey) uint64 {
	l.t.Helper()
	amount, err := l.TokenBalance(key)
	if err != nil {
		l.t.Fatalf("cannot read balance of %s: %+v", key, err)
	}
	return amount
}

// Lamports returns the lamports of an account, 0 if it does not exist.
func (l *Ledger) Lamports(key solana.PublicKey) uint64 {
	l.t.Helper()
	s, _, err := l.Account(key)
	if err != nil {
		l.t.Fatalf("cannot read %s: %+v", key, err)
	}
	return s.Lamports
}

// Exists returns true if the account is stored.
func (l *Ledger) Exists(key solana.PublicKey) bool {
	l.t.Helper()
	_, ok, err := l.Account(key)
	if err != nil {
		l.t.Fatalf("cannot read %s: %+v", key, err)
	}
	return ok
}
