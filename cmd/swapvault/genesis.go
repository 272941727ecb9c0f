package main

import (
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/config"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
)

// applyGenesis creates a key for every wallet and mint and loads the
// accounts into the ledger. Wallets are funded directly, mints and token
// balances are created with transactions paid by the mint authority.
func applyGenesis(l *ledger, out io.Writer, g config.Genesis) error {
	wallets := make(map[string]solana.PrivateKey)
	for _, w := range g.Wallets {
		key, err := createKey(l.cfg, w.Name)
		if err != nil {
			return errors.Wrapf(err, "wallet %s", w.Name)
		}
		state := swapvault.AccountState{Owner: system.ProgramID, Lamports: w.Lamports}
		if err := l.rt.SetAccount(key.PublicKey(), state); err != nil {
			return errors.Wrapf(err, "wallet %s", w.Name)
		}
		wallets[w.Name] = key
	}
	if err := l.commit(); err != nil {
		return err
	}

	for _, m := range g.Mints {
		if err := createMint(l, out, wallets, m); err != nil {
			return errors.Wrapf(err, "mint %s", m.Name)
		}
	}
	return nil
}

func createMint(l *ledger, out io.Writer, wallets map[string]solana.PrivateKey, m config.Mint) error {
	authority, ok := wallets[m.Authority]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "authority %q", m.Authority)
	}
	mint, err := createKey(l.cfg, m.Name)
	if err != nil {
		return err
	}

	tokenProgram, size := token.ProgramID, token.MintLen
	if m.Extensible {
		tokenProgram, size = token.ExtensibleProgramID, token.ExtendedLen
	}
	ixs := []swapvault.Instruction{
		system.NewCreateAccountInstruction(authority.PublicKey(), mint.PublicKey(),
			l.rt.Rent().MinimumBalance(size), uint64(size), tokenProgram),
		token.NewInitializeMint2Instruction(tokenProgram, mint.PublicKey(), m.Decimals, authority.PublicKey(), nil),
	}
	for _, b := range m.Balances {
		holder, ok := wallets[b.Wallet]
		if !ok {
			return errors.Wrapf(errors.ErrNotFound, "wallet %q", b.Wallet)
		}
		dest := ata.MustAddress(holder.PublicKey(), tokenProgram, mint.PublicKey())
		ixs = append(ixs,
			ata.NewCreateIdempotentInstruction(authority.PublicKey(), holder.PublicKey(), mint.PublicKey(), tokenProgram),
			token.NewMintToInstruction(tokenProgram, mint.PublicKey(), dest, authority.PublicKey(), b.Amount),
		)
	}
	return l.exec(out, []solana.PrivateKey{authority, mint}, ixs...)
}
