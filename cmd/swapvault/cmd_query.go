package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/escrow"
)

func cmdShow(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Print an open escrow offer and the balance of its vault.
`)
	var (
		homeFl  = homeFlag(fl)
		makerFl = fl.String("maker", "", "Name or address of the maker.")
		seedFl  = fl.Uint64("seed", 1, "Seed the offer was made with.")
	)
	fl.Parse(args)

	l, err := openLedger(*homeFl, os.Stderr)
	if err != nil {
		return err
	}
	defer l.Close()

	maker, err := resolve(l.cfg, *makerFl)
	if err != nil {
		return errors.Wrap(err, "maker")
	}
	addr, record, err := l.openEscrow(maker, *seedFl)
	if err != nil {
		return err
	}
	deposit, err := l.vaultBalance(addr, record)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(output, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "escrow\t%s\n", addr)
	fmt.Fprintf(w, "maker\t%s\n", maker)
	fmt.Fprintf(w, "seed\t%d\n", record.Seed)
	fmt.Fprintf(w, "mint a\t%s\n", record.MintA)
	fmt.Fprintf(w, "mint b\t%s\n", record.MintB)
	fmt.Fprintf(w, "deposit\t%d\n", deposit)
	fmt.Fprintf(w, "receive\t%d\n", record.Receive)
	fmt.Fprintf(w, "bump\t%d\n", record.Bump)
	return w.Flush()
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Print the lamports of a wallet and, for every given mint, the balance of
its associated token account.
`)
	var (
		homeFl  = homeFlag(fl)
		ownerFl = fl.String("owner", "", "Name or address of the wallet.")
	)
	fl.Parse(args)

	l, err := openLedger(*homeFl, os.Stderr)
	if err != nil {
		return err
	}
	defer l.Close()

	owner, err := resolve(l.cfg, *ownerFl)
	if err != nil {
		return err
	}
	s, _, err := l.rt.Account(owner)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(output, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "lamports\t%d\n", s.Lamports)
	for _, name := range fl.Args() {
		mint, err := resolve(l.cfg, name)
		if err != nil {
			return err
		}
		tokenProgram, err := l.tokenProgramOf(mint)
		if err != nil {
			return err
		}
		amount, err := l.rt.TokenBalance(ata.MustAddress(owner, tokenProgram, mint))
		switch {
		case errors.ErrNotFound.Is(err):
			amount = 0
		case err != nil:
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", name, amount)
	}
	return w.Flush()
}

func cmdOffers(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
List all open escrow offers: address, seed, deposited and asked amounts.
`)
	homeFl := homeFlag(fl)
	fl.Parse(args)

	l, err := openLedger(*homeFl, os.Stderr)
	if err != nil {
		return err
	}
	defer l.Close()

	accounts, err := l.rt.AccountsOwnedBy(l.program)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ESCROW\tSEED\tMINT A\tDEPOSIT\tMINT B\tRECEIVE")
	for _, acc := range accounts {
		record, err := escrow.DecodeEscrow(acc.Data)
		if err != nil {
			return errors.Wrapf(err, "escrow %s", acc.Key)
		}
		deposit, err := l.vaultBalance(acc.Key, record)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%d\n",
			acc.Key, record.Seed, record.MintA, deposit, record.MintB, record.Receive)
	}
	return w.Flush()
}

// vaultBalance returns the amount deposited with an escrow.
func (l *ledger) vaultBalance(addr solana.PublicKey, record escrow.Escrow) (uint64, error) {
	tokenProgram, err := l.tokenProgramOf(record.MintA)
	if err != nil {
		return 0, err
	}
	amount, err := l.rt.TokenBalance(ata.MustAddress(addr, tokenProgram, record.MintA))
	if err != nil {
		return 0, errors.Wrap(err, "vault")
	}
	return amount, nil
}
