package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/escrow"
)

func cmdMake(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Create an escrow offer.

The maker deposits amount tokens of mint A into a vault owned by the
escrow, asking for receive tokens of mint B in exchange. Both mints must
belong to the same token service. The escrow address is printed.
`)
	var (
		homeFl    = homeFlag(fl)
		makerFl   = fl.String("maker", "", "Name of the maker key. The maker signs and pays for the escrow.")
		mintAFl   = fl.String("mint-a", "", "Name or address of the mint deposited.")
		mintBFl   = fl.String("mint-b", "", "Name or address of the mint asked for.")
		seedFl    = fl.Uint64("seed", 1, "Seed distinguishing escrows of one maker.")
		amountFl  = fl.Uint64("amount", 0, "Amount of mint A deposited.")
		receiveFl = fl.Uint64("receive", 0, "Amount of mint B asked for.")
	)
	fl.Parse(args)

	l, err := openLedger(*homeFl, os.Stderr)
	if err != nil {
		return err
	}
	defer l.Close()

	maker, err := loadKey(l.cfg, *makerFl)
	if err != nil {
		return err
	}
	mintA, err := resolve(l.cfg, *mintAFl)
	if err != nil {
		return errors.Wrap(err, "mint A")
	}
	mintB, err := resolve(l.cfg, *mintBFl)
	if err != nil {
		return errors.Wrap(err, "mint B")
	}
	tokenProgram, err := l.tokenProgramOf(mintA)
	if err != nil {
		return err
	}
	tokenProgramB, err := l.tokenProgramOf(mintB)
	if err != nil {
		return err
	}
	if tokenProgramB != tokenProgram {
		return errors.Wrapf(errors.ErrData, "mint A belongs to %s, mint B to %s", tokenProgram, tokenProgramB)
	}

	ix, err := escrow.NewMakeInstruction(l.program, escrow.Offer{
		Maker:        maker.PublicKey(),
		MintA:        mintA,
		MintB:        mintB,
		TokenProgram: tokenProgram,
		Seed:         *seedFl,
		Amount:       *amountFl,
		Receive:      *receiveFl,
	})
	if err != nil {
		return err
	}
	if err := l.exec(output, []solana.PrivateKey{maker}, ix); err != nil {
		return err
	}
	addr, _, err := escrow.Address(l.program, maker.PublicKey(), *seedFl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "escrow\t%s\n", addr)
	return err
}

func cmdTake(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Fulfill an escrow offer.

The taker pays the asked amount of mint B to the maker and receives the
whole vault. The escrow and the vault are closed, their rent is returned.
`)
	var (
		homeFl  = homeFlag(fl)
		takerFl = fl.String("taker", "", "Name of the taker key. The taker signs and pays for missing token accounts.")
		makerFl = fl.String("maker", "", "Name or address of the maker.")
		seedFl  = fl.Uint64("seed", 1, "Seed the offer was made with.")
	)
	fl.Parse(args)

	l, err := openLedger(*homeFl, os.Stderr)
	if err != nil {
		return err
	}
	defer l.Close()

	taker, err := loadKey(l.cfg, *takerFl)
	if err != nil {
		return err
	}
	maker, err := resolve(l.cfg, *makerFl)
	if err != nil {
		return errors.Wrap(err, "maker")
	}
	addr, record, err := l.openEscrow(maker, *seedFl)
	if err != nil {
		return err
	}
	tokenProgram, err := l.tokenProgramOf(record.MintA)
	if err != nil {
		return err
	}
	ix := escrow.NewTakeInstruction(l.program, taker.PublicKey(), maker, addr, record.MintA, record.MintB, tokenProgram)
	return l.exec(output, []solana.PrivateKey{taker}, ix)
}

// openEscrow returns the address and the record of an open escrow.
func (l *ledger) openEscrow(maker solana.PublicKey, seed uint64) (solana.PublicKey, escrow.Escrow, error) {
	addr, _, err := escrow.Address(l.program, maker, seed)
	if err != nil {
		return addr, escrow.Escrow{}, err
	}
	s, ok, err := l.rt.Account(addr)
	if err != nil {
		return addr, escrow.Escrow{}, err
	}
	if !ok || !s.Owner.Equals(l.program) {
		return addr, escrow.Escrow{}, errors.Wrapf(errors.ErrNotFound, "escrow %d of %s", seed, maker)
	}
	record, err := escrow.DecodeEscrow(s.Data)
	return addr, record, err
}
