package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/swapvault/config"
	"github.com/iov-one/swapvault/errors"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Initialize a ledger in the home directory.

A default configuration file is written unless one exists. The genesis
section of the configuration is then applied: a key is created for every
wallet and mint, wallets are funded and tokens are minted.
`)
	homeFl := homeFlag(fl)
	fl.Parse(args)

	if err := os.MkdirAll(*homeFl, 0700); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	path := filepath.Join(*homeFl, config.FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
	}

	l, err := openLedger(*homeFl, os.Stderr)
	if err != nil {
		return err
	}
	defer l.Close()

	if v := l.db.LatestVersion().Version; v != 0 {
		return errors.Wrapf(errors.ErrDuplicate, "ledger in %s is at version %d", l.cfg.DBDir(), v)
	}
	if err := applyGenesis(l, ioutil.Discard, l.cfg.Genesis); err != nil {
		return err
	}

	fmt.Fprintf(output, "escrow program\t%s\n", l.program)
	for _, w := range l.cfg.Genesis.Wallets {
		key, err := loadKey(l.cfg, w.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "wallet %s\t%s\n", w.Name, key.PublicKey())
	}
	for _, m := range l.cfg.Genesis.Mints {
		key, err := loadKey(l.cfg, m.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "mint %s\t%s\n", m.Name, key.PublicKey())
	}
	return nil
}
