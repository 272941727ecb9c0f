package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/iov-one/swapvault/config"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Generate a new private key and print its address.

The key is stored in the keys directory of the home directory under the
given name. This command fails if a key with that name already exists.
`)
	var (
		homeFl = homeFlag(fl)
		nameFl = fl.String("name", "", "Name of the key.")
	)
	fl.Parse(args)

	cfg, err := config.Load(filepath.Join(*homeFl, config.FileName))
	if err != nil {
		return err
	}
	key, err := createKey(cfg, *nameFl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, key.PublicKey())
	return err
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	flagUsage(fl, `
Print out the address of a named key.
`)
	var (
		homeFl = homeFlag(fl)
		nameFl = fl.String("name", "", "Name of the key.")
	)
	fl.Parse(args)

	cfg, err := config.Load(filepath.Join(*homeFl, config.FileName))
	if err != nil {
		return err
	}
	key, err := loadKey(cfg, *nameFl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, key.PublicKey())
	return err
}
