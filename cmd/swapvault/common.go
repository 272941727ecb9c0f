package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/config"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/runtime"
	"github.com/iov-one/swapvault/store/iavl"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/escrow"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
	"golang.org/x/crypto/ed25519"
)

// env returns the value of an environment variable if provided (even if empty)
// or a fallback value.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

// homeFlag registers the -home flag shared by all commands.
func homeFlag(fl *flag.FlagSet) *string {
	return fl.String("home", env("SWAPVAULT_HOME", filepath.Join(os.Getenv("HOME"), ".swapvault")),
		"Directory holding the configuration, the keys and the ledger. You can use SWAPVAULT_HOME environment variable to set it.")
}

// ledger is the runtime over the database of a home directory, with all
// services registered.
type ledger struct {
	cfg     *config.Config
	db      *iavl.CommitStore
	rt      *runtime.Runtime
	program solana.PublicKey
}

func openLedger(home string, logs io.Writer) (*ledger, error) {
	cfg, err := config.Load(filepath.Join(home, config.FileName))
	if err != nil {
		return nil, errors.Wrap(err, "run init first")
	}
	program, err := cfg.Program()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(logs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DBDir(), 0700); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	db, err := iavl.NewCommitStore(cfg.DBDir(), "ledger")
	if err != nil {
		return nil, err
	}

	rt := runtime.New(db.Adapter(), runtime.WithRent(cfg.Rent), runtime.WithLogger(logger))
	rt.Register("system", system.NewProgram())
	rt.Register("token", token.NewProgram())
	rt.Register("token-extensible", token.NewExtensibleProgram())
	rt.Register("associated-token", ata.NewProgram())
	rt.Register("escrow", escrow.NewProgram(program))
	return &ledger{cfg: cfg, db: db, rt: rt, program: program}, nil
}

func (l *ledger) Close() {
	l.db.Close()
}

// exec executes a transaction and commits the ledger. The program log is
// written to out.
func (l *ledger) exec(out io.Writer, signers []solana.PrivateKey, ixs ...swapvault.Instruction) error {
	tx := runtime.NewTransaction(uint64(l.db.LatestVersion().Version+1), ixs...)
	if err := tx.Sign(signers...); err != nil {
		return err
	}
	res, err := l.rt.Execute(context.Background(), tx)
	if res != nil {
		for _, line := range res.Logs {
			fmt.Fprintln(out, line)
		}
	}
	if err != nil {
		return err
	}
	_, err = l.db.Commit()
	return err
}

// commit persists changes made with SetAccount.
func (l *ledger) commit() error {
	_, err := l.db.Commit()
	return err
}

func keyPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.KeysDir(), name+".key")
}

// createKey writes a new private key file. An existing key is never
// overwritten.
func createKey(cfg *config.Config, name string) (solana.PrivateKey, error) {
	if !config.ValidName(name) {
		return nil, errors.Wrapf(errors.ErrInput, "key name %q", name)
	}
	path := keyPath(cfg, name)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrDuplicate, "private key file %q already exists, delete this file and try again", path)
	}
	if err := os.MkdirAll(cfg.KeysDir(), 0700); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cannot generate ed25519 key: %s", err)
	}
	if err := ioutil.WriteFile(path, priv, 0600); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot write private key: %s", err)
	}
	return solana.PrivateKey(priv), nil
}

// loadKey reads a private key file created by keygen or init.
func loadKey(cfg *config.Config, name string) (solana.PrivateKey, error) {
	if !config.ValidName(name) {
		return nil, errors.Wrapf(errors.ErrNotFound, "key %q", name)
	}
	raw, err := ioutil.ReadFile(keyPath(cfg, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "key %q", name)
		}
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot read private key file: %s", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrData, "invalid private key length: %d", len(raw))
	}
	return solana.PrivateKey(raw), nil
}

// resolve returns the address of a named key, or parses s as an address.
func resolve(cfg *config.Config, s string) (solana.PublicKey, error) {
	if key, err := loadKey(cfg, s); err == nil {
		return key.PublicKey(), nil
	} else if !errors.ErrNotFound.Is(err) {
		return solana.PublicKey{}, err
	}
	addr, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(errors.ErrInput, "%q is neither a key name nor an address", s)
	}
	return addr, nil
}

// tokenProgramOf returns the token service a mint belongs to.
func (l *ledger) tokenProgramOf(mint solana.PublicKey) (solana.PublicKey, error) {
	s, ok, err := l.rt.Account(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !ok {
		return solana.PublicKey{}, errors.Wrapf(errors.ErrNotFound, "mint %s", mint)
	}
	if !token.IsTokenProgram(s.Owner) {
		return solana.PublicKey{}, errors.Wrapf(errors.ErrData, "%s is owned by %s, not a token service", mint, s.Owner)
	}
	return s.Owner, nil
}

func flagUsage(fl *flag.FlagSet, doc string) {
	fl.Usage = func() {
		fmt.Fprint(fl.Output(), doc)
		fl.PrintDefaults()
	}
}
