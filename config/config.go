/*
Package config loads the configuration of a swapvault ledger from a TOML
file: where the ledger lives, how verbose it logs, the address of the escrow
program, the rent and the accounts created when the ledger is initialized.
*/
package config

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// FileName is the name of the configuration file inside of the home
// directory.
const FileName = "swapvault.toml"

// DefaultProgramID is the address the escrow program is deployed at unless
// configured otherwise.
const DefaultProgramID = "9t1YZq9RxynevTQyx5PctMeRf612fxErydc8k8MtAekS"

// Config is the content of the configuration file.
type Config struct {
	// Home is the directory holding the ledger database and the keys.
	// Relative paths are relative to the configuration file.
	Home      string         `toml:"home"`
	LogLevel  string         `toml:"log_level"`
	ProgramID string         `toml:"program_id"`
	Rent      swapvault.Rent `toml:"rent"`
	Genesis   Genesis        `toml:"genesis"`
}

// Genesis lists the accounts created by init.
type Genesis struct {
	Wallets []Wallet `toml:"wallets"`
	Mints   []Mint   `toml:"mints"`
}

// Wallet is a key created by init and funded with Lamports.
type Wallet struct {
	Name     string `toml:"name"`
	Lamports uint64 `toml:"lamports"`
}

// Mint is a token created by init. Authority names the wallet allowed to
// mint, it also pays for the mint and the token accounts.
type Mint struct {
	Name       string    `toml:"name"`
	Decimals   uint8     `toml:"decimals"`
	Extensible bool      `toml:"extensible"`
	Authority  string    `toml:"authority"`
	Balances   []Balance `toml:"balances"`
}

// Balance is an amount minted into the associated token account of a wallet.
type Balance struct {
	Wallet string `toml:"wallet"`
	Amount uint64 `toml:"amount"`
}

// Default returns the configuration written by init when no file exists.
func Default() Config {
	return Config{
		Home:      ".",
		LogLevel:  "info",
		ProgramID: DefaultProgramID,
		Rent:      swapvault.DefaultRent,
		Genesis: Genesis{
			Wallets: []Wallet{
				{Name: "issuer", Lamports: 100 * 1000000000},
				{Name: "maker", Lamports: 10 * 1000000000},
				{Name: "taker", Lamports: 10 * 1000000000},
			},
			Mints: []Mint{
				{
					Name:      "apple",
					Decimals:  6,
					Authority: "issuer",
					Balances:  []Balance{{Wallet: "maker", Amount: 5000}},
				},
				{
					Name:      "banana",
					Decimals:  9,
					Authority: "issuer",
					Balances:  []Balance{{Wallet: "taker", Amount: 5000}},
				},
				{
					Name:       "kiwi",
					Decimals:   9,
					Extensible: true,
					Authority:  "issuer",
					Balances:   []Balance{{Wallet: "taker", Amount: 5000}},
				},
			},
		},
	}
}

// Load reads the configuration file. Keys the configuration does not know
// are rejected. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.Genesis = Genesis{}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "config %s", path)
		}
		return nil, errors.Wrapf(errors.ErrInput, "config %s: %s", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Wrapf(errors.ErrInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if !filepath.IsAbs(cfg.Home) {
		cfg.Home = filepath.Join(filepath.Dir(path), cfg.Home)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration file. It does not overwrite an existing
// file.
func Save(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(errors.ErrDuplicate, "config %s", path)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Validate returns all problems found, each as a field error.
func (c Config) Validate() error {
	var errs error
	if c.Home == "" {
		errs = errors.AppendField(errs, "Home", errors.ErrInput)
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		errs = errors.AppendField(errs, "LogLevel", errors.Wrap(errors.ErrInput, err.Error()))
	}
	if _, err := c.Program(); err != nil {
		errs = errors.AppendField(errs, "ProgramID", err)
	}
	if c.Rent.LamportsPerByteYear == 0 {
		errs = errors.AppendField(errs, "Rent.LamportsPerByteYear", errors.ErrInput)
	}
	if c.Rent.ExemptionThreshold <= 0 {
		errs = errors.AppendField(errs, "Rent.ExemptionThreshold", errors.ErrInput)
	}
	return errors.Append(errs, c.Genesis.validate())
}

func (g Genesis) validate() error {
	var errs error
	wallets := make(map[string]bool)
	for i, w := range g.Wallets {
		switch {
		case !ValidName(w.Name):
			errs = errors.AppendField(errs, fmt.Sprintf("Genesis.Wallets.%d.Name", i), errors.ErrInput)
		case wallets[w.Name]:
			errs = errors.AppendField(errs, fmt.Sprintf("Genesis.Wallets.%d.Name", i), errors.ErrDuplicate)
		}
		wallets[w.Name] = true
	}

	mints := make(map[string]bool)
	for i, m := range g.Mints {
		switch {
		case !ValidName(m.Name):
			errs = errors.AppendField(errs, fmt.Sprintf("Genesis.Mints.%d.Name", i), errors.ErrInput)
		case mints[m.Name] || wallets[m.Name]:
			errs = errors.AppendField(errs, fmt.Sprintf("Genesis.Mints.%d.Name", i), errors.ErrDuplicate)
		}
		mints[m.Name] = true
		if !wallets[m.Authority] {
			errs = errors.AppendField(errs, fmt.Sprintf("Genesis.Mints.%d.Authority", i), errors.ErrNotFound)
		}
		for j, b := range m.Balances {
			if !wallets[b.Wallet] {
				errs = errors.AppendField(errs, fmt.Sprintf("Genesis.Mints.%d.Balances.%d.Wallet", i, j), errors.ErrNotFound)
			}
		}
	}
	return errs
}

// ValidName returns true for names usable as key file names: up to 32
// lower case letters, digits, dashes and underscores.
func ValidName(name string) bool {
	if name == "" || len(name) > 32 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Program returns the escrow program address.
func (c Config) Program() (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(errors.ErrInput, "program id %q: %s", c.ProgramID, err)
	}
	return key, nil
}

// Logger returns a logger writing to w, filtered by the configured level.
func (c Config) Logger(w io.Writer) (log.Logger, error) {
	opt, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Field("LogLevel", errors.ErrInput, err.Error())
	}
	return log.NewFilter(log.NewTMLogger(log.NewSyncWriter(w)), opt), nil
}

// KeysDir returns the directory holding the private keys.
func (c Config) KeysDir() string {
	return filepath.Join(c.Home, "keys")
}

// DBDir returns the directory holding the ledger database.
func (c Config) DBDir() string {
	return filepath.Join(c.Home, "data")
}
