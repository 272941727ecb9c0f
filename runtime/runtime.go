/*
Package runtime hosts programs. It keeps accounts in a store, executes
signed transactions atomically and lets programs invoke each other.

Every transaction runs on a cache wrap of the account store. Only when all
its instructions succeed the cache wrap is written, so a failing instruction
leaves no trace, whatever the instructions before it did. Transactions are
executed one at a time.
*/
package runtime

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/store"
	"github.com/iov-one/swapvault/x/token"
	"github.com/tendermint/tendermint/libs/log"
)

// NativeLoaderID owns the accounts of registered programs.
var NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

// Runtime executes transactions against an account store.
type Runtime struct {
	mu       sync.Mutex
	db       store.CacheableKVStore
	programs map[solana.PublicKey]swapvault.Program
	names    map[solana.PublicKey]string
	rent     swapvault.Rent
	logger   log.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithRent sets the rent charged to new accounts.
func WithRent(r swapvault.Rent) Option {
	return func(rt *Runtime) { rt.rent = r }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(rt *Runtime) { rt.logger = l }
}

// New returns a runtime over the given account store with no program
// registered.
func New(db store.CacheableKVStore, opts ...Option) *Runtime {
	rt := &Runtime{
		db:       db,
		programs: make(map[solana.PublicKey]swapvault.Program),
		names:    make(map[solana.PublicKey]string),
		rent:     swapvault.DefaultRent,
		logger:   swapvault.DefaultLogger,
	}
	for _, o := range opts {
		o(rt)
	}
	return rt
}

// Register makes programs callable. The name is used in errors and logs.
func (rt *Runtime) Register(name string, p swapvault.Program) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.programs[p.ID()] = p
	rt.names[p.ID()] = name
}

func (rt *Runtime) serviceName(id solana.PublicKey) string {
	if n, ok := rt.names[id]; ok {
		return n
	}
	return id.String()
}

// Rent returns the rent of this runtime.
func (rt *Runtime) Rent() swapvault.Rent {
	return rt.rent
}

// Result is returned for an executed transaction.
type Result struct {
	Logs []string
}

// Execute runs all instructions of a signed transaction. Either all of them
// succeed and their changes are stored, or nothing is. The program log is
// returned on failure too.
func (rt *Runtime) Execute(ctx context.Context, tx *Transaction) (*Result, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var plog swapvault.ProgramLog
	ctx = swapvault.WithProgramLog(ctx, &plog)
	ctx = swapvault.WithLogger(ctx, rt.logger.With("module", "runtime"))

	err := rt.execute(ctx, tx)
	res := &Result{Logs: plog.Lines()}
	if err != nil {
		swapvault.GetLogger(ctx).Debug("transaction failed", "err", err)
		return res, err
	}
	return res, nil
}

func (rt *Runtime) execute(ctx context.Context, tx *Transaction) (err error) {
	defer errors.Recover(&err)

	if err := tx.verify(); err != nil {
		return err
	}

	cache := rt.db.CacheWrap()
	defer cache.Discard()

	accounts, order, err := rt.loadAccounts(cache, tx)
	if err != nil {
		return err
	}

	for i, ix := range tx.Instructions {
		prog, ok := rt.programs[ix.ProgramID]
		if !ok {
			return errors.Wrapf(errors.ErrNotFound, "instruction %d: program %s", i, ix.ProgramID)
		}
		views := make([]*swapvault.AccountInfo, 0, len(ix.Accounts))
		for _, m := range ix.Accounts {
			views = append(views, accounts[m.PublicKey].View(m.IsSigner, m.IsWritable))
		}
		ictx := swapvault.WithLogInfo(ctx, "instruction", i, "program", rt.serviceName(ix.ProgramID))
		if err := newFrame(rt, ix.ProgramID, 1, views).run(ictx, prog, ix.Data); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}

	for _, key := range order {
		acc := accounts[key]
		if acc.Executable() || !acc.IsWritable() {
			continue
		}
		if err := putAccount(cache, key, acc.State()); err != nil {
			return err
		}
	}
	return cache.Write()
}

// loadAccounts returns one account per key referenced by the transaction.
// The returned views carry the widest privileges any instruction grants.
func (rt *Runtime) loadAccounts(db store.ReadOnlyKVStore, tx *Transaction) (map[solana.PublicKey]*swapvault.AccountInfo, []solana.PublicKey, error) {
	type privileges struct{ signer, writable bool }
	privs := make(map[solana.PublicKey]*privileges)
	var order []solana.PublicKey
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			p, ok := privs[m.PublicKey]
			if !ok {
				p = &privileges{}
				privs[m.PublicKey] = p
				order = append(order, m.PublicKey)
			}
			p.signer = p.signer || m.IsSigner
			p.writable = p.writable || m.IsWritable
		}
	}

	accounts := make(map[solana.PublicKey]*swapvault.AccountInfo, len(order))
	for _, key := range order {
		state, err := rt.loadState(db, key)
		if err != nil {
			return nil, nil, err
		}
		p := privs[key]
		accounts[key] = swapvault.NewAccountInfo(key, state, p.signer, p.writable && !state.Executable)
	}
	return accounts, order, nil
}

// loadState returns the stored state of an account. Unknown addresses are
// empty system accounts.
func (rt *Runtime) loadState(db store.ReadOnlyKVStore, key solana.PublicKey) (swapvault.AccountState, error) {
	if _, ok := rt.programs[key]; ok {
		return swapvault.AccountState{Owner: NativeLoaderID, Lamports: 1, Executable: true}, nil
	}
	bz, err := db.Get(accountKey(key))
	if err != nil {
		return swapvault.AccountState{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if bz == nil {
		return swapvault.AccountState{Owner: solana.SystemProgramID}, nil
	}
	return decodeAccount(bz)
}

// putAccount stores an account. Accounts without lamports are deleted.
func putAccount(db store.SetDeleter, key solana.PublicKey, s swapvault.AccountState) error {
	if s.Lamports == 0 {
		return db.Delete(accountKey(key))
	}
	bz, err := encodeAccount(s)
	if err != nil {
		return err
	}
	return db.Set(accountKey(key), bz)
}

// SetAccount writes an account directly, bypassing all programs. Use it to
// load a genesis state.
func (rt *Runtime) SetAccount(key solana.PublicKey, s swapvault.AccountState) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.programs[key]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "%s is a program", key)
	}
	return putAccount(rt.db, key, s)
}

// Account returns the stored state of an account and false if it does not
// exist.
func (rt *Runtime) Account(key solana.PublicKey) (swapvault.AccountState, bool, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	bz, err := rt.db.Get(accountKey(key))
	if err != nil {
		return swapvault.AccountState{}, false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if bz == nil {
		return swapvault.AccountState{}, false, nil
	}
	s, err := decodeAccount(bz)
	return s, err == nil, err
}

// TokenBalance returns the balance of a token account.
func (rt *Runtime) TokenBalance(key solana.PublicKey) (uint64, error) {
	s, ok, err := rt.Account(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Wrapf(errors.ErrNotFound, "token account %s", key)
	}
	if !token.IsTokenProgram(s.Owner) {
		return 0, errors.Wrapf(errors.ErrData, "%s is owned by %s", key, s.Owner)
	}
	return token.AccountAmount(s.Data)
}

// StoredAccount is an account state together with its address.
type StoredAccount struct {
	Key solana.PublicKey
	swapvault.AccountState
}

// AccountsOwnedBy returns every stored account owned by the given program,
// ordered by address.
func (rt *Runtime) AccountsOwnedBy(owner solana.PublicKey) ([]StoredAccount, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	it, err := rt.db.Iterator(accountPrefix, prefixEnd(accountPrefix))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer it.Close()

	var res []StoredAccount
	for it.Valid() {
		s, err := decodeAccount(it.Value())
		if err != nil {
			return nil, err
		}
		if s.Owner.Equals(owner) {
			key := solana.PublicKeyFromBytes(it.Key()[len(accountPrefix):])
			res = append(res, StoredAccount{Key: key, AccountState: s})
		}
		if err := it.Next(); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	return res, nil
}
