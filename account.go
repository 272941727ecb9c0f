package swapvault

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
)

// MaxAccountDataLen is the largest data region an account may hold.
const MaxAccountDataLen = 10 * 1024 * 1024

// AccountState is a copy of everything persisted about an account.
type AccountState struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// account is the shared storage of an account. Every AccountInfo handed to
// a program within one transaction points to the same account value, so a
// change made by a called service is visible to its caller.
type account struct {
	owner      solana.PublicKey
	lamports   uint64
	data       []byte
	executable bool

	// borrows is the number of outstanding shared data borrows, or -1
	// when the data is borrowed mutably.
	borrows int
}

// AccountInfo is the view of an account given to a program. The signer and
// writable flags belong to the view: the same account may be a signer for
// the caller and not for the service it invokes.
type AccountInfo struct {
	key        solana.PublicKey
	isSigner   bool
	isWritable bool
	acc        *account
}

// NewAccountInfo returns a view on a new account holding a copy of the
// given state.
func NewAccountInfo(key solana.PublicKey, state AccountState, isSigner, isWritable bool) *AccountInfo {
	return &AccountInfo{
		key:        key,
		isSigner:   isSigner,
		isWritable: isWritable,
		acc: &account{
			owner:      state.Owner,
			lamports:   state.Lamports,
			data:       append([]byte(nil), state.Data...),
			executable: state.Executable,
		},
	}
}

// View returns another view on the same account with different privileges.
func (a *AccountInfo) View(isSigner, isWritable bool) *AccountInfo {
	return &AccountInfo{
		key:        a.key,
		isSigner:   isSigner,
		isWritable: isWritable,
		acc:        a.acc,
	}
}

// SameAccount returns true if both views point to the same account.
func (a *AccountInfo) SameAccount(b *AccountInfo) bool {
	return a.acc == b.acc
}

// Key returns the address of the account.
func (a *AccountInfo) Key() solana.PublicKey { return a.key }

// IsSigner returns true if the account co-signed the current transaction or
// the invoking program signed for it.
func (a *AccountInfo) IsSigner() bool { return a.isSigner }

// IsWritable returns true if the account may be modified.
func (a *AccountInfo) IsWritable() bool { return a.isWritable }

// Executable returns true for program accounts.
func (a *AccountInfo) Executable() bool { return a.acc.executable }

// Owner returns the program that owns the account storage.
func (a *AccountInfo) Owner() solana.PublicKey { return a.acc.owner }

// IsOwnedBy returns true if the account storage is owned by the given program.
func (a *AccountInfo) IsOwnedBy(program solana.PublicKey) bool {
	return a.acc.owner.Equals(program)
}

// Lamports returns the lamport balance of the account.
func (a *AccountInfo) Lamports() uint64 { return a.acc.lamports }

// DataLen returns the length of the account data.
func (a *AccountInfo) DataLen() int { return len(a.acc.data) }

// DataIsEmpty returns true if the account holds no data.
func (a *AccountInfo) DataIsEmpty() bool { return len(a.acc.data) == 0 }

// SetLamports overwrites the lamport balance. Callers are responsible for
// moving the difference somewhere else; the runtime rejects a transaction
// that creates or destroys lamports.
func (a *AccountInfo) SetLamports(lamports uint64) {
	a.acc.lamports = lamports
}

// AddLamports credits the account.
func (a *AccountInfo) AddLamports(amount uint64) error {
	sum := a.acc.lamports + amount
	if sum < a.acc.lamports {
		return errors.Wrapf(errors.ErrOverflow, "lamports of %s", a.key)
	}
	a.acc.lamports = sum
	return nil
}

// SubLamports debits the account.
func (a *AccountInfo) SubLamports(amount uint64) error {
	if a.acc.lamports < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount,
			"%s holds %d lamports, need %d", a.key, a.acc.lamports, amount)
	}
	a.acc.lamports -= amount
	return nil
}

// Assign changes the owner of the account storage. The data must not be
// borrowed.
func (a *AccountInfo) Assign(owner solana.PublicKey) error {
	if a.acc.borrows != 0 {
		return errors.Wrapf(errors.ErrBorrow, "assign %s", a.key)
	}
	a.acc.owner = owner
	return nil
}

// DataRef is a shared borrow of account data. Release it before the data
// is borrowed mutably, resized or the account is closed.
type DataRef struct {
	acc      *account
	released bool
}

// Bytes returns the borrowed data. The slice must not be modified or used
// after Release.
func (r *DataRef) Bytes() []byte {
	return r.acc.data
}

// Release ends the borrow. Releasing twice is a no-op.
func (r *DataRef) Release() {
	if r.released {
		return
	}
	r.released = true
	r.acc.borrows--
}

// DataMut is an exclusive borrow of account data.
type DataMut struct {
	acc      *account
	released bool
}

// Bytes returns the borrowed data that may be modified in place until
// Release.
func (r *DataMut) Bytes() []byte {
	return r.acc.data
}

// Release ends the borrow. Releasing twice is a no-op.
func (r *DataMut) Release() {
	if r.released {
		return
	}
	r.released = true
	r.acc.borrows = 0
}

// TryBorrowData returns a shared borrow of the account data. It fails if the
// data is borrowed mutably.
func (a *AccountInfo) TryBorrowData() (*DataRef, error) {
	if a.acc.borrows < 0 {
		return nil, errors.Wrapf(errors.ErrBorrow, "data of %s is borrowed mutably", a.key)
	}
	a.acc.borrows++
	return &DataRef{acc: a.acc}, nil
}

// TryBorrowMutData returns an exclusive borrow of the account data. It fails
// if any other borrow is outstanding.
func (a *AccountInfo) TryBorrowMutData() (*DataMut, error) {
	if a.acc.borrows != 0 {
		return nil, errors.Wrapf(errors.ErrBorrow, "data of %s is borrowed", a.key)
	}
	a.acc.borrows = -1
	return &DataMut{acc: a.acc}, nil
}

// CanBorrow returns true if the data could be borrowed right now, mutably
// or not.
func (a *AccountInfo) CanBorrow(mutable bool) bool {
	if mutable {
		return a.acc.borrows == 0
	}
	return a.acc.borrows >= 0
}

// Realloc changes the length of the account data. New bytes are zeroed when
// zeroInit is set, otherwise they keep whatever the shrunk region held.
func (a *AccountInfo) Realloc(size int, zeroInit bool) error {
	if size < 0 || size > MaxAccountDataLen {
		return errors.Wrapf(errors.ErrInput, "data length %d", size)
	}
	if a.acc.borrows != 0 {
		return errors.Wrapf(errors.ErrBorrow, "realloc %s", a.key)
	}
	old := len(a.acc.data)
	switch {
	case size <= old:
		a.acc.data = a.acc.data[:size]
	case size <= cap(a.acc.data) && !zeroInit:
		a.acc.data = a.acc.data[:size]
	default:
		data := make([]byte, size)
		copy(data, a.acc.data)
		a.acc.data = data
	}
	return nil
}

// Close releases the account storage back to the system service: lamports
// are zeroed and the owner becomes the system service. The data is kept as
// it is, so a closing program should tombstone and shrink it first.
func (a *AccountInfo) Close() error {
	if a.acc.borrows != 0 {
		return errors.Wrapf(errors.ErrBorrow, "close %s", a.key)
	}
	a.acc.lamports = 0
	a.acc.owner = solana.SystemProgramID
	return nil
}

// State returns a copy of the account state. It ignores outstanding borrows
// and is meant for the runtime and for tests.
func (a *AccountInfo) State() AccountState {
	return AccountState{
		Owner:      a.acc.owner,
		Lamports:   a.acc.lamports,
		Data:       append([]byte(nil), a.acc.data...),
		Executable: a.acc.executable,
	}
}
