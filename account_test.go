package swapvault

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/swaptest/assert"
)

func newTestAccount(data []byte) *AccountInfo {
	return NewAccountInfo(solana.NewWallet().PublicKey(), AccountState{
		Owner:    solana.TokenProgramID,
		Lamports: 100,
		Data:     data,
	}, false, true)
}

func TestAccountBorrowRules(t *testing.T) {
	a := newTestAccount([]byte{1, 2, 3})

	r1, err := a.TryBorrowData()
	assert.Nil(t, err)
	r2, err := a.TryBorrowData()
	assert.Nil(t, err)
	assert.Equal(t, []byte{1, 2, 3}, r1.Bytes())

	_, err = a.TryBorrowMutData()
	assert.IsErr(t, errors.ErrBorrow, err)
	assert.IsErr(t, errors.ErrBorrow, a.Realloc(1, false))
	assert.IsErr(t, errors.ErrBorrow, a.Close())
	assert.IsErr(t, errors.ErrBorrow, a.Assign(solana.SystemProgramID))

	r1.Release()
	r1.Release()
	_, err = a.TryBorrowMutData()
	assert.IsErr(t, errors.ErrBorrow, err)

	r2.Release()
	w, err := a.TryBorrowMutData()
	assert.Nil(t, err)
	w.Bytes()[0] = 0xFF
	_, err = a.TryBorrowData()
	assert.IsErr(t, errors.ErrBorrow, err)
	w.Release()

	r, err := a.TryBorrowData()
	assert.Nil(t, err)
	assert.Equal(t, []byte{0xFF, 2, 3}, r.Bytes())
	r.Release()
}

func TestAccountViewsShareState(t *testing.T) {
	a := newTestAccount(nil)
	v := a.View(true, false)

	assert.Equal(t, true, v.IsSigner())
	assert.Equal(t, false, v.IsWritable())
	assert.Equal(t, true, v.SameAccount(a))

	assert.Nil(t, a.AddLamports(5))
	assert.Equal(t, uint64(105), v.Lamports())

	assert.IsErr(t, errors.ErrInsufficientAmount, v.SubLamports(106))
	a.SetLamports(^uint64(0))
	assert.IsErr(t, errors.ErrOverflow, a.AddLamports(1))
}

func TestAccountRealloc(t *testing.T) {
	a := newTestAccount([]byte{1, 2, 3})

	assert.Nil(t, a.Realloc(1, false))
	assert.Equal(t, 1, a.DataLen())
	assert.Nil(t, a.Realloc(3, true))
	assert.Equal(t, []byte{1, 0, 0}, a.State().Data)

	assert.IsErr(t, errors.ErrInput, a.Realloc(-1, false))
	assert.IsErr(t, errors.ErrInput, a.Realloc(MaxAccountDataLen+1, false))
}

func TestAccountClose(t *testing.T) {
	a := newTestAccount([]byte{0xFF})
	assert.Nil(t, a.Close())

	s := a.State()
	assert.Equal(t, uint64(0), s.Lamports)
	assert.Equal(t, solana.SystemProgramID, s.Owner)
	assert.Equal(t, []byte{0xFF}, s.Data)
}
