package swapvault

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/swaptest/assert"
)

func TestNewSigner(t *testing.T) {
	program := solana.NewWallet().PublicKey()
	maker := solana.NewWallet().PublicKey()
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, 7)

	addr, bump, err := FindProgramAddress(program, []byte("escrow"), maker[:], seed)
	assert.Nil(t, err)

	s, err := NewSigner(program, addr, []byte("escrow"), maker[:], seed, []byte{bump})
	assert.Nil(t, err)
	assert.Equal(t, addr, s.Address())
	assert.Equal(t, program, s.ProgramID())
	assert.Nil(t, s.Verify(program))
	assert.IsErr(t, errors.ErrAuthorization, s.Verify(maker))

	// Seeds are copied, changing them does not affect the signer.
	seeds := s.Seeds()
	seeds[0][0] = 'x'
	assert.Nil(t, s.Verify(program))

	_, err = NewSigner(program, maker, []byte("escrow"), maker[:], seed, []byte{bump})
	assert.IsErr(t, errors.ErrAuthorization, err)

	binary.LittleEndian.PutUint64(seed, 8)
	_, err = NewSigner(program, addr, []byte("escrow"), maker[:], seed, []byte{bump})
	assert.IsErr(t, errors.ErrAuthorization, err)
}

func TestZeroSignerAuthorizesNothing(t *testing.T) {
	var s Signer
	assert.IsErr(t, errors.ErrAuthorization, s.Verify(solana.PublicKey{}))
}
