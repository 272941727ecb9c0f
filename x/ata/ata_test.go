package ata_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/swaptest"
	"github.com/iov-one/swapvault/swaptest/assert"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
)

func TestCreate(t *testing.T) {
	cases := map[string]struct {
		tokenProgram solana.PublicKey
		mintSize     int
	}{
		"legacy token service": {
			tokenProgram: token.ProgramID,
			mintSize:     token.MintLen,
		},
		"extensible token service": {
			tokenProgram: token.ExtensibleProgramID,
			mintSize:     token.ExtendedLen,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			l := swaptest.NewLedger(t)
			payer := l.Wallet(10000000)
			wallet := swaptest.NewAddress(t)
			mint := l.CreateMintSized(tc.tokenProgram, payer, 0, tc.mintSize)

			addr := l.CreateATA(payer, wallet, mint, tc.tokenProgram)
			assert.Equal(t, ata.MustAddress(wallet, tc.tokenProgram, mint), addr)

			state, ok, err := l.Account(addr)
			assert.Nil(t, err)
			assert.Equal(t, true, ok)
			assert.Equal(t, tc.tokenProgram, state.Owner)
			size := token.AccountSize(tc.tokenProgram)
			assert.Equal(t, size, len(state.Data))
			assert.Equal(t, l.Rent().MinimumBalance(size), state.Lamports)

			acc, err := token.DecodeAccount(state.Data)
			assert.Nil(t, err)
			assert.Equal(t, wallet, acc.Owner)
			assert.Equal(t, mint, acc.Mint)
			assert.Equal(t, token.Initialized, acc.State)

			// Creating it again fails unless done idempotently.
			_, err = l.Exec([]solana.PrivateKey{payer}, ata.NewCreateInstruction(payer.PublicKey(), wallet, mint, tc.tokenProgram))
			assert.IsErr(t, errors.ErrDuplicate, err)

			before := l.Lamports(payer.PublicKey())
			l.MustExec([]solana.PrivateKey{payer}, ata.NewCreateIdempotentInstruction(payer.PublicKey(), wallet, mint, tc.tokenProgram))
			assert.Equal(t, before, l.Lamports(payer.PublicKey()))
		})
	}
}

func TestCreatePrefunded(t *testing.T) {
	l := swaptest.NewLedger(t)
	payer := l.Wallet(10000000)
	wallet := swaptest.NewAddress(t)
	mint := l.CreateMint(token.ProgramID, payer, 2)
	addr := ata.MustAddress(wallet, token.ProgramID, mint)
	l.Fund(addr, 1000)

	before := l.Lamports(payer.PublicKey())
	l.CreateATA(payer, wallet, mint, token.ProgramID)

	required := l.Rent().MinimumBalance(token.AccountLen)
	assert.Equal(t, required, l.Lamports(addr))
	assert.Equal(t, before-(required-1000), l.Lamports(payer.PublicKey()))
	assert.Equal(t, uint64(0), l.Balance(addr))
}

func TestCreateRejects(t *testing.T) {
	l := swaptest.NewLedger(t)
	payer := l.Wallet(10000000)
	wallet := swaptest.NewAddress(t)
	mint := l.CreateMint(token.ProgramID, payer, 2)

	// The derived address must match.
	ix := ata.NewCreateInstruction(payer.PublicKey(), wallet, mint, token.ProgramID)
	ix.Accounts[1] = solana.NewAccountMeta(swaptest.NewAddress(t), true, false)
	_, err := l.Exec([]solana.PrivateKey{payer}, ix)
	assert.IsErr(t, errors.ErrInput, err)

	// Only token services can hold token accounts.
	ix = ata.NewCreateInstruction(payer.PublicKey(), wallet, mint, system.ProgramID)
	_, err = l.Exec([]solana.PrivateKey{payer}, ix)
	assert.IsErr(t, errors.ErrInput, err)

	// A mint of the other token service is rejected by the token service.
	ix = ata.NewCreateInstruction(payer.PublicKey(), wallet, mint, token.ExtensibleProgramID)
	_, err = l.Exec([]solana.PrivateKey{payer}, ix)
	assert.IsErrAll(t, err, errors.ErrExternalService, errors.ErrAuthorization)

	// A payer who cannot pay.
	poor := l.Wallet(10)
	_, err = l.Exec([]solana.PrivateKey{poor}, ata.NewCreateInstruction(poor.PublicKey(), wallet, mint, token.ProgramID))
	assert.IsErrAll(t, err, errors.ErrExternalService, errors.ErrInsufficientAmount)

	ix = swapvault.NewInstruction(ata.ProgramID, ix.Accounts[:3], nil)
	_, err = l.Exec([]solana.PrivateKey{payer}, ix)
	assert.IsErr(t, errors.ErrCardinality, err)

	assert.Equal(t, false, l.Exists(ata.MustAddress(wallet, token.ProgramID, mint)))
}
