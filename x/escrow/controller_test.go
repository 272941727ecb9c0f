package escrow

import (
	"context"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/swaptest/assert"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
	"github.com/stretchr/testify/require"
)

// recorder counts the invocations it is asked to perform and performs none.
type recorder struct {
	calls []swapvault.Instruction
}

func (r *recorder) Invoke(_ context.Context, ix swapvault.Instruction, _ []*swapvault.AccountInfo, _ ...swapvault.Signer) error {
	r.calls = append(r.calls, ix)
	return nil
}

func (r *recorder) Rent() swapvault.Rent { return swapvault.DefaultRent }

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func accountWith(key, owner solana.PublicKey, data []byte) *swapvault.AccountInfo {
	return swapvault.NewAccountInfo(key, swapvault.AccountState{
		Owner:    owner,
		Lamports: swapvault.DefaultRent.MinimumBalance(len(data)),
		Data:     data,
	}, false, true)
}

func wallet() *swapvault.AccountInfo {
	return swapvault.NewAccountInfo(newKey(), swapvault.AccountState{Owner: system.ProgramID, Lamports: 1000000000}, true, true)
}

func service(id solana.PublicKey) *swapvault.AccountInfo {
	return swapvault.NewAccountInfo(id, swapvault.AccountState{Owner: solana.PublicKey{}, Lamports: 1, Executable: true}, false, false)
}

func withTag(size int, tag byte) []byte {
	data := make([]byte, size)
	data[token.TypeOffset] = tag
	return data
}

func TestCheckSigner(t *testing.T) {
	signer := swapvault.NewAccountInfo(newKey(), swapvault.AccountState{}, true, false)
	assert.Nil(t, CheckSigner(signer))
	assert.IsErr(t, errors.ErrAuthorization, CheckSigner(signer.View(false, true)))
}

func TestCheckMint(t *testing.T) {
	cases := map[string]struct {
		owner      solana.PublicKey
		data       []byte
		wantErr    *errors.Error
		wantMint   Mint
		compatible bool
	}{
		"legacy": {
			owner:    token.ProgramID,
			data:     make([]byte, token.MintLen),
			wantMint: LegacyMint{},
		},
		"legacy with a tag": {
			owner:   token.ProgramID,
			data:    withTag(token.ExtendedLen, token.MintType),
			wantErr: errors.ErrData,
		},
		"legacy too short": {
			owner:   token.ProgramID,
			data:    make([]byte, token.MintLen-1),
			wantErr: errors.ErrData,
		},
		"extensible in the legacy layout": {
			owner:      token.ExtensibleProgramID,
			data:       make([]byte, token.MintLen),
			wantMint:   ExtensibleMint{},
			compatible: true,
		},
		"extensible": {
			owner:    token.ExtensibleProgramID,
			data:     withTag(token.ExtendedLen, token.MintType),
			wantMint: ExtensibleMint{},
		},
		"extensible with extensions": {
			owner:    token.ExtensibleProgramID,
			data:     withTag(token.ExtendedLen+100, token.MintType),
			wantMint: ExtensibleMint{},
		},
		"extensible token account": {
			owner:   token.ExtensibleProgramID,
			data:    withTag(token.ExtendedLen, token.AccountType),
			wantErr: errors.ErrData,
		},
		"extensible without a tag": {
			owner:   token.ExtensibleProgramID,
			data:    make([]byte, token.TypeOffset),
			wantErr: errors.ErrData,
		},
		"not a token service": {
			owner:   system.ProgramID,
			data:    make([]byte, token.MintLen),
			wantErr: errors.ErrAuthorization,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			acc := accountWith(newKey(), tc.owner, tc.data)
			mint, err := CheckMint(acc)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, acc.Key(), mint.Key())
			assert.Equal(t, tc.owner, mint.TokenProgram())
			switch m := mint.(type) {
			case LegacyMint:
				_, ok := tc.wantMint.(LegacyMint)
				assert.Equal(t, true, ok)
			case ExtensibleMint:
				_, ok := tc.wantMint.(ExtensibleMint)
				assert.Equal(t, true, ok)
				assert.Equal(t, tc.compatible, m.Compatible)
			}
		})
	}
}

func TestCheckMintBorrowed(t *testing.T) {
	acc := accountWith(newKey(), token.ExtensibleProgramID, withTag(token.ExtendedLen, token.MintType))
	w, err := acc.TryBorrowMutData()
	require.NoError(t, err)
	_, err = CheckMint(acc)
	assert.IsErr(t, errors.ErrBorrow, err)
	w.Release()
}

func TestCheckAssociatedToken(t *testing.T) {
	owner := wallet()
	mint := accountWith(newKey(), token.ProgramID, make([]byte, token.MintLen))
	otherMint := accountWith(newKey(), token.ProgramID, make([]byte, token.MintLen))
	legacy := service(token.ProgramID)
	extensible := service(token.ExtensibleProgramID)

	cases := map[string]struct {
		account      *swapvault.AccountInfo
		tokenProgram *swapvault.AccountInfo
		wantErr      *errors.Error
	}{
		"valid": {
			account:      accountWith(ata.MustAddress(owner.Key(), token.ProgramID, mint.Key()), token.ProgramID, make([]byte, token.AccountLen)),
			tokenProgram: legacy,
		},
		"valid extensible": {
			account:      accountWith(ata.MustAddress(owner.Key(), token.ExtensibleProgramID, mint.Key()), token.ExtensibleProgramID, withTag(token.ExtendedLen, token.AccountType)),
			tokenProgram: extensible,
		},
		"extensible mint tag": {
			account:      accountWith(ata.MustAddress(owner.Key(), token.ExtensibleProgramID, mint.Key()), token.ExtensibleProgramID, withTag(token.ExtendedLen, token.MintType)),
			tokenProgram: extensible,
			wantErr:      errors.ErrData,
		},
		"legacy account longer": {
			account:      accountWith(ata.MustAddress(owner.Key(), token.ProgramID, mint.Key()), token.ProgramID, withTag(token.ExtendedLen, token.AccountType)),
			tokenProgram: legacy,
			wantErr:      errors.ErrData,
		},
		"address of another mint": {
			account:      accountWith(ata.MustAddress(owner.Key(), token.ProgramID, otherMint.Key()), token.ProgramID, make([]byte, token.AccountLen)),
			tokenProgram: legacy,
			wantErr:      errors.ErrData,
		},
		"random address": {
			account:      accountWith(newKey(), token.ProgramID, make([]byte, token.AccountLen)),
			tokenProgram: legacy,
			wantErr:      errors.ErrData,
		},
		"owned by the other token service": {
			account:      accountWith(ata.MustAddress(owner.Key(), token.ProgramID, mint.Key()), token.ExtensibleProgramID, make([]byte, token.AccountLen)),
			tokenProgram: legacy,
			wantErr:      errors.ErrAuthorization,
		},
		"not a token service": {
			account:      accountWith(ata.MustAddress(owner.Key(), system.ProgramID, mint.Key()), system.ProgramID, make([]byte, token.AccountLen)),
			tokenProgram: service(system.ProgramID),
			wantErr:      errors.ErrAuthorization,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := CheckAssociatedToken(tc.account, owner, mint, tc.tokenProgram)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestInitAssociatedTokenIfNeeded(t *testing.T) {
	payer := wallet()
	owner := wallet()
	mint := accountWith(newKey(), token.ProgramID, make([]byte, token.MintLen))
	sys := service(system.ProgramID)
	tok := service(token.ProgramID)
	addr := ata.MustAddress(owner.Key(), token.ProgramID, mint.Key())

	var host recorder
	missing := swapvault.NewAccountInfo(addr, swapvault.AccountState{Owner: system.ProgramID}, false, true)
	require.NoError(t, InitAssociatedTokenIfNeeded(context.Background(), &host, missing, mint, payer, owner, sys, tok))
	require.Len(t, host.calls, 1)
	ix := host.calls[0]
	assert.Equal(t, ata.ProgramID, ix.ProgramID)
	assert.Equal(t, addr, ix.Accounts[1].PublicKey)
	assert.Equal(t, owner.Key(), ix.Accounts[2].PublicKey)

	host = recorder{}
	existing := accountWith(addr, token.ProgramID, make([]byte, token.AccountLen))
	for i := 0; i < 2; i++ {
		require.NoError(t, InitAssociatedTokenIfNeeded(context.Background(), &host, existing, mint, payer, owner, sys, tok))
	}
	assert.Equal(t, 0, len(host.calls))
}

func TestInitProgramAccount(t *testing.T) {
	programID := newKey()
	maker := newKey()
	addr, bump, err := Address(programID, maker, 7)
	require.NoError(t, err)
	payer := wallet()
	account := swapvault.NewAccountInfo(addr, swapvault.AccountState{Owner: system.ProgramID}, false, true)

	var host recorder
	err = InitProgramAccount(context.Background(), &host, programID, payer, account, EscrowLen, Seeds(maker, 8, bump)...)
	assert.IsErr(t, errors.ErrAuthorization, err)
	assert.Equal(t, 0, len(host.calls))

	err = InitProgramAccount(context.Background(), &host, programID, payer, account, EscrowLen, Seeds(maker, 7, bump)...)
	assert.Nil(t, err)
	require.Len(t, host.calls, 1)
	msg, err := system.Unmarshal(host.calls[0].Data)
	require.NoError(t, err)
	assert.Equal(t, system.CreateAccountMsg{
		Lamports: swapvault.DefaultRent.MinimumBalance(EscrowLen),
		Space:    EscrowLen,
		Owner:    programID,
	}, msg)
}

func TestCloseProgramAccount(t *testing.T) {
	programID := newKey()
	account := accountWith(newKey(), programID, Escrow{Seed: 1, Receive: 2}.Encode())
	rent := account.Lamports()
	dest := wallet()
	before := dest.Lamports()

	// Nothing happens while the data is borrowed.
	r, err := account.TryBorrowData()
	require.NoError(t, err)
	assert.IsErr(t, errors.ErrBorrow, CloseProgramAccount(account, dest))
	assert.Equal(t, rent, account.Lamports())
	assert.Equal(t, EscrowLen, account.DataLen())
	r.Release()

	assert.IsErr(t, errors.ErrInput, CloseProgramAccount(account, account.View(false, true)))

	assert.Nil(t, CloseProgramAccount(account, dest))
	assert.Equal(t, swapvault.AccountState{
		Owner:    system.ProgramID,
		Lamports: 0,
		Data:     []byte{Tombstone},
	}, account.State())
	assert.Equal(t, before+rent, dest.Lamports())

	_, err = DecodeEscrow(account.State().Data)
	assert.IsErr(t, errors.ErrData, err)
}

func TestCloseProgramAccountTombstoneFirst(t *testing.T) {
	programID := newKey()
	account := accountWith(newKey(), programID, Escrow{Seed: 1, Receive: 2}.Encode())
	rent := account.Lamports()

	// A destination that cannot be credited stops the close at the drain.
	full := swapvault.NewAccountInfo(newKey(), swapvault.AccountState{Owner: system.ProgramID, Lamports: math.MaxUint64}, false, true)
	assert.IsErr(t, errors.ErrOverflow, CloseProgramAccount(account, full))

	state := account.State()
	assert.Equal(t, Tombstone, state.Data[0])
	assert.Equal(t, EscrowLen, len(state.Data))
	assert.Equal(t, rent, state.Lamports)
	assert.Equal(t, programID, state.Owner)
	assert.Equal(t, uint64(math.MaxUint64), full.Lamports())
}
