package token

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/swaptest/assert"
)

// host only serves the rent, token instructions never invoke other programs.
type host struct{}

func (host) Invoke(context.Context, swapvault.Instruction, []*swapvault.AccountInfo, ...swapvault.Signer) error {
	return errors.ErrHuman.New("unexpected invoke")
}

func (host) Rent() swapvault.Rent { return swapvault.DefaultRent }

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func newAccount(owner solana.PublicKey, size int, signer bool) *swapvault.AccountInfo {
	return swapvault.NewAccountInfo(newKey(), swapvault.AccountState{
		Owner:    owner,
		Lamports: swapvault.DefaultRent.MinimumBalance(size),
		Data:     make([]byte, size),
	}, signer, true)
}

func signer() *swapvault.AccountInfo {
	return swapvault.NewAccountInfo(newKey(), swapvault.AccountState{Owner: solana.SystemProgramID}, true, false)
}

func run(t *testing.T, p Program, ix swapvault.Instruction, accounts ...*swapvault.AccountInfo) error {
	t.Helper()
	if !ix.ProgramID.Equals(p.ID()) {
		t.Fatalf("instruction for %s run by %s", ix.ProgramID, p.ID())
	}
	return p.Process(context.Background(), host{}, accounts, ix.Data)
}

// fixture holds an initialized mint and two accounts of it.
type fixture struct {
	p         Program
	authority *swapvault.AccountInfo
	mint      *swapvault.AccountInfo
	alice     *swapvault.AccountInfo
	bob       *swapvault.AccountInfo
	aliceKey  *swapvault.AccountInfo
	bobKey    *swapvault.AccountInfo
}

func newFixture(t *testing.T, p Program) *fixture {
	t.Helper()
	f := &fixture{
		p:         p,
		authority: signer(),
		mint:      newAccount(p.ID(), MintLen, false),
		alice:     newAccount(p.ID(), p.AccountSize(), false),
		bob:       newAccount(p.ID(), p.AccountSize(), false),
		aliceKey:  signer(),
		bobKey:    signer(),
	}
	assert.Nil(t, run(t, p, NewInitializeMint2Instruction(p.ID(), f.mint.Key(), 6, f.authority.Key(), nil), f.mint))
	assert.Nil(t, run(t, p, NewInitializeAccount3Instruction(p.ID(), f.alice.Key(), f.mint.Key(), f.aliceKey.Key()), f.alice, f.mint))
	assert.Nil(t, run(t, p, NewInitializeAccount3Instruction(p.ID(), f.bob.Key(), f.mint.Key(), f.bobKey.Key()), f.bob, f.mint))
	assert.Nil(t, run(t, p, NewMintToInstruction(p.ID(), f.mint.Key(), f.alice.Key(), f.authority.Key(), 1000), f.mint, f.alice, f.authority))
	return f
}

func balance(t *testing.T, acc *swapvault.AccountInfo) uint64 {
	t.Helper()
	amount, err := AccountAmount(acc.State().Data)
	assert.Nil(t, err)
	return amount
}

func TestInitialize(t *testing.T) {
	for name, p := range map[string]Program{"legacy": NewProgram(), "extensible": NewExtensibleProgram()} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, p)

			m, err := DecodeMint(f.mint.State().Data)
			assert.Nil(t, err)
			assert.Equal(t, uint64(1000), m.Supply)
			assert.Equal(t, uint8(6), m.Decimals)
			assert.Equal(t, f.authority.Key(), *m.MintAuthority)

			data := f.alice.State().Data
			a, err := DecodeAccount(data)
			assert.Nil(t, err)
			assert.Equal(t, f.mint.Key(), a.Mint)
			assert.Equal(t, f.aliceKey.Key(), a.Owner)
			assert.Equal(t, Initialized, a.State)
			if p.extensible {
				assert.Equal(t, ExtendedLen, len(data))
				assert.Equal(t, AccountType, data[TypeOffset])
			}

			// Initializing twice is rejected.
			err = run(t, p, NewInitializeAccount3Instruction(p.ID(), f.alice.Key(), f.mint.Key(), f.bobKey.Key()), f.alice, f.mint)
			assert.IsErr(t, errors.ErrDuplicate, err)
			err = run(t, p, NewInitializeMint2Instruction(p.ID(), f.mint.Key(), 2, f.bobKey.Key(), nil), f.mint)
			assert.IsErr(t, errors.ErrDuplicate, err)
		})
	}
}

func TestInitializeRejects(t *testing.T) {
	p := NewProgram()
	mint := newAccount(p.ID(), MintLen, false)
	assert.Nil(t, run(t, p, NewInitializeMint2Instruction(p.ID(), mint.Key(), 0, newKey(), nil), mint))

	cases := map[string]struct {
		account *swapvault.AccountInfo
		wantErr *errors.Error
	}{
		"not owned by the service": {
			account: newAccount(ExtensibleProgramID, AccountLen, false),
			wantErr: errors.ErrAuthorization,
		},
		"wrong size": {
			account: newAccount(p.ID(), ExtendedLen, false),
			wantErr: errors.ErrData,
		},
		"not rent exempt": {
			account: swapvault.NewAccountInfo(newKey(), swapvault.AccountState{
				Owner:    p.ID(),
				Lamports: 1,
				Data:     make([]byte, AccountLen),
			}, false, true),
			wantErr: errors.ErrInsufficientAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ix := NewInitializeAccount3Instruction(p.ID(), tc.account.Key(), mint.Key(), newKey())
			assert.IsErr(t, tc.wantErr, run(t, p, ix, tc.account, mint))
		})
	}
}

func TestTransfer(t *testing.T) {
	f := newFixture(t, NewProgram())
	p := f.p

	cases := map[string]struct {
		amount    uint64
		authority *swapvault.AccountInfo
		wantErr   *errors.Error
	}{
		"owner moves tokens": {
			amount:    400,
			authority: f.aliceKey,
		},
		"not the owner": {
			amount:    1,
			authority: f.bobKey,
			wantErr:   errors.ErrAuthorization,
		},
		"owner did not sign": {
			amount:    1,
			authority: f.aliceKey.View(false, false),
			wantErr:   errors.ErrAuthorization,
		},
		"balance too low": {
			amount:    1001,
			authority: f.aliceKey,
			wantErr:   errors.ErrInsufficientAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			before := balance(t, f.alice)
			ix := NewTransferInstruction(p.ID(), f.alice.Key(), f.bob.Key(), tc.authority.Key(), tc.amount)
			err := run(t, p, ix, f.alice, f.bob, tc.authority)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				assert.Equal(t, before, balance(t, f.alice))
				return
			}
			assert.Equal(t, before-tc.amount, balance(t, f.alice))
		})
	}
	assert.Equal(t, uint64(600), balance(t, f.alice))
	assert.Equal(t, uint64(400), balance(t, f.bob))
}

func TestTransferMintMismatch(t *testing.T) {
	f := newFixture(t, NewProgram())
	g := newFixture(t, NewProgram())
	ix := NewTransferInstruction(f.p.ID(), f.alice.Key(), g.bob.Key(), f.aliceKey.Key(), 1)
	assert.IsErr(t, errors.ErrInput, run(t, f.p, ix, f.alice, g.bob, f.aliceKey))
}

func TestCloseAccount(t *testing.T) {
	f := newFixture(t, NewExtensibleProgram())
	p := f.p
	dest := signer()
	rent := f.bob.Lamports()

	// Accounts holding tokens cannot be closed.
	ix := NewCloseAccountInstruction(p.ID(), f.alice.Key(), dest.Key(), f.aliceKey.Key())
	assert.IsErr(t, errors.ErrInput, run(t, p, ix, f.alice, dest, f.aliceKey))

	ix = NewCloseAccountInstruction(p.ID(), f.bob.Key(), dest.Key(), f.aliceKey.Key())
	assert.IsErr(t, errors.ErrAuthorization, run(t, p, ix, f.bob, dest, f.aliceKey))

	ix = NewCloseAccountInstruction(p.ID(), f.bob.Key(), dest.Key(), f.bobKey.Key())
	assert.Nil(t, run(t, p, ix, f.bob, dest, f.bobKey))
	assert.Equal(t, rent, dest.Lamports())

	closed := f.bob.State()
	assert.Equal(t, uint64(0), closed.Lamports)
	assert.Equal(t, 0, len(closed.Data))
	assert.Equal(t, solana.SystemProgramID, closed.Owner)
}

func TestMintToAuthority(t *testing.T) {
	f := newFixture(t, NewProgram())
	ix := NewMintToInstruction(f.p.ID(), f.mint.Key(), f.bob.Key(), f.bobKey.Key(), 5)
	assert.IsErr(t, errors.ErrAuthorization, run(t, f.p, ix, f.mint, f.bob, f.bobKey))
}

func TestDecodeLayouts(t *testing.T) {
	delegate := newKey()
	acc := Account{
		Mint:            newKey(),
		Owner:           newKey(),
		Amount:          0x0102030405060708,
		Delegate:        &delegate,
		State:           Frozen,
		DelegatedAmount: 9,
	}
	data := acc.Encode()
	assert.Equal(t, AccountLen, len(data))
	assert.Equal(t, byte(0x08), data[64])
	assert.Equal(t, byte(Frozen), data[accountStateOffset])

	extended := append(append([]byte(nil), data...), AccountType)
	got, err := DecodeAccount(extended)
	assert.Nil(t, err)
	assert.Equal(t, acc, got)

	extended[TypeOffset] = MintType
	_, err = DecodeAccount(extended)
	assert.IsErr(t, errors.ErrData, err)

	mint := Mint{Supply: 10, IsInitialized: true}
	mdata := mint.Encode()
	assert.Equal(t, MintLen, len(mdata))
	assert.Equal(t, byte(1), mdata[mintInitializedOffset])

	tagged := make([]byte, ExtendedLen)
	copy(tagged, mdata)
	tagged[TypeOffset] = MintType
	gotMint, err := DecodeMint(tagged)
	assert.Nil(t, err)
	assert.Equal(t, mint, gotMint)

	tagged[TypeOffset] = AccountType
	_, err = DecodeMint(tagged)
	assert.IsErr(t, errors.ErrData, err)
	_, err = DecodeMint(mdata[:81])
	assert.IsErr(t, errors.ErrData, err)
}
