package escrow

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/token"
)

// MakeAccountsLen is the number of accounts of a Make instruction.
const MakeAccountsLen = 9

// MakeAccounts are the validated accounts of a Make instruction.
type MakeAccounts struct {
	Maker         *swapvault.AccountInfo
	Escrow        *swapvault.AccountInfo
	MintA         *swapvault.AccountInfo
	MintB         *swapvault.AccountInfo
	MakerATAA     *swapvault.AccountInfo
	Vault         *swapvault.AccountInfo
	SystemProgram *swapvault.AccountInfo
	TokenProgram  *swapvault.AccountInfo
}

// NewMakeAccounts validates the accounts of a Make instruction: maker,
// escrow, mint A, mint B, maker token account of mint A, vault, system
// service, token service and one unused account. Both mints must belong to
// the token service.
func NewMakeAccounts(accounts []*swapvault.AccountInfo) (*MakeAccounts, error) {
	if len(accounts) != MakeAccountsLen {
		return nil, errors.Wrapf(errors.ErrCardinality, "make takes %d accounts, got %d", MakeAccountsLen, len(accounts))
	}
	a := &MakeAccounts{
		Maker:         accounts[0],
		Escrow:        accounts[1],
		MintA:         accounts[2],
		MintB:         accounts[3],
		MakerATAA:     accounts[4],
		Vault:         accounts[5],
		SystemProgram: accounts[6],
		TokenProgram:  accounts[7],
	}

	if err := CheckSigner(a.Maker); err != nil {
		return nil, errors.Wrap(err, "maker")
	}
	mintA, err := CheckMint(a.MintA)
	if err != nil {
		return nil, errors.Wrap(err, "mint a")
	}
	mintB, err := CheckMint(a.MintB)
	if err != nil {
		return nil, errors.Wrap(err, "mint b")
	}
	// Take moves both tokens through the one token service of the offer.
	for _, m := range []Mint{mintA, mintB} {
		if m.TokenProgram() != a.TokenProgram.Key() {
			return nil, errors.Wrapf(errors.ErrData, "mint %s belongs to %s, not %s", m.Key(), m.TokenProgram(), a.TokenProgram.Key())
		}
	}
	if err := CheckAssociatedToken(a.MakerATAA, a.Maker, a.MintA, a.TokenProgram); err != nil {
		return nil, errors.Wrap(err, "maker token account")
	}
	return a, nil
}

// Make creates an offer.
type Make struct {
	programID solana.PublicKey
	accounts  *MakeAccounts
	msg       MakeMsg
}

// NewMake validates the accounts and the payload of a Make instruction.
func NewMake(programID solana.PublicKey, accounts []*swapvault.AccountInfo, payload []byte) (*Make, error) {
	msg, err := unmarshalMake(payload)
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	a, err := NewMakeAccounts(accounts)
	if err != nil {
		return nil, err
	}
	return &Make{programID: programID, accounts: a, msg: msg}, nil
}

// Process creates the escrow record and the vault, then moves the offered
// amount into the vault.
func (m *Make) Process(ctx context.Context, host swapvault.Invoker) error {
	a := m.accounts
	seeds := Seeds(a.Maker.Key(), m.msg.Seed, m.msg.Bump)
	if err := InitProgramAccount(ctx, host, m.programID, a.Maker, a.Escrow, EscrowLen, seeds...); err != nil {
		return errors.Wrap(err, "escrow")
	}
	if err := InitAssociatedToken(ctx, host, a.Vault, a.MintA, a.Maker, a.Escrow, a.SystemProgram, a.TokenProgram); err != nil {
		return errors.Wrap(err, "vault")
	}

	ix := token.NewTransferInstruction(a.TokenProgram.Key(), a.MakerATAA.Key(), a.Vault.Key(), a.Maker.Key(), m.msg.Amount)
	if err := host.Invoke(ctx, ix, []*swapvault.AccountInfo{a.MakerATAA, a.Vault, a.Maker}); err != nil {
		return errors.Wrap(err, "deposit")
	}

	w, err := a.Escrow.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer w.Release()
	record := Escrow{
		Seed:    m.msg.Seed,
		MintA:   a.MintA.Key(),
		MintB:   a.MintB.Key(),
		Receive: m.msg.Receive,
		Bump:    m.msg.Bump,
	}
	copy(w.Bytes(), record.Encode())

	swapvault.Log(ctx, "escrow %s: %d of %s for %d of %s",
		a.Escrow.Key(), m.msg.Amount, record.MintA, record.Receive, record.MintB)
	return nil
}
