package escrow

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/token"
)

// TakeAccountsLen is the number of accounts of a Take instruction.
const TakeAccountsLen = 12

// TakeAccounts are the validated accounts of a Take instruction.
type TakeAccounts struct {
	Taker         *swapvault.AccountInfo
	Maker         *swapvault.AccountInfo
	Escrow        *swapvault.AccountInfo
	MintA         *swapvault.AccountInfo
	MintB         *swapvault.AccountInfo
	Vault         *swapvault.AccountInfo
	TakerATAA     *swapvault.AccountInfo
	TakerATAB     *swapvault.AccountInfo
	MakerATAB     *swapvault.AccountInfo
	SystemProgram *swapvault.AccountInfo
	TokenProgram  *swapvault.AccountInfo
}

// NewTakeAccounts validates the accounts of a Take instruction: taker,
// maker, escrow, mint A, mint B, vault, taker token accounts of mint A and
// mint B, maker token account of mint B, system service, token service and
// one unused account.
//
// The taker token account of mint B pays and is checked here against the
// taker and mint B. The taker token account of mint A is not checked here:
// NewTake checks it later against the taker and mint A through
// InitAssociatedTokenIfNeeded, creating it when missing, and does the same
// for the maker token account of mint B.
func NewTakeAccounts(programID solana.PublicKey, accounts []*swapvault.AccountInfo) (*TakeAccounts, error) {
	if len(accounts) != TakeAccountsLen {
		return nil, errors.Wrapf(errors.ErrCardinality, "take takes %d accounts, got %d", TakeAccountsLen, len(accounts))
	}
	a := &TakeAccounts{
		Taker:         accounts[0],
		Maker:         accounts[1],
		Escrow:        accounts[2],
		MintA:         accounts[3],
		MintB:         accounts[4],
		Vault:         accounts[5],
		TakerATAA:     accounts[6],
		TakerATAB:     accounts[7],
		MakerATAB:     accounts[8],
		SystemProgram: accounts[9],
		TokenProgram:  accounts[10],
	}

	if err := CheckSigner(a.Taker); err != nil {
		return nil, errors.Wrap(err, "taker")
	}
	if err := CheckProgramAccount(programID, a.Escrow); err != nil {
		return nil, errors.Wrap(err, "escrow")
	}
	if _, err := CheckMint(a.MintA); err != nil {
		return nil, errors.Wrap(err, "mint a")
	}
	if _, err := CheckMint(a.MintB); err != nil {
		return nil, errors.Wrap(err, "mint b")
	}
	if err := CheckAssociatedToken(a.TakerATAB, a.Taker, a.MintB, a.TokenProgram); err != nil {
		return nil, errors.Wrap(err, "taker token account b")
	}
	if err := CheckAssociatedToken(a.Vault, a.Escrow, a.MintA, a.TokenProgram); err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	return a, nil
}

// Take fulfills an offer.
type Take struct {
	programID solana.PublicKey
	accounts  *TakeAccounts
}

// NewTake validates the accounts of a Take instruction and creates the
// token accounts receiving the swapped tokens when missing, paid by the
// taker.
func NewTake(ctx context.Context, host swapvault.Invoker, programID solana.PublicKey, accounts []*swapvault.AccountInfo) (*Take, error) {
	a, err := NewTakeAccounts(programID, accounts)
	if err != nil {
		return nil, err
	}
	if err := InitAssociatedTokenIfNeeded(ctx, host, a.TakerATAA, a.MintA, a.Taker, a.Taker, a.SystemProgram, a.TokenProgram); err != nil {
		return nil, errors.Wrap(err, "taker token account a")
	}
	if err := InitAssociatedTokenIfNeeded(ctx, host, a.MakerATAB, a.MintB, a.Taker, a.Maker, a.SystemProgram, a.TokenProgram); err != nil {
		return nil, errors.Wrap(err, "maker token account b")
	}
	return &Take{programID: programID, accounts: a}, nil
}

// Process swaps the tokens and closes the vault and the escrow record. The
// escrow data stays borrowed until the record is closed.
func (t *Take) Process(ctx context.Context, host swapvault.Invoker) error {
	a := t.accounts
	service := a.TokenProgram.Key()

	r, err := a.Escrow.TryBorrowData()
	if err != nil {
		return err
	}
	defer r.Release()
	record, err := DecodeEscrow(r.Bytes())
	if err != nil {
		return errors.Wrap(err, "escrow")
	}

	signer, err := swapvault.NewSigner(t.programID, a.Escrow.Key(), record.Seeds(a.Maker.Key())...)
	if err != nil {
		return errors.Wrapf(err, "escrow %s of maker %s", a.Escrow.Key(), a.Maker.Key())
	}
	if !record.MintA.Equals(a.MintA.Key()) || !record.MintB.Equals(a.MintB.Key()) {
		return errors.Wrapf(errors.ErrData, "escrow %s swaps %s for %s", a.Escrow.Key(), record.MintA, record.MintB)
	}

	amount, err := vaultAmount(a.Vault)
	if err != nil {
		return err
	}

	ix := token.NewTransferInstruction(service, a.Vault.Key(), a.TakerATAA.Key(), a.Escrow.Key(), amount)
	if err := host.Invoke(ctx, ix, []*swapvault.AccountInfo{a.Vault, a.TakerATAA, a.Escrow}, signer); err != nil {
		return errors.Wrap(err, "release vault")
	}

	ix = token.NewCloseAccountInstruction(service, a.Vault.Key(), a.Maker.Key(), a.Escrow.Key())
	if err := host.Invoke(ctx, ix, []*swapvault.AccountInfo{a.Vault, a.Maker, a.Escrow}, signer); err != nil {
		return errors.Wrap(err, "close vault")
	}

	ix = token.NewTransferInstruction(service, a.TakerATAB.Key(), a.MakerATAB.Key(), a.Taker.Key(), record.Receive)
	if err := host.Invoke(ctx, ix, []*swapvault.AccountInfo{a.TakerATAB, a.MakerATAB, a.Taker}); err != nil {
		return errors.Wrap(err, "pay maker")
	}

	r.Release()
	if err := CloseProgramAccount(a.Escrow, a.Taker); err != nil {
		return errors.Wrap(err, "close escrow")
	}

	swapvault.Log(ctx, "escrow %s taken by %s: %d of %s for %d of %s",
		a.Escrow.Key(), a.Taker.Key(), amount, record.MintA, record.Receive, record.MintB)
	return nil
}

func vaultAmount(vault *swapvault.AccountInfo) (uint64, error) {
	r, err := vault.TryBorrowData()
	if err != nil {
		return 0, err
	}
	defer r.Release()
	return token.AccountAmount(r.Bytes())
}
