package escrow

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
)

// CheckSigner fails unless the account signed the transaction.
func CheckSigner(acc *swapvault.AccountInfo) error {
	if !acc.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", acc.Key())
	}
	return nil
}

// CheckAssociatedToken fails unless account is the initialized associated
// token account of authority for mint under tokenProgram.
func CheckAssociatedToken(account, authority, mint, tokenProgram *swapvault.AccountInfo) error {
	service := tokenProgram.Key()
	if !token.IsTokenProgram(service) {
		return errors.Wrapf(errors.ErrAuthorization, "%s is not a token service", service)
	}
	if !account.IsOwnedBy(service) {
		return errors.Wrapf(errors.ErrAuthorization, "token account %s is owned by %s", account.Key(), account.Owner())
	}
	if err := checkTokenAccountLen(account, service); err != nil {
		return err
	}
	addr, _, err := ata.Address(authority.Key(), service, mint.Key())
	if err != nil {
		return errors.Wrap(errors.ErrData, err.Error())
	}
	if !addr.Equals(account.Key()) {
		return errors.Wrapf(errors.ErrData, "%s is not the token account of %s for %s", account.Key(), authority.Key(), mint.Key())
	}
	return nil
}

func checkTokenAccountLen(account *swapvault.AccountInfo, service solana.PublicKey) error {
	size := account.DataLen()
	if size == token.AccountLen {
		return nil
	}
	if !service.Equals(token.ExtensibleProgramID) || size <= token.TypeOffset {
		return errors.Wrapf(errors.ErrData, "token account %s of %d bytes", account.Key(), size)
	}
	r, err := account.TryBorrowData()
	if err != nil {
		return err
	}
	defer r.Release()
	if tag := r.Bytes()[token.TypeOffset]; tag != token.AccountType {
		return errors.Wrapf(errors.ErrData, "token account %s has account type %#x", account.Key(), tag)
	}
	return nil
}

// InitAssociatedToken creates account as the associated token account of
// owner for mint, paid by payer.
func InitAssociatedToken(
	ctx context.Context,
	host swapvault.Invoker,
	account, mint, payer, owner, systemProgram, tokenProgram *swapvault.AccountInfo,
) error {
	ix := ata.NewCreateAtInstruction(payer.Key(), account.Key(), owner.Key(), mint.Key(), tokenProgram.Key())
	accounts := []*swapvault.AccountInfo{payer, account, owner, mint, systemProgram, tokenProgram}
	return host.Invoke(ctx, ix, accounts)
}

// InitAssociatedTokenIfNeeded creates the associated token account unless
// CheckAssociatedToken accepts it. Any check failure leads to a creation
// attempt, so an account of the wrong mint or owner fails with whatever the
// associated token service reports.
func InitAssociatedTokenIfNeeded(
	ctx context.Context,
	host swapvault.Invoker,
	account, mint, payer, owner, systemProgram, tokenProgram *swapvault.AccountInfo,
) error {
	checkErr := CheckAssociatedToken(account, owner, mint, tokenProgram)
	if checkErr == nil {
		return nil
	}
	if err := InitAssociatedToken(ctx, host, account, mint, payer, owner, systemProgram, tokenProgram); err != nil {
		return errors.Wrapf(err, "create %s (%s)", account.Key(), checkErr)
	}
	return nil
}

// CheckProgramAccount fails unless the account is owned by programID.
func CheckProgramAccount(programID solana.PublicKey, acc *swapvault.AccountInfo) error {
	if !acc.IsOwnedBy(programID) {
		return errors.Wrapf(errors.ErrAuthorization, "%s is owned by %s", acc.Key(), acc.Owner())
	}
	return nil
}

// InitProgramAccount creates account with space bytes, owned by programID
// and funded by payer with the rent exempt minimum. The seeds must derive
// account under programID.
func InitProgramAccount(
	ctx context.Context,
	host swapvault.Invoker,
	programID solana.PublicKey,
	payer, account *swapvault.AccountInfo,
	space int,
	seeds ...[]byte,
) error {
	signer, err := swapvault.NewSigner(programID, account.Key(), seeds...)
	if err != nil {
		return err
	}
	lamports := host.Rent().MinimumBalance(space)
	ix := system.NewCreateAccountInstruction(payer.Key(), account.Key(), lamports, uint64(space), programID)
	return host.Invoke(ctx, ix, []*swapvault.AccountInfo{payer, account}, signer)
}

// CloseProgramAccount closes an account owned by the calling program. The
// tombstone is written before any lamport moves, then all lamports go to
// destination, the data shrinks to the tombstone and the account goes back
// to the system service.
func CloseProgramAccount(account, destination *swapvault.AccountInfo) error {
	if account.SameAccount(destination) {
		return errors.Wrapf(errors.ErrInput, "cannot close %s into itself", account.Key())
	}

	w, err := account.TryBorrowMutData()
	if err != nil {
		return err
	}
	data := w.Bytes()
	if len(data) == 0 {
		w.Release()
		return errors.Wrapf(errors.ErrData, "%s holds no data", account.Key())
	}
	data[0] = Tombstone
	w.Release()

	if err := destination.AddLamports(account.Lamports()); err != nil {
		return err
	}
	account.SetLamports(0)
	if err := account.Realloc(1, true); err != nil {
		return err
	}
	return account.Close()
}
