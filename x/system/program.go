package system

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// Program is the system service.
type Program struct{}

var _ swapvault.Program = Program{}

// NewProgram returns the system service.
func NewProgram() Program {
	return Program{}
}

// ID implements swapvault.Program.
func (Program) ID() solana.PublicKey {
	return ProgramID
}

// Process implements swapvault.Program.
func (p Program) Process(ctx context.Context, host swapvault.Invoker, accounts []*swapvault.AccountInfo, data []byte) error {
	msg, err := Unmarshal(data)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case CreateAccountMsg:
		if len(accounts) < 2 {
			return errors.Wrap(errors.ErrCardinality, "create account")
		}
		return createAccount(accounts[0], accounts[1], m)
	case TransferMsg:
		if len(accounts) < 2 {
			return errors.Wrap(errors.ErrCardinality, "transfer")
		}
		return transfer(accounts[0], accounts[1], m.Lamports)
	case AssignMsg:
		if len(accounts) < 1 {
			return errors.Wrap(errors.ErrCardinality, "assign")
		}
		return assign(accounts[0], m.Owner)
	case AllocateMsg:
		if len(accounts) < 1 {
			return errors.Wrap(errors.ErrCardinality, "allocate")
		}
		return allocate(accounts[0], m.Space)
	default:
		return errors.Wrapf(errors.ErrHuman, "unhandled message %T", msg)
	}
}

func createAccount(from, to *swapvault.AccountInfo, m CreateAccountMsg) error {
	if to.Lamports() > 0 {
		return errors.Wrapf(errors.ErrDuplicate, "account %s already in use", to.Key())
	}
	if err := allocate(to, m.Space); err != nil {
		return err
	}
	if err := assign(to, m.Owner); err != nil {
		return err
	}
	return transfer(from, to, m.Lamports)
}

func allocate(acc *swapvault.AccountInfo, space uint64) error {
	if !acc.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", acc.Key())
	}
	if !acc.DataIsEmpty() || !acc.IsOwnedBy(ProgramID) {
		return errors.Wrapf(errors.ErrDuplicate, "account %s already in use", acc.Key())
	}
	if space > swapvault.MaxAccountDataLen {
		return errors.Wrapf(errors.ErrInput, "space %d", space)
	}
	return acc.Realloc(int(space), true)
}

func assign(acc *swapvault.AccountInfo, owner solana.PublicKey) error {
	if acc.IsOwnedBy(owner) {
		return nil
	}
	if !acc.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", acc.Key())
	}
	if !acc.IsOwnedBy(ProgramID) {
		return errors.Wrapf(errors.ErrAuthorization, "%s is owned by %s", acc.Key(), acc.Owner())
	}
	return acc.Assign(owner)
}

func transfer(from, to *swapvault.AccountInfo, lamports uint64) error {
	if !from.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", from.Key())
	}
	if !from.DataIsEmpty() {
		return errors.Wrapf(errors.ErrInput, "%s carries data", from.Key())
	}
	if err := from.SubLamports(lamports); err != nil {
		return err
	}
	return to.AddLamports(lamports)
}
