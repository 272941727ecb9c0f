/*
Package ata implements the associated token account service. An associated
token account is the canonical token account of a wallet for a mint, kept at
an address derived from the wallet, the token service and the mint. Anybody
may pay for its creation; the account always belongs to the wallet.
*/
package ata

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/system"
	"github.com/iov-one/swapvault/x/token"
)

// ProgramID is the address of the associated token account service.
var ProgramID = solana.SPLAssociatedTokenAccountProgramID

const (
	tagCreate           byte = 0
	tagCreateIdempotent byte = 1
)

// Address returns the associated token account of wallet for mint under the
// given token service, together with the derivation bump.
func Address(wallet, tokenProgram, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return swapvault.FindProgramAddress(ProgramID, wallet[:], tokenProgram[:], mint[:])
}

// MustAddress is Address for keys known to have a derivation. It panics
// otherwise.
func MustAddress(wallet, tokenProgram, mint solana.PublicKey) solana.PublicKey {
	addr, _, err := Address(wallet, tokenProgram, mint)
	if err != nil {
		panic(err)
	}
	return addr
}

// NewCreateInstruction returns an instruction creating the associated token
// account of wallet. It fails if the account exists.
func NewCreateInstruction(payer, wallet, mint, tokenProgram solana.PublicKey) swapvault.Instruction {
	return newInstruction(nil, payer, MustAddress(wallet, tokenProgram, mint), wallet, mint, tokenProgram)
}

// NewCreateAtInstruction is NewCreateInstruction for an account address
// given by the caller. The service refuses to create it unless it is the
// associated token account of wallet.
func NewCreateAtInstruction(payer, account, wallet, mint, tokenProgram solana.PublicKey) swapvault.Instruction {
	return newInstruction(nil, payer, account, wallet, mint, tokenProgram)
}

// NewCreateIdempotentInstruction returns an instruction creating the
// associated token account of wallet unless it already exists.
func NewCreateIdempotentInstruction(payer, wallet, mint, tokenProgram solana.PublicKey) swapvault.Instruction {
	return newInstruction([]byte{tagCreateIdempotent}, payer, MustAddress(wallet, tokenProgram, mint), wallet, mint, tokenProgram)
}

func newInstruction(data []byte, payer, account, wallet, mint, tokenProgram solana.PublicKey) swapvault.Instruction {
	return swapvault.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(account, true, false),
		solana.NewAccountMeta(wallet, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(system.ProgramID, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}, data)
}

// Program is the associated token account service.
type Program struct{}

var _ swapvault.Program = Program{}

// NewProgram returns the associated token account service.
func NewProgram() Program {
	return Program{}
}

// ID implements swapvault.Program.
func (Program) ID() solana.PublicKey {
	return ProgramID
}

// Process implements swapvault.Program.
//
// Accounts: [payer (writable, signer), associated account (writable),
// wallet, mint, system service, token service].
func (p Program) Process(ctx context.Context, host swapvault.Invoker, accounts []*swapvault.AccountInfo, data []byte) error {
	idempotent := false
	switch {
	case len(data) == 0 || (len(data) == 1 && data[0] == tagCreate):
	case len(data) == 1 && data[0] == tagCreateIdempotent:
		idempotent = true
	default:
		return errors.Wrap(errors.ErrInput, "unknown instruction")
	}
	if len(accounts) < 6 {
		return errors.Wrap(errors.ErrCardinality, "create")
	}
	payer, account, wallet, mint, tokenProgram := accounts[0], accounts[1], accounts[2], accounts[3], accounts[5]

	if !token.IsTokenProgram(tokenProgram.Key()) {
		return errors.Wrapf(errors.ErrInput, "%s is not a token service", tokenProgram.Key())
	}
	addr, bump, err := Address(wallet.Key(), tokenProgram.Key(), mint.Key())
	if err != nil {
		return err
	}
	if !addr.Equals(account.Key()) {
		return errors.Wrapf(errors.ErrInput, "associated address of %s is %s, not %s",
			wallet.Key(), addr, account.Key())
	}

	if idempotent && account.IsOwnedBy(tokenProgram.Key()) {
		if a, err := readAccount(account); err == nil && a.Owner.Equals(wallet.Key()) && a.Mint.Equals(mint.Key()) {
			return nil
		}
	}
	if !account.IsOwnedBy(system.ProgramID) {
		return errors.Wrapf(errors.ErrDuplicate, "%s is owned by %s", account.Key(), account.Owner())
	}

	signer, err := swapvault.NewSigner(ProgramID, addr,
		wallet.Key().Bytes(), tokenProgram.Key().Bytes(), mint.Key().Bytes(), []byte{bump})
	if err != nil {
		return errors.Wrap(err, "associated signer")
	}
	size := token.AccountSize(tokenProgram.Key())
	if err := p.allocate(ctx, host, accounts, payer, account, tokenProgram.Key(), size, signer); err != nil {
		return err
	}
	ix := token.NewInitializeAccount3Instruction(tokenProgram.Key(), account.Key(), mint.Key(), wallet.Key())
	return host.Invoke(ctx, ix, accounts)
}

// allocate creates the account owned by the token service. An account that
// already received lamports cannot be created by the system service, it is
// topped up, allocated and assigned instead.
func (p Program) allocate(
	ctx context.Context,
	host swapvault.Invoker,
	accounts []*swapvault.AccountInfo,
	payer, account *swapvault.AccountInfo,
	owner solana.PublicKey,
	size int,
	signer swapvault.Signer,
) error {
	required := host.Rent().MinimumBalance(size)
	if account.Lamports() == 0 {
		ix := system.NewCreateAccountInstruction(payer.Key(), account.Key(), required, uint64(size), owner)
		return host.Invoke(ctx, ix, accounts, signer)
	}

	if account.Lamports() < required {
		ix := system.NewTransferInstruction(payer.Key(), account.Key(), required-account.Lamports())
		if err := host.Invoke(ctx, ix, accounts); err != nil {
			return err
		}
	}
	if err := host.Invoke(ctx, system.NewAllocateInstruction(account.Key(), uint64(size)), accounts, signer); err != nil {
		return err
	}
	return host.Invoke(ctx, system.NewAssignInstruction(account.Key(), owner), accounts, signer)
}

func readAccount(acc *swapvault.AccountInfo) (token.Account, error) {
	r, err := acc.TryBorrowData()
	if err != nil {
		return token.Account{}, err
	}
	defer r.Release()
	return token.DecodeAccount(r.Bytes())
}
