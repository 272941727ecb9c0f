package swapvault

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Instruction is a call of a program with the accounts it may touch, in the
// order the program expects them, and its opaque data.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  solana.AccountMetaSlice
	Data      []byte
}

// NewInstruction is a helper to build an instruction.
func NewInstruction(programID solana.PublicKey, accounts solana.AccountMetaSlice, data []byte) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts:  accounts,
		Data:      data,
	}
}

// Invoker is the part of the host a program talks to while it executes.
type Invoker interface {
	// Invoke runs an instruction of another program within the current
	// transaction. accounts must contain every account the instruction
	// refers to, as given to the calling program. Each signer extends the
	// signature privilege of the caller to the address it signs for.
	//
	// A failure of the invoked program is returned as ErrExternalService
	// with the failure as its cause.
	Invoke(ctx context.Context, ix Instruction, accounts []*AccountInfo, signers ...Signer) error

	// Rent returns the rent the host charges.
	Rent() Rent
}

// Program is an on ledger program. Process is called with the accounts of
// the instruction, in instruction order, and the instruction data.
//
// A program must not keep references to accounts after Process returns.
type Program interface {
	ID() solana.PublicKey
	Process(ctx context.Context, host Invoker, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc struct {
	ProgramID solana.PublicKey
	Fn        func(ctx context.Context, host Invoker, accounts []*AccountInfo, data []byte) error
}

var _ Program = ProgramFunc{}

// ID implements Program.
func (p ProgramFunc) ID() solana.PublicKey { return p.ProgramID }

// Process implements Program.
func (p ProgramFunc) Process(ctx context.Context, host Invoker, accounts []*AccountInfo, data []byte) error {
	return p.Fn(ctx, host, accounts, data)
}

// FindAccount returns the first account with the given address.
func FindAccount(accounts []*AccountInfo, key solana.PublicKey) (*AccountInfo, bool) {
	for _, a := range accounts {
		if a.Key().Equals(key) {
			return a, true
		}
	}
	return nil, false
}
