package escrow

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// Program is the escrow program. Its address is fixed at construction.
type Program struct {
	id solana.PublicKey
}

var _ swapvault.Program = Program{}

// NewProgram returns the escrow program deployed at id.
func NewProgram(id solana.PublicKey) Program {
	return Program{id: id}
}

// ID implements swapvault.Program.
func (p Program) ID() solana.PublicKey {
	return p.id
}

// Process implements swapvault.Program.
func (p Program) Process(ctx context.Context, host swapvault.Invoker, accounts []*swapvault.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return errors.Wrap(errors.ErrInput, "missing instruction discriminator")
	}
	ctx = swapvault.WithLogInfo(ctx, "module", "escrow")

	switch data[0] {
	case MakeDiscriminator:
		swapvault.Log(ctx, "Instruction: Make")
		m, err := NewMake(p.id, accounts, data[1:])
		if err != nil {
			return err
		}
		return m.Process(ctx, host)
	case TakeDiscriminator:
		swapvault.Log(ctx, "Instruction: Take")
		if len(data) != 1 {
			return errors.Wrapf(errors.ErrInput, "take payload of %d bytes", len(data)-1)
		}
		t, err := NewTake(ctx, host, p.id, accounts)
		if err != nil {
			return err
		}
		return t.Process(ctx, host)
	default:
		return errors.Wrapf(errors.ErrInput, "unknown instruction %d", data[0])
	}
}
