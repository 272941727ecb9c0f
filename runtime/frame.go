package runtime

import (
	"bytes"
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// MaxCallDepth limits nested invocations. The top level instruction runs at
// depth 1.
const MaxCallDepth = 4

// frame is the execution of one program on one instruction. It is the
// Invoker handed to that program.
type frame struct {
	rt       *Runtime
	program  solana.PublicKey
	depth    int
	accounts []*swapvault.AccountInfo
	pre      map[solana.PublicKey]*preState
	order    []solana.PublicKey
}

type preState struct {
	view     *swapvault.AccountInfo
	state    swapvault.AccountState
	writable bool
	signer   bool
}

var _ swapvault.Invoker = (*frame)(nil)

func newFrame(rt *Runtime, program solana.PublicKey, depth int, accounts []*swapvault.AccountInfo) *frame {
	f := &frame{
		rt:       rt,
		program:  program,
		depth:    depth,
		accounts: accounts,
		pre:      make(map[solana.PublicKey]*preState),
	}
	for _, a := range accounts {
		if p, ok := f.pre[a.Key()]; ok {
			p.writable = p.writable || a.IsWritable()
			p.signer = p.signer || a.IsSigner()
			continue
		}
		f.pre[a.Key()] = &preState{
			view:     a,
			state:    a.State(),
			writable: a.IsWritable(),
			signer:   a.IsSigner(),
		}
		f.order = append(f.order, a.Key())
	}
	return f
}

// Rent implements swapvault.Invoker.
func (f *frame) Rent() swapvault.Rent {
	return f.rt.rent
}

// run executes the program in this frame and checks what it changed.
func (f *frame) run(ctx context.Context, prog swapvault.Program, data []byte) (err error) {
	defer errors.Recover(&err)

	swapvault.Log(ctx, "Program %s invoke [%d]", f.program, f.depth)
	if err = prog.Process(ctx, f, f.accounts, data); err == nil {
		err = f.verify()
	}
	if err != nil {
		swapvault.Log(ctx, "Program %s failed: %s", f.program, err)
		return err
	}
	swapvault.Log(ctx, "Program %s success", f.program)
	return nil
}

// Invoke implements swapvault.Invoker.
func (f *frame) Invoke(ctx context.Context, ix swapvault.Instruction, accounts []*swapvault.AccountInfo, signers ...swapvault.Signer) error {
	if f.depth >= MaxCallDepth {
		return errors.Wrapf(errors.ErrInput, "call depth %d exceeded", MaxCallDepth)
	}
	prog, ok := f.rt.programs[ix.ProgramID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "program %s", ix.ProgramID)
	}

	// Changes made so far belong to the caller.
	if err := f.verify(); err != nil {
		return err
	}

	signed := make(map[solana.PublicKey]bool)
	for _, s := range signers {
		if err := s.Verify(f.program); err != nil {
			return err
		}
		signed[s.Address()] = true
	}

	// Privileges come from this frame, not from the views the program
	// passes, which it could have widened itself.
	views := make([]*swapvault.AccountInfo, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		p, ok := f.pre[m.PublicKey]
		if !ok {
			return errors.Wrapf(errors.ErrNotFound, "account %s not available to %s", m.PublicKey, f.program)
		}
		if _, ok := swapvault.FindAccount(accounts, m.PublicKey); !ok {
			return errors.Wrapf(errors.ErrNotFound, "account %s not provided", m.PublicKey)
		}
		if m.IsWritable && !p.writable {
			return errors.Wrapf(errors.ErrAuthorization, "%s is not writable", m.PublicKey)
		}
		if m.IsSigner && !p.signer && !signed[m.PublicKey] {
			return errors.Wrapf(errors.ErrAuthorization, "%s did not sign", m.PublicKey)
		}
		if !p.view.CanBorrow(m.IsWritable) {
			return errors.Wrapf(errors.ErrBorrow, "%s is borrowed by the caller", m.PublicKey)
		}
		views = append(views, p.view.View(m.IsSigner, m.IsWritable))
	}

	callee := newFrame(f.rt, ix.ProgramID, f.depth+1, views)
	if err := callee.run(ctx, prog, ix.Data); err != nil {
		return errors.External(f.rt.serviceName(ix.ProgramID), err)
	}

	// Changes made by the callee are not the caller's.
	for _, v := range views {
		if p, ok := f.pre[v.Key()]; ok {
			p.state = p.view.State()
		}
	}
	return nil
}

// verify checks that the program of this frame only changed what it may:
// only the owner of an account changes its data or owner or debits it,
// read-only and executable accounts never change and no lamports are
// created or destroyed.
func (f *frame) verify() error {
	var before, after uint64
	for _, key := range f.order {
		p := f.pre[key]
		cur := p.view.State()
		pre := p.state

		if before+pre.Lamports < before || after+cur.Lamports < after {
			return errors.Wrap(errors.ErrOverflow, "lamport sum")
		}
		before += pre.Lamports
		after += cur.Lamports

		changed := !pre.Owner.Equals(cur.Owner) ||
			pre.Lamports != cur.Lamports ||
			pre.Executable != cur.Executable ||
			!bytes.Equal(pre.Data, cur.Data)
		if !changed {
			continue
		}
		if !p.writable || pre.Executable {
			return errors.Wrapf(errors.ErrAuthorization, "%s modified a read-only account %s", f.program, key)
		}
		if pre.Executable != cur.Executable {
			return errors.Wrapf(errors.ErrAuthorization, "%s changed executable flag of %s", f.program, key)
		}
		owned := pre.Owner.Equals(f.program)
		if !pre.Owner.Equals(cur.Owner) && !owned {
			return errors.Wrapf(errors.ErrAuthorization, "%s reassigned %s it does not own", f.program, key)
		}
		if !bytes.Equal(pre.Data, cur.Data) && !owned {
			return errors.Wrapf(errors.ErrAuthorization, "%s modified data of %s it does not own", f.program, key)
		}
		if cur.Lamports < pre.Lamports && !owned {
			return errors.Wrapf(errors.ErrAuthorization, "%s debited %s it does not own", f.program, key)
		}
	}
	if before != after {
		return errors.Wrapf(errors.ErrAuthorization, "%s changed the lamport total from %d to %d", f.program, before, after)
	}
	return nil
}
