package escrow

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/x/ata"
	"github.com/iov-one/swapvault/x/system"
)

// Offer describes a Make instruction to build.
type Offer struct {
	Maker        solana.PublicKey
	MintA        solana.PublicKey
	MintB        solana.PublicKey
	TokenProgram solana.PublicKey
	Seed         uint64
	// Amount of MintA deposited.
	Amount uint64
	// Receive is the amount of MintB asked for.
	Receive uint64
}

// NewMakeInstruction returns the instruction creating the offer, with the
// canonical escrow address. The unused last account is the associated token
// account service.
func NewMakeInstruction(programID solana.PublicKey, o Offer) (swapvault.Instruction, error) {
	escrow, bump, err := Address(programID, o.Maker, o.Seed)
	if err != nil {
		return swapvault.Instruction{}, err
	}
	msg := MakeMsg{Seed: o.Seed, Receive: o.Receive, Amount: o.Amount, Bump: bump}
	return swapvault.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(o.Maker, true, true),
		solana.NewAccountMeta(escrow, true, false),
		solana.NewAccountMeta(o.MintA, false, false),
		solana.NewAccountMeta(o.MintB, false, false),
		solana.NewAccountMeta(ata.MustAddress(o.Maker, o.TokenProgram, o.MintA), true, false),
		solana.NewAccountMeta(ata.MustAddress(escrow, o.TokenProgram, o.MintA), true, false),
		solana.NewAccountMeta(system.ProgramID, false, false),
		solana.NewAccountMeta(o.TokenProgram, false, false),
		solana.NewAccountMeta(ata.ProgramID, false, false),
	}, msg.Marshal()), nil
}

// NewTakeInstruction returns the instruction fulfilling the offer stored
// at escrow.
func NewTakeInstruction(programID, taker, maker, escrow, mintA, mintB, tokenProgram solana.PublicKey) swapvault.Instruction {
	return swapvault.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(taker, true, true),
		solana.NewAccountMeta(maker, true, false),
		solana.NewAccountMeta(escrow, true, false),
		solana.NewAccountMeta(mintA, false, false),
		solana.NewAccountMeta(mintB, false, false),
		solana.NewAccountMeta(ata.MustAddress(escrow, tokenProgram, mintA), true, false),
		solana.NewAccountMeta(ata.MustAddress(taker, tokenProgram, mintA), true, false),
		solana.NewAccountMeta(ata.MustAddress(taker, tokenProgram, mintB), true, false),
		solana.NewAccountMeta(ata.MustAddress(maker, tokenProgram, mintB), true, false),
		solana.NewAccountMeta(system.ProgramID, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
		solana.NewAccountMeta(ata.ProgramID, false, false),
	}, []byte{TakeDiscriminator})
}
