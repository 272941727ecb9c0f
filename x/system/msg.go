package system

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// ProgramID is the address of the system service.
var ProgramID = solana.SystemProgramID

const (
	tagCreateAccount uint32 = 0
	tagAssign        uint32 = 1
	tagTransfer      uint32 = 2
	tagAllocate      uint32 = 8
)

// Msg is one of the instructions of the system service.
type Msg interface {
	tag() uint32
	encode(enc *bin.Encoder) error
}

// CreateAccountMsg funds a new account, allocates its data and assigns it
// to Owner. Accounts: [from (writable, signer), new (writable, signer)].
type CreateAccountMsg struct {
	Lamports uint64
	Space    uint64
	Owner    solana.PublicKey
}

// AssignMsg hands an account over to Owner.
// Accounts: [account (writable, signer)].
type AssignMsg struct {
	Owner solana.PublicKey
}

// TransferMsg moves lamports between wallets.
// Accounts: [from (writable, signer), to (writable)].
type TransferMsg struct {
	Lamports uint64
}

// AllocateMsg sizes the data of an account that holds none yet.
// Accounts: [account (writable, signer)].
type AllocateMsg struct {
	Space uint64
}

func (CreateAccountMsg) tag() uint32 { return tagCreateAccount }
func (AssignMsg) tag() uint32        { return tagAssign }
func (TransferMsg) tag() uint32      { return tagTransfer }
func (AllocateMsg) tag() uint32      { return tagAllocate }

func (m CreateAccountMsg) encode(enc *bin.Encoder) error {
	if err := enc.WriteUint64(m.Lamports, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(m.Space, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBytes(m.Owner[:], false)
}

func (m AssignMsg) encode(enc *bin.Encoder) error {
	return enc.WriteBytes(m.Owner[:], false)
}

func (m TransferMsg) encode(enc *bin.Encoder) error {
	return enc.WriteUint64(m.Lamports, binary.LittleEndian)
}

func (m AllocateMsg) encode(enc *bin.Encoder) error {
	return enc.WriteUint64(m.Space, binary.LittleEndian)
}

// Marshal returns the instruction data of the message.
func Marshal(m Msg) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	if err := enc.WriteUint32(m.tag(), binary.LittleEndian); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := m.encode(enc); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes instruction data. Trailing bytes are rejected.
func Unmarshal(data []byte) (Msg, error) {
	dec := bin.NewBinDecoder(data)
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "instruction tag")
	}

	var msg Msg
	switch tag {
	case tagCreateAccount:
		var m CreateAccountMsg
		if m.Lamports, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			break
		}
		if m.Space, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			break
		}
		m.Owner, err = readKey(dec)
		msg = m
	case tagAssign:
		var m AssignMsg
		m.Owner, err = readKey(dec)
		msg = m
	case tagTransfer:
		var m TransferMsg
		m.Lamports, err = dec.ReadUint64(binary.LittleEndian)
		msg = m
	case tagAllocate:
		var m AllocateMsg
		m.Space, err = dec.ReadUint64(binary.LittleEndian)
		msg = m
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown instruction %d", tag)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "instruction %d: %s", tag, err)
	}
	if dec.Remaining() != 0 {
		return nil, errors.Wrapf(errors.ErrInput, "instruction %d: %d trailing bytes", tag, dec.Remaining())
	}
	return msg, nil
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

func instruction(m Msg, accounts ...*solana.AccountMeta) swapvault.Instruction {
	data, err := Marshal(m)
	if err != nil {
		// All messages are fixed size, encoding into a buffer cannot fail.
		panic(err)
	}
	return swapvault.NewInstruction(ProgramID, accounts, data)
}

// NewCreateAccountInstruction returns an instruction creating account to,
// funded by from and owned by owner.
func NewCreateAccountInstruction(from, to solana.PublicKey, lamports, space uint64, owner solana.PublicKey) swapvault.Instruction {
	return instruction(CreateAccountMsg{Lamports: lamports, Space: space, Owner: owner},
		solana.NewAccountMeta(from, true, true),
		solana.NewAccountMeta(to, true, true),
	)
}

// NewTransferInstruction returns an instruction moving lamports.
func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) swapvault.Instruction {
	return instruction(TransferMsg{Lamports: lamports},
		solana.NewAccountMeta(from, true, true),
		solana.NewAccountMeta(to, true, false),
	)
}

// NewAssignInstruction returns an instruction handing account over to owner.
func NewAssignInstruction(account, owner solana.PublicKey) swapvault.Instruction {
	return instruction(AssignMsg{Owner: owner},
		solana.NewAccountMeta(account, true, true),
	)
}

// NewAllocateInstruction returns an instruction sizing the data of account.
func NewAllocateInstruction(account solana.PublicKey, space uint64) swapvault.Instruction {
	return instruction(AllocateMsg{Space: space},
		solana.NewAccountMeta(account, true, true),
	)
}
