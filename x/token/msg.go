package token

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

const (
	tagTransfer           uint8 = 3
	tagMintTo             uint8 = 7
	tagCloseAccount       uint8 = 9
	tagInitializeAccount3 uint8 = 18
	tagInitializeMint2    uint8 = 20
)

// Msg is one of the instructions of the token service.
type Msg interface {
	tag() uint8
	encode(enc *bin.Encoder) error
}

// TransferMsg moves Amount tokens.
// Accounts: [source (writable), destination (writable), authority (signer)].
type TransferMsg struct {
	Amount uint64
}

// MintToMsg issues Amount new tokens.
// Accounts: [mint (writable), destination (writable), mint authority (signer)].
type MintToMsg struct {
	Amount uint64
}

// CloseAccountMsg closes an empty token account, releasing its lamports.
// Accounts: [account (writable), destination (writable), authority (signer)].
type CloseAccountMsg struct{}

// InitializeAccount3Msg initializes a token account for Owner.
// Accounts: [account (writable), mint].
type InitializeAccount3Msg struct {
	Owner solana.PublicKey
}

// InitializeMint2Msg initializes a mint.
// Accounts: [mint (writable)].
type InitializeMint2Msg struct {
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

func (TransferMsg) tag() uint8           { return tagTransfer }
func (MintToMsg) tag() uint8             { return tagMintTo }
func (CloseAccountMsg) tag() uint8       { return tagCloseAccount }
func (InitializeAccount3Msg) tag() uint8 { return tagInitializeAccount3 }
func (InitializeMint2Msg) tag() uint8    { return tagInitializeMint2 }

func (m TransferMsg) encode(enc *bin.Encoder) error {
	return enc.WriteUint64(m.Amount, binary.LittleEndian)
}

func (m MintToMsg) encode(enc *bin.Encoder) error {
	return enc.WriteUint64(m.Amount, binary.LittleEndian)
}

func (CloseAccountMsg) encode(enc *bin.Encoder) error {
	return nil
}

func (m InitializeAccount3Msg) encode(enc *bin.Encoder) error {
	return enc.WriteBytes(m.Owner[:], false)
}

// The freeze authority of an instruction is a one byte flag and a key,
// unlike the four byte tag of the stored layout.
func (m InitializeMint2Msg) encode(enc *bin.Encoder) error {
	if err := enc.WriteUint8(m.Decimals); err != nil {
		return err
	}
	if err := enc.WriteBytes(m.MintAuthority[:], false); err != nil {
		return err
	}
	if m.FreezeAuthority == nil {
		return enc.WriteUint8(0)
	}
	if err := enc.WriteUint8(1); err != nil {
		return err
	}
	return enc.WriteBytes(m.FreezeAuthority[:], false)
}

// Marshal returns the instruction data of the message.
func Marshal(m Msg) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	if err := enc.WriteUint8(m.tag()); err != nil {
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
	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "instruction tag")
	}

	var msg Msg
	switch tag {
	case tagTransfer:
		var m TransferMsg
		m.Amount, err = dec.ReadUint64(binary.LittleEndian)
		msg = m
	case tagMintTo:
		var m MintToMsg
		m.Amount, err = dec.ReadUint64(binary.LittleEndian)
		msg = m
	case tagCloseAccount:
		msg = CloseAccountMsg{}
	case tagInitializeAccount3:
		var m InitializeAccount3Msg
		m.Owner, err = readKey(dec)
		msg = m
	case tagInitializeMint2:
		msg, err = decodeInitializeMint2(dec)
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

func decodeInitializeMint2(dec *bin.Decoder) (Msg, error) {
	var (
		m   InitializeMint2Msg
		err error
	)
	if m.Decimals, err = dec.ReadUint8(); err != nil {
		return nil, err
	}
	if m.MintAuthority, err = readKey(dec); err != nil {
		return nil, err
	}
	some, err := readBool(dec)
	if err != nil {
		return nil, err
	}
	if some {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		m.FreezeAuthority = &key
	}
	return m, nil
}

func instruction(programID solana.PublicKey, m Msg, accounts ...*solana.AccountMeta) swapvault.Instruction {
	data, err := Marshal(m)
	if err != nil {
		panic(err)
	}
	return swapvault.NewInstruction(programID, accounts, data)
}

// NewTransferInstruction returns an instruction moving amount tokens from
// source to destination, signed by the source authority.
func NewTransferInstruction(programID, source, destination, authority solana.PublicKey, amount uint64) swapvault.Instruction {
	return instruction(programID, TransferMsg{Amount: amount},
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(authority, false, true),
	)
}

// NewMintToInstruction returns an instruction issuing amount tokens into
// destination.
func NewMintToInstruction(programID, mint, destination, authority solana.PublicKey, amount uint64) swapvault.Instruction {
	return instruction(programID, MintToMsg{Amount: amount},
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(authority, false, true),
	)
}

// NewCloseAccountInstruction returns an instruction closing an empty token
// account and crediting its lamports to destination.
func NewCloseAccountInstruction(programID, account, destination, authority solana.PublicKey) swapvault.Instruction {
	return instruction(programID, CloseAccountMsg{},
		solana.NewAccountMeta(account, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(authority, false, true),
	)
}

// NewInitializeAccount3Instruction returns an instruction initializing a
// token account of mint for owner.
func NewInitializeAccount3Instruction(programID, account, mint, owner solana.PublicKey) swapvault.Instruction {
	return instruction(programID, InitializeAccount3Msg{Owner: owner},
		solana.NewAccountMeta(account, true, false),
		solana.NewAccountMeta(mint, false, false),
	)
}

// NewInitializeMint2Instruction returns an instruction initializing a mint.
func NewInitializeMint2Instruction(programID, mint solana.PublicKey, decimals uint8, authority solana.PublicKey, freeze *solana.PublicKey) swapvault.Instruction {
	return instruction(programID, InitializeMint2Msg{
		Decimals:        decimals,
		MintAuthority:   authority,
		FreezeAuthority: freeze,
	}, solana.NewAccountMeta(mint, true, false))
}
