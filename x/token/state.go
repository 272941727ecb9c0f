package token

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
)

var (
	// ProgramID is the legacy token service.
	ProgramID = solana.TokenProgramID

	// ExtensibleProgramID is the extensible token service.
	ExtensibleProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

const (
	// MintLen is the size of a mint without extensions.
	MintLen = 82
	// AccountLen is the size of a token account without extensions.
	AccountLen = 165

	// TypeOffset is the position of the type tag of extensible layouts.
	TypeOffset = 165
	// MintType tags an extensible mint.
	MintType byte = 0x01
	// AccountType tags an extensible token account.
	AccountType byte = 0x02

	// ExtendedLen is the size of extensible mints and accounts that carry
	// the type tag and no extension.
	ExtendedLen = TypeOffset + 1

	accountStateOffset    = 108
	mintInitializedOffset = 45
)

// IsTokenProgram returns true for both variants of the token service.
func IsTokenProgram(id solana.PublicKey) bool {
	return id.Equals(ProgramID) || id.Equals(ExtensibleProgramID)
}

// AccountState is the state of a token account.
type AccountState uint8

const (
	Uninitialized AccountState = iota
	Initialized
	Frozen
)

// Mint describes an asset.
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// Account holds the balance of one owner for one mint.
type Account struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

// DecodeMint decodes the mint layout. Extensible mints are accepted in both
// their 82 byte and their tagged form.
func DecodeMint(data []byte) (Mint, error) {
	var m Mint
	switch {
	case len(data) == MintLen:
	case len(data) > TypeOffset && data[TypeOffset] == MintType:
	default:
		return m, errors.Wrapf(errors.ErrData, "mint of %d bytes", len(data))
	}

	dec := bin.NewBinDecoder(data[:MintLen])
	var err error
	if m.MintAuthority, err = readOptionalKey(dec); err != nil {
		return m, errors.Wrap(errors.ErrData, err.Error())
	}
	if m.Supply, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return m, errors.Wrap(errors.ErrData, err.Error())
	}
	if m.Decimals, err = dec.ReadUint8(); err != nil {
		return m, errors.Wrap(errors.ErrData, err.Error())
	}
	if m.IsInitialized, err = readBool(dec); err != nil {
		return m, errors.Wrap(errors.ErrData, err.Error())
	}
	if m.FreezeAuthority, err = readOptionalKey(dec); err != nil {
		return m, errors.Wrap(errors.ErrData, err.Error())
	}
	return m, nil
}

// Encode returns the 82 byte legacy layout of the mint.
func (m Mint) Encode() []byte {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	mustWrite(writeOptionalKey(enc, m.MintAuthority))
	mustWrite(enc.WriteUint64(m.Supply, binary.LittleEndian))
	mustWrite(enc.WriteUint8(m.Decimals))
	mustWrite(enc.WriteBool(m.IsInitialized))
	mustWrite(writeOptionalKey(enc, m.FreezeAuthority))
	return buf.Bytes()
}

// DecodeAccount decodes the token account layout. Extensible accounts must
// carry the account type tag.
func DecodeAccount(data []byte) (Account, error) {
	var a Account
	switch {
	case len(data) == AccountLen:
	case len(data) > TypeOffset && data[TypeOffset] == AccountType:
	default:
		return a, errors.Wrapf(errors.ErrData, "token account of %d bytes", len(data))
	}

	dec := bin.NewBinDecoder(data[:AccountLen])
	var err error
	if a.Mint, err = readKey(dec); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	if a.Owner, err = readKey(dec); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	if a.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	if a.Delegate, err = readOptionalKey(dec); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	state, err := dec.ReadUint8()
	if err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	if state > uint8(Frozen) {
		return a, errors.Wrapf(errors.ErrData, "account state %d", state)
	}
	a.State = AccountState(state)
	if a.IsNative, err = readOptionalUint64(dec); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	if a.DelegatedAmount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	if a.CloseAuthority, err = readOptionalKey(dec); err != nil {
		return a, errors.Wrap(errors.ErrData, err.Error())
	}
	return a, nil
}

// Encode returns the 165 byte legacy layout of the account.
func (a Account) Encode() []byte {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	mustWrite(enc.WriteBytes(a.Mint[:], false))
	mustWrite(enc.WriteBytes(a.Owner[:], false))
	mustWrite(enc.WriteUint64(a.Amount, binary.LittleEndian))
	mustWrite(writeOptionalKey(enc, a.Delegate))
	mustWrite(enc.WriteUint8(uint8(a.State)))
	mustWrite(writeOptionalUint64(enc, a.IsNative))
	mustWrite(enc.WriteUint64(a.DelegatedAmount, binary.LittleEndian))
	mustWrite(writeOptionalKey(enc, a.CloseAuthority))
	return buf.Bytes()
}

// AccountAmount returns the balance stored in a token account.
func AccountAmount(data []byte) (uint64, error) {
	a, err := DecodeAccount(data)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// mustWrite panics on encoding failures. Writing into a bytes.Buffer only
// fails when running out of memory.
func mustWrite(err error) {
	if err != nil {
		panic(err)
	}
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

func readBool(dec *bin.Decoder) (bool, error) {
	b, err := dec.ReadUint8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.ErrData.Newf("bool value %d", b)
	}
}

// Optional values are stored with a u32 presence tag and a fixed size
// payload that is zero when absent.

func readOptionalKey(dec *bin.Decoder) (*solana.PublicKey, error) {
	some, err := readOptionTag(dec)
	if err != nil {
		return nil, err
	}
	key, err := readKey(dec)
	if err != nil || !some {
		return nil, err
	}
	return &key, nil
}

func readOptionalUint64(dec *bin.Decoder) (*uint64, error) {
	some, err := readOptionTag(dec)
	if err != nil {
		return nil, err
	}
	v, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil || !some {
		return nil, err
	}
	return &v, nil
}

func readOptionTag(dec *bin.Decoder) (bool, error) {
	tag, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.ErrData.Newf("option tag %d", tag)
	}
}

func writeOptionalKey(enc *bin.Encoder, key *solana.PublicKey) error {
	if key == nil {
		if err := enc.WriteUint32(0, binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteBytes(make([]byte, solana.PublicKeyLength), false)
	}
	if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBytes(key[:], false)
}

func writeOptionalUint64(enc *bin.Encoder, v *uint64) error {
	if v == nil {
		if err := enc.WriteUint32(0, binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteUint64(0, binary.LittleEndian)
	}
	if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint64(*v, binary.LittleEndian)
}

// AccountSize returns the size of a new token account of the given token
// service.
func AccountSize(programID solana.PublicKey) int {
	if programID.Equals(ExtensibleProgramID) {
		return ExtendedLen
	}
	return AccountLen
}
