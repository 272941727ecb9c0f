package escrow

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/swapvault/errors"
)

// Instruction discriminators, the first byte of the instruction data.
const (
	MakeDiscriminator uint8 = 0
	TakeDiscriminator uint8 = 1
)

// MakeMsg is the payload of a Make instruction.
type MakeMsg struct {
	Seed    uint64
	Receive uint64
	Amount  uint64
	Bump    uint8
}

// makeMsgLen is the encoded payload size, without the discriminator.
const makeMsgLen = 8 + 8 + 8 + 1

// Validate makes sure the offer is worth storing.
func (m MakeMsg) Validate() error {
	var err error
	if m.Receive == 0 {
		err = errors.AppendField(err, "Receive", errors.ErrData)
	}
	if m.Amount == 0 {
		err = errors.AppendField(err, "Amount", errors.ErrData)
	}
	return err
}

// Marshal returns the instruction data of a Make.
func (m MakeMsg) Marshal() []byte {
	var buf bytes.Buffer
	buf.Grow(1 + makeMsgLen)
	enc := bin.NewBinEncoder(&buf)
	_ = enc.WriteUint8(MakeDiscriminator)
	_ = enc.WriteUint64(m.Seed, binary.LittleEndian)
	_ = enc.WriteUint64(m.Receive, binary.LittleEndian)
	_ = enc.WriteUint64(m.Amount, binary.LittleEndian)
	_ = enc.WriteUint8(m.Bump)
	return buf.Bytes()
}

func unmarshalMake(payload []byte) (MakeMsg, error) {
	var m MakeMsg
	if len(payload) != makeMsgLen {
		return m, errors.Wrapf(errors.ErrInput, "make payload of %d bytes", len(payload))
	}
	dec := bin.NewBinDecoder(payload)
	var err error
	if m.Seed, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return m, errors.Wrap(errors.ErrInput, err.Error())
	}
	if m.Receive, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return m, errors.Wrap(errors.ErrInput, err.Error())
	}
	if m.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return m, errors.Wrap(errors.ErrInput, err.Error())
	}
	if m.Bump, err = dec.ReadUint8(); err != nil {
		return m, errors.Wrap(errors.ErrInput, err.Error())
	}
	return m, nil
}
