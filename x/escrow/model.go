package escrow

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// EscrowLen is the size of the stored escrow record.
const EscrowLen = 8 + 32 + 32 + 8 + 1

// Tombstone is written to the first data byte of a closed program account.
const Tombstone byte = 0xFF

// escrowSeed is the first derivation seed of every escrow address.
var escrowSeed = []byte("escrow")

// Escrow is the stored offer.
type Escrow struct {
	// Seed is chosen by the maker so that one maker can have many offers.
	Seed  uint64
	MintA solana.PublicKey
	MintB solana.PublicKey
	// Receive is the amount of MintB the maker wants.
	Receive uint64
	Bump    uint8
}

// Encode returns the stored form of the record: seed, mint A, mint B,
// receive and bump, integers little endian.
func (e Escrow) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(EscrowLen)
	enc := bin.NewBinEncoder(&buf)
	// Writes to a bytes.Buffer cannot fail.
	_ = enc.WriteUint64(e.Seed, binary.LittleEndian)
	_ = enc.WriteBytes(e.MintA[:], false)
	_ = enc.WriteBytes(e.MintB[:], false)
	_ = enc.WriteUint64(e.Receive, binary.LittleEndian)
	_ = enc.WriteUint8(e.Bump)
	return buf.Bytes()
}

// DecodeEscrow reads a stored record. Anything that is not exactly
// EscrowLen bytes, a closed record included, is rejected.
func DecodeEscrow(data []byte) (Escrow, error) {
	var e Escrow
	if len(data) != EscrowLen {
		return e, errors.Wrapf(errors.ErrData, "escrow record of %d bytes", len(data))
	}
	dec := bin.NewBinDecoder(data)
	var err error
	if e.Seed, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return e, errors.Wrap(errors.ErrData, err.Error())
	}
	if e.MintA, err = readKey(dec); err != nil {
		return e, errors.Wrap(errors.ErrData, err.Error())
	}
	if e.MintB, err = readKey(dec); err != nil {
		return e, errors.Wrap(errors.ErrData, err.Error())
	}
	if e.Receive, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return e, errors.Wrap(errors.ErrData, err.Error())
	}
	if e.Bump, err = dec.ReadUint8(); err != nil {
		return e, errors.Wrap(errors.ErrData, err.Error())
	}
	return e, nil
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	bz, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(bz), nil
}

// Seeds returns the derivation seeds of the escrow record of maker for
// seed, bump included.
func Seeds(maker solana.PublicKey, seed uint64, bump uint8) [][]byte {
	return [][]byte{escrowSeed, maker.Bytes(), seedBytes(seed), {bump}}
}

// Seeds returns the derivation seeds of this record for the given maker.
func (e Escrow) Seeds(maker solana.PublicKey) [][]byte {
	return Seeds(maker, e.Seed, e.Bump)
}

func seedBytes(seed uint64) []byte {
	bz := make([]byte, 8)
	binary.LittleEndian.PutUint64(bz, seed)
	return bz
}

// Address returns the escrow address of maker for seed under the escrow
// program, together with its bump.
func Address(programID, maker solana.PublicKey, seed uint64) (solana.PublicKey, uint8, error) {
	return swapvault.FindProgramAddress(programID, escrowSeed, maker.Bytes(), seedBytes(seed))
}
