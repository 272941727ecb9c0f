package runtime

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// accountPrefix namespaces account records in the store.
var accountPrefix = []byte("acct:")

func accountKey(key solana.PublicKey) []byte {
	return append(append([]byte(nil), accountPrefix...), key[:]...)
}

// prefixEnd returns the first key after all keys starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// accountRecord is the stored form of an account.
type accountRecord struct {
	Owner      []byte
	Lamports   uint64
	Data       []byte
	Executable bool
}

func encodeAccount(s swapvault.AccountState) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(accountRecord{
		Owner:      s.Owner.Bytes(),
		Lamports:   s.Lamports,
		Data:       s.Data,
		Executable: s.Executable,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return bz, nil
}

func decodeAccount(bz []byte) (swapvault.AccountState, error) {
	var rec accountRecord
	if err := cdc.UnmarshalBinaryBare(bz, &rec); err != nil {
		return swapvault.AccountState{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if len(rec.Owner) != solana.PublicKeyLength {
		return swapvault.AccountState{}, errors.Wrapf(errors.ErrDatabase, "owner of %d bytes", len(rec.Owner))
	}
	return swapvault.AccountState{
		Owner:      solana.PublicKeyFromBytes(rec.Owner),
		Lamports:   rec.Lamports,
		Data:       rec.Data,
		Executable: rec.Executable,
	}, nil
}

// The signed message of a transaction.
type txMessage struct {
	Nonce        uint64
	Instructions []ixRecord
}

type ixRecord struct {
	ProgramID []byte
	Accounts  []metaRecord
	Data      []byte
}

type metaRecord struct {
	Key        []byte
	IsSigner   bool
	IsWritable bool
}
