package runtime

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// Transaction is a list of instructions executed atomically. Every account
// marked as a signer by any instruction must sign the message.
type Transaction struct {
	// Nonce makes otherwise identical transactions sign differently.
	Nonce        uint64
	Instructions []swapvault.Instruction
	Signatures   map[solana.PublicKey]solana.Signature
}

// NewTransaction returns an unsigned transaction.
func NewTransaction(nonce uint64, ixs ...swapvault.Instruction) *Transaction {
	return &Transaction{
		Nonce:        nonce,
		Instructions: ixs,
		Signatures:   make(map[solana.PublicKey]solana.Signature),
	}
}

// Message returns the bytes that are signed.
func (tx *Transaction) Message() ([]byte, error) {
	msg := txMessage{Nonce: tx.Nonce}
	for _, ix := range tx.Instructions {
		rec := ixRecord{
			ProgramID: ix.ProgramID.Bytes(),
			Data:      ix.Data,
		}
		for _, m := range ix.Accounts {
			rec.Accounts = append(rec.Accounts, metaRecord{
				Key:        m.PublicKey.Bytes(),
				IsSigner:   m.IsSigner,
				IsWritable: m.IsWritable,
			})
		}
		msg.Instructions = append(msg.Instructions, rec)
	}
	bz, err := cdc.MarshalBinaryBare(msg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return bz, nil
}

// Signers returns the keys that must sign, in order of first appearance.
func (tx *Transaction) Signers() []solana.PublicKey {
	var keys []solana.PublicKey
	seen := make(map[solana.PublicKey]bool)
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			if m.IsSigner && !seen[m.PublicKey] {
				seen[m.PublicKey] = true
				keys = append(keys, m.PublicKey)
			}
		}
	}
	return keys
}

// Sign adds the signatures of the given keys.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	if tx.Signatures == nil {
		tx.Signatures = make(map[solana.PublicKey]solana.Signature)
	}
	for _, k := range keys {
		sig, err := k.Sign(msg)
		if err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
		tx.Signatures[k.PublicKey()] = sig
	}
	return nil
}

// verify checks that every required signer signed the message.
func (tx *Transaction) verify() error {
	if len(tx.Instructions) == 0 {
		return errors.Wrap(errors.ErrInput, "empty transaction")
	}
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	for _, key := range tx.Signers() {
		sig, ok := tx.Signatures[key]
		if !ok {
			return errors.Wrapf(errors.ErrAuthorization, "missing signature of %s", key)
		}
		if !sig.Verify(key, msg) {
			return errors.Wrapf(errors.ErrAuthorization, "invalid signature of %s", key)
		}
	}
	return nil
}
