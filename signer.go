package swapvault

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault/errors"
)

// Signer is the signing authority of a program over an address derived from
// the program id and a list of seeds. There is no private key for such an
// address: holding a Signer is the proof that the seeds derive to it.
//
// A Signer can only be obtained from NewSigner. The zero value authorizes
// nothing.
type Signer struct {
	programID solana.PublicKey
	address   solana.PublicKey
	seeds     [][]byte
}

// NewSigner returns the signing authority of programID over target. It fails
// with ErrAuthorization unless seeds, with the bump as the last seed, derive
// to target under programID.
func NewSigner(programID, target solana.PublicKey, seeds ...[]byte) (Signer, error) {
	addr, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return Signer{}, errors.Wrap(errors.ErrAuthorization, err.Error())
	}
	if !addr.Equals(target) {
		return Signer{}, errors.Wrapf(errors.ErrAuthorization,
			"seeds derive to %s, not %s", addr, target)
	}
	cp := make([][]byte, len(seeds))
	for i, s := range seeds {
		cp[i] = append([]byte(nil), s...)
	}
	return Signer{programID: programID, address: target, seeds: cp}, nil
}

// Address returns the address this signer signs for.
func (s Signer) Address() solana.PublicKey { return s.address }

// ProgramID returns the program the address is derived from.
func (s Signer) ProgramID() solana.PublicKey { return s.programID }

// Seeds returns a copy of the derivation seeds, bump included.
func (s Signer) Seeds() [][]byte {
	cp := make([][]byte, len(s.seeds))
	for i, seed := range s.seeds {
		cp[i] = append([]byte(nil), seed...)
	}
	return cp
}

// Verify checks again that the seeds derive to the address under the given
// program. A zero Signer never verifies.
func (s Signer) Verify(programID solana.PublicKey) error {
	if s.seeds == nil {
		return errors.Wrap(errors.ErrAuthorization, "empty signer")
	}
	if !s.programID.Equals(programID) {
		return errors.Wrapf(errors.ErrAuthorization,
			"signer of program %s used by %s", s.programID, programID)
	}
	addr, err := solana.CreateProgramAddress(s.seeds, programID)
	if err != nil {
		return errors.Wrap(errors.ErrAuthorization, err.Error())
	}
	if !addr.Equals(s.address) {
		return errors.Wrapf(errors.ErrAuthorization, "seeds do not derive to %s", s.address)
	}
	return nil
}

// FindProgramAddress returns the first valid program address for the seeds
// together with its bump.
func FindProgramAddress(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, errors.Wrap(errors.ErrInput, err.Error())
	}
	return addr, bump, nil
}
