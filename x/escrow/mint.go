package escrow

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
	"github.com/iov-one/swapvault/x/token"
)

// Mint is a mint account that passed CheckMint. It is either a LegacyMint
// or an ExtensibleMint.
type Mint interface {
	// Key returns the address of the mint.
	Key() solana.PublicKey
	// TokenProgram returns the token service owning the mint.
	TokenProgram() solana.PublicKey

	isMint()
}

// LegacyMint is a mint of the legacy token service, always MintLen bytes.
type LegacyMint struct {
	key solana.PublicKey
}

// Key implements Mint.
func (m LegacyMint) Key() solana.PublicKey { return m.key }

// TokenProgram implements Mint.
func (LegacyMint) TokenProgram() solana.PublicKey { return token.ProgramID }

func (LegacyMint) isMint() {}

// ExtensibleMint is a mint of the extensible token service. Compatible is
// set for mints stored in the legacy layout.
type ExtensibleMint struct {
	key        solana.PublicKey
	Compatible bool
}

// Key implements Mint.
func (m ExtensibleMint) Key() solana.PublicKey { return m.key }

// TokenProgram implements Mint.
func (ExtensibleMint) TokenProgram() solana.PublicKey { return token.ExtensibleProgramID }

func (ExtensibleMint) isMint() {}

// CheckMint returns the mint stored in the account. The account must be
// owned by one of the token services and hold a mint layout of that
// service.
func CheckMint(acc *swapvault.AccountInfo) (Mint, error) {
	switch {
	case acc.IsOwnedBy(token.ExtensibleProgramID):
		return checkExtensibleMint(acc)
	case acc.IsOwnedBy(token.ProgramID):
		return checkLegacyMint(acc)
	default:
		return nil, errors.Wrapf(errors.ErrAuthorization, "mint %s is owned by %s", acc.Key(), acc.Owner())
	}
}

func checkLegacyMint(acc *swapvault.AccountInfo) (LegacyMint, error) {
	if acc.DataLen() != token.MintLen {
		return LegacyMint{}, errors.Wrapf(errors.ErrData, "mint %s of %d bytes", acc.Key(), acc.DataLen())
	}
	return LegacyMint{key: acc.Key()}, nil
}

func checkExtensibleMint(acc *swapvault.AccountInfo) (ExtensibleMint, error) {
	r, err := acc.TryBorrowData()
	if err != nil {
		return ExtensibleMint{}, err
	}
	defer r.Release()

	data := r.Bytes()
	if len(data) == token.MintLen {
		return ExtensibleMint{key: acc.Key(), Compatible: true}, nil
	}
	if len(data) <= token.TypeOffset {
		return ExtensibleMint{}, errors.Wrapf(errors.ErrData, "mint %s of %d bytes", acc.Key(), len(data))
	}
	if tag := data[token.TypeOffset]; tag != token.MintType {
		return ExtensibleMint{}, errors.Wrapf(errors.ErrData, "mint %s has account type %#x", acc.Key(), tag)
	}
	return ExtensibleMint{key: acc.Key()}, nil
}
