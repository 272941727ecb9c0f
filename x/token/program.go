package token

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/swapvault"
	"github.com/iov-one/swapvault/errors"
)

// Program is a token service. The same code serves both variants, the
// variant only changes the program id and the layout of new accounts.
type Program struct {
	id         solana.PublicKey
	extensible bool
}

var _ swapvault.Program = Program{}

// NewProgram returns the legacy token service.
func NewProgram() Program {
	return Program{id: ProgramID}
}

// NewExtensibleProgram returns the extensible token service.
func NewExtensibleProgram() Program {
	return Program{id: ExtensibleProgramID, extensible: true}
}

// ID implements swapvault.Program.
func (p Program) ID() solana.PublicKey {
	return p.id
}

// AccountSize returns the size of a new token account of this service.
func (p Program) AccountSize() int {
	return AccountSize(p.id)
}

// Process implements swapvault.Program.
func (p Program) Process(ctx context.Context, host swapvault.Invoker, accounts []*swapvault.AccountInfo, data []byte) error {
	msg, err := Unmarshal(data)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case TransferMsg:
		if len(accounts) < 3 {
			return errors.Wrap(errors.ErrCardinality, "transfer")
		}
		return p.transfer(accounts[0], accounts[1], accounts[2], m.Amount)
	case MintToMsg:
		if len(accounts) < 3 {
			return errors.Wrap(errors.ErrCardinality, "mint to")
		}
		return p.mintTo(accounts[0], accounts[1], accounts[2], m.Amount)
	case CloseAccountMsg:
		if len(accounts) < 3 {
			return errors.Wrap(errors.ErrCardinality, "close account")
		}
		return p.closeAccount(accounts[0], accounts[1], accounts[2])
	case InitializeAccount3Msg:
		if len(accounts) < 2 {
			return errors.Wrap(errors.ErrCardinality, "initialize account")
		}
		return p.initializeAccount(host.Rent(), accounts[0], accounts[1], m.Owner)
	case InitializeMint2Msg:
		if len(accounts) < 1 {
			return errors.Wrap(errors.ErrCardinality, "initialize mint")
		}
		return p.initializeMint(host.Rent(), accounts[0], m)
	default:
		return errors.Wrapf(errors.ErrHuman, "unhandled message %T", msg)
	}
}

func (p Program) transfer(source, dest, authority *swapvault.AccountInfo, amount uint64) error {
	src, err := p.loadAccount(source)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	dst, err := p.loadAccount(dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if src.State == Frozen || dst.State == Frozen {
		return errors.Wrap(errors.ErrAuthorization, "account is frozen")
	}
	if !src.Mint.Equals(dst.Mint) {
		return errors.Wrapf(errors.ErrInput, "mint mismatch %s != %s", src.Mint, dst.Mint)
	}
	if src.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount,
			"%s holds %d, need %d", source.Key(), src.Amount, amount)
	}

	switch {
	case authority.Key().Equals(src.Owner):
	case src.Delegate != nil && authority.Key().Equals(*src.Delegate):
		if src.DelegatedAmount < amount {
			return errors.Wrapf(errors.ErrInsufficientAmount,
				"delegated %d, need %d", src.DelegatedAmount, amount)
		}
		src.DelegatedAmount -= amount
		if src.DelegatedAmount == 0 {
			src.Delegate = nil
		}
	default:
		return errors.Wrapf(errors.ErrAuthorization, "%s is not the authority of %s", authority.Key(), source.Key())
	}
	if !authority.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", authority.Key())
	}

	if source.SameAccount(dest) {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return errors.Wrap(errors.ErrOverflow, "destination amount")
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := storeAccount(source, src); err != nil {
		return err
	}
	return storeAccount(dest, dst)
}

func (p Program) mintTo(mint, dest, authority *swapvault.AccountInfo, amount uint64) error {
	m, err := p.loadMint(mint)
	if err != nil {
		return err
	}
	dst, err := p.loadAccount(dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !dst.Mint.Equals(mint.Key()) {
		return errors.Wrapf(errors.ErrInput, "%s is not an account of %s", dest.Key(), mint.Key())
	}
	if dst.State == Frozen {
		return errors.Wrap(errors.ErrAuthorization, "account is frozen")
	}
	if m.MintAuthority == nil || !m.MintAuthority.Equals(authority.Key()) {
		return errors.Wrapf(errors.ErrAuthorization, "%s cannot mint %s", authority.Key(), mint.Key())
	}
	if !authority.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", authority.Key())
	}
	if m.Supply+amount < m.Supply || dst.Amount+amount < dst.Amount {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	m.Supply += amount
	dst.Amount += amount
	if err := storeMint(mint, m); err != nil {
		return err
	}
	return storeAccount(dest, dst)
}

func (p Program) closeAccount(account, dest, authority *swapvault.AccountInfo) error {
	if account.SameAccount(dest) {
		return errors.Wrap(errors.ErrInput, "cannot close into itself")
	}
	a, err := p.loadAccount(account)
	if err != nil {
		return err
	}
	if a.IsNative == nil && a.Amount != 0 {
		return errors.Wrapf(errors.ErrInput, "%s still holds %d tokens", account.Key(), a.Amount)
	}
	owner := a.Owner
	if a.CloseAuthority != nil {
		owner = *a.CloseAuthority
	}
	if !authority.Key().Equals(owner) {
		return errors.Wrapf(errors.ErrAuthorization, "%s cannot close %s", authority.Key(), account.Key())
	}
	if !authority.IsSigner() {
		return errors.Wrapf(errors.ErrAuthorization, "%s must sign", authority.Key())
	}

	if err := dest.AddLamports(account.Lamports()); err != nil {
		return err
	}
	account.SetLamports(0)
	if err := account.Realloc(0, true); err != nil {
		return err
	}
	return account.Close()
}

func (p Program) initializeAccount(rent swapvault.Rent, account, mint *swapvault.AccountInfo, owner solana.PublicKey) error {
	if !account.IsOwnedBy(p.id) {
		return errors.Wrapf(errors.ErrAuthorization, "%s is not owned by %s", account.Key(), p.id)
	}
	if account.DataLen() != p.AccountSize() {
		return errors.Wrapf(errors.ErrData, "token account of %d bytes", account.DataLen())
	}
	if !rent.IsExempt(account.Lamports(), account.DataLen()) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s is not rent exempt", account.Key())
	}
	if _, err := p.loadMint(mint); err != nil {
		return err
	}

	w, err := account.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer w.Release()
	data := w.Bytes()
	if data[accountStateOffset] != uint8(Uninitialized) {
		return errors.Wrapf(errors.ErrDuplicate, "%s already initialized", account.Key())
	}

	copy(data, Account{
		Mint:  mint.Key(),
		Owner: owner,
		State: Initialized,
	}.Encode())
	if p.extensible {
		data[TypeOffset] = AccountType
	}
	return nil
}

func (p Program) initializeMint(rent swapvault.Rent, mint *swapvault.AccountInfo, m InitializeMint2Msg) error {
	if !mint.IsOwnedBy(p.id) {
		return errors.Wrapf(errors.ErrAuthorization, "%s is not owned by %s", mint.Key(), p.id)
	}
	size := mint.DataLen()
	if size != MintLen && !(p.extensible && size == ExtendedLen) {
		return errors.Wrapf(errors.ErrData, "mint of %d bytes", size)
	}
	if !rent.IsExempt(mint.Lamports(), size) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s is not rent exempt", mint.Key())
	}

	w, err := mint.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer w.Release()
	data := w.Bytes()
	if data[mintInitializedOffset] != 0 {
		return errors.Wrapf(errors.ErrDuplicate, "%s already initialized", mint.Key())
	}

	authority := m.MintAuthority
	copy(data, Mint{
		MintAuthority:   &authority,
		Decimals:        m.Decimals,
		IsInitialized:   true,
		FreezeAuthority: m.FreezeAuthority,
	}.Encode())
	if size == ExtendedLen {
		data[TypeOffset] = MintType
	}
	return nil
}

func (p Program) loadAccount(acc *swapvault.AccountInfo) (Account, error) {
	if !acc.IsOwnedBy(p.id) {
		return Account{}, errors.Wrapf(errors.ErrAuthorization, "%s is not owned by %s", acc.Key(), p.id)
	}
	r, err := acc.TryBorrowData()
	if err != nil {
		return Account{}, err
	}
	defer r.Release()
	a, err := DecodeAccount(r.Bytes())
	if err != nil {
		return Account{}, errors.Wrap(err, acc.Key().String())
	}
	if a.State == Uninitialized {
		return Account{}, errors.Wrapf(errors.ErrData, "%s is not initialized", acc.Key())
	}
	return a, nil
}

func (p Program) loadMint(acc *swapvault.AccountInfo) (Mint, error) {
	if !acc.IsOwnedBy(p.id) {
		return Mint{}, errors.Wrapf(errors.ErrAuthorization, "%s is not owned by %s", acc.Key(), p.id)
	}
	r, err := acc.TryBorrowData()
	if err != nil {
		return Mint{}, err
	}
	defer r.Release()
	m, err := DecodeMint(r.Bytes())
	if err != nil {
		return Mint{}, errors.Wrap(err, acc.Key().String())
	}
	if !m.IsInitialized {
		return Mint{}, errors.Wrapf(errors.ErrData, "%s is not initialized", acc.Key())
	}
	return m, nil
}

func storeAccount(acc *swapvault.AccountInfo, a Account) error {
	w, err := acc.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer w.Release()
	copy(w.Bytes(), a.Encode())
	return nil
}

func storeMint(acc *swapvault.AccountInfo, m Mint) error {
	w, err := acc.TryBorrowMutData()
	if err != nil {
		return err
	}
	defer w.Release()
	copy(w.Bytes(), m.Encode())
	return nil
}
