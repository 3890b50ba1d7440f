package token

import (
	"errors"
	"math/big"
	"sync"

	"synthvault/crypto"
)

var (
	ErrAmountMustBePositive  = errors.New("token: amount must be greater than zero")
	ErrNotMinter             = errors.New("token: caller is not the authorized minter")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrBurnExceedsBalance    = errors.New("token: burn amount exceeds balance")
)

// Token is an in-process fungible asset. Mutation calls identify the caller
// explicitly; minting is gated on a single designated authority so that a
// debt token can only ever be expanded by its engine. Collateral assets use
// the same implementation with the deployer as authority.
type Token struct {
	mu          sync.RWMutex
	name        string
	symbol      string
	authority   crypto.Address
	totalSupply *big.Int
	balances    map[string]*big.Int
	allowances  map[string]map[string]*big.Int
}

// New constructs a token whose supply can only be expanded by authority.
func New(name, symbol string, authority crypto.Address) *Token {
	return &Token{
		name:        name,
		symbol:      symbol,
		authority:   authority,
		totalSupply: big.NewInt(0),
		balances:    make(map[string]*big.Int),
		allowances:  make(map[string]map[string]*big.Int),
	}
}

func (t *Token) Name() string   { return t.name }
func (t *Token) Symbol() string { return t.symbol }

func key(addr crypto.Address) string { return string(addr.Bytes()) }

func (t *Token) balanceLocked(addr crypto.Address) *big.Int {
	if bal, ok := t.balances[key(addr)]; ok {
		return bal
	}
	bal := big.NewInt(0)
	t.balances[key(addr)] = bal
	return bal
}

// Mint creates amount units and credits them to the recipient. Only the
// configured authority may mint.
func (t *Token) Mint(caller, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountMustBePositive
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if string(caller.Bytes()) != string(t.authority.Bytes()) {
		return ErrNotMinter
	}
	bal := t.balanceLocked(to)
	t.balances[key(to)] = new(big.Int).Add(bal, amount)
	t.totalSupply = new(big.Int).Add(t.totalSupply, amount)
	return nil
}

// Burn destroys amount units from the caller's own balance.
func (t *Token) Burn(caller crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountMustBePositive
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := t.balanceLocked(caller)
	if bal.Cmp(amount) < 0 {
		return ErrBurnExceedsBalance
	}
	t.balances[key(caller)] = new(big.Int).Sub(bal, amount)
	t.totalSupply = new(big.Int).Sub(t.totalSupply, amount)
	return nil
}

// Transfer moves amount units from the sender to the recipient.
func (t *Token) Transfer(from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountMustBePositive
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferLocked(from, to, amount)
}

func (t *Token) transferLocked(from, to crypto.Address, amount *big.Int) error {
	fromBal := t.balanceLocked(from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBal := t.balanceLocked(to)
	t.balances[key(from)] = new(big.Int).Sub(fromBal, amount)
	t.balances[key(to)] = new(big.Int).Add(toBal, amount)
	return nil
}

// Approve grants the spender the right to move up to amount units of the
// owner's balance via TransferFrom. The previous allowance is replaced.
func (t *Token) Approve(owner, spender crypto.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	grants, ok := t.allowances[key(owner)]
	if !ok {
		grants = make(map[string]*big.Int)
		t.allowances[key(owner)] = grants
	}
	if amount == nil {
		grants[key(spender)] = big.NewInt(0)
		return
	}
	grants[key(spender)] = new(big.Int).Set(amount)
}

// Allowance reports the remaining amount the spender may move on behalf of
// the owner.
func (t *Token) Allowance(owner, spender crypto.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if grants, ok := t.allowances[key(owner)]; ok {
		if allowance, ok := grants[key(spender)]; ok {
			return new(big.Int).Set(allowance)
		}
	}
	return big.NewInt(0)
}

// TransferFrom moves amount units from the owner to the recipient, consuming
// the spender's allowance.
func (t *Token) TransferFrom(spender, owner, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountMustBePositive
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	grants := t.allowances[key(owner)]
	allowance := big.NewInt(0)
	if grants != nil {
		if granted, ok := grants[key(spender)]; ok {
			allowance = granted
		}
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.transferLocked(owner, to, amount); err != nil {
		return err
	}
	grants[key(spender)] = new(big.Int).Sub(allowance, amount)
	return nil
}

// BalanceOf returns a copy of the holder's balance.
func (t *Token) BalanceOf(addr crypto.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if bal, ok := t.balances[key(addr)]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// TotalSupply returns the outstanding supply.
func (t *Token) TotalSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.totalSupply)
}
