package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"synthvault/crypto"
	"synthvault/storage"
)

const (
	collateralPrefix = "vault/collateral/"
	debtPrefix       = "vault/debt/"
)

// Store persists ledger balances in a key-value database. Absent entries
// read as zero, matching the ledger's view that an empty position and a
// non-existent one are indistinguishable.
type Store struct {
	db storage.Database
}

// NewStore wraps the database. The store does not own the handle; the caller
// closes it.
func NewStore(db storage.Database) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("state: database required")
	}
	return &Store{db: db}, nil
}

func collateralKey(addr crypto.Address, asset string) []byte {
	return []byte(collateralPrefix + asset + "/" + hex.EncodeToString(addr.Bytes()))
}

func debtKey(addr crypto.Address) []byte {
	return []byte(debtPrefix + hex.EncodeToString(addr.Bytes()))
}

func (s *Store) getAmount(key []byte) (*big.Int, error) {
	raw, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (s *Store) putAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: amount must be non-negative")
	}
	return s.db.Put(key, amount.Bytes())
}

// GetCollateral returns the stored balance for (user, asset).
func (s *Store) GetCollateral(addr crypto.Address, asset string) (*big.Int, error) {
	return s.getAmount(collateralKey(addr, asset))
}

// PutCollateral stores the balance for (user, asset).
func (s *Store) PutCollateral(addr crypto.Address, asset string, amount *big.Int) error {
	return s.putAmount(collateralKey(addr, asset), amount)
}

// GetDebt returns the stored debt for the user.
func (s *Store) GetDebt(addr crypto.Address) (*big.Int, error) {
	return s.getAmount(debtKey(addr))
}

// PutDebt stores the debt for the user.
func (s *Store) PutDebt(addr crypto.Address, amount *big.Int) error {
	return s.putAmount(debtKey(addr), amount)
}
