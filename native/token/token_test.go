package token

import (
	"errors"
	"math/big"
	"testing"

	"synthvault/crypto"
)

func makeAddress(last byte) crypto.Address {
	var b [20]byte
	b[19] = last
	return crypto.MustNewAddress(crypto.VaultPrefix, b[:])
}

func TestMintRequiresAuthority(t *testing.T) {
	authority := makeAddress(0x01)
	outsider := makeAddress(0x02)
	holder := makeAddress(0x03)

	tok := New("Synth USD", "SUSD", authority)

	if err := tok.Mint(outsider, holder, big.NewInt(100)); !errors.Is(err, ErrNotMinter) {
		t.Fatalf("expected ErrNotMinter, got %v", err)
	}
	if err := tok.Mint(authority, holder, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if supply := tok.TotalSupply(); supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected supply: %s", supply)
	}
	if bal := tok.BalanceOf(holder); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected balance: %s", bal)
	}
}

func TestMintRejectsNonPositiveAmount(t *testing.T) {
	authority := makeAddress(0x01)
	tok := New("Synth USD", "SUSD", authority)

	if err := tok.Mint(authority, authority, big.NewInt(0)); !errors.Is(err, ErrAmountMustBePositive) {
		t.Fatalf("expected ErrAmountMustBePositive, got %v", err)
	}
	if err := tok.Mint(authority, authority, nil); !errors.Is(err, ErrAmountMustBePositive) {
		t.Fatalf("expected ErrAmountMustBePositive for nil, got %v", err)
	}
}

func TestBurnExceedsBalance(t *testing.T) {
	authority := makeAddress(0x01)
	holder := makeAddress(0x02)
	tok := New("Synth USD", "SUSD", authority)

	if err := tok.Mint(authority, holder, big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := tok.Burn(holder, big.NewInt(51)); !errors.Is(err, ErrBurnExceedsBalance) {
		t.Fatalf("expected ErrBurnExceedsBalance, got %v", err)
	}
	if err := tok.Burn(holder, big.NewInt(50)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if supply := tok.TotalSupply(); supply.Sign() != 0 {
		t.Fatalf("expected zero supply, got %s", supply)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	authority := makeAddress(0x01)
	owner := makeAddress(0x02)
	spender := makeAddress(0x03)
	recipient := makeAddress(0x04)

	tok := New("Wrapped Ether", "WETH", authority)
	if err := tok.Mint(authority, owner, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := tok.TransferFrom(spender, owner, recipient, big.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	tok.Approve(owner, spender, big.NewInt(600))
	if err := tok.TransferFrom(spender, owner, recipient, big.NewInt(400)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if remaining := tok.Allowance(owner, spender); remaining.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected allowance: %s", remaining)
	}
	if err := tok.TransferFrom(spender, owner, recipient, big.NewInt(300)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance after partial spend, got %v", err)
	}
	if bal := tok.BalanceOf(recipient); bal.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("unexpected recipient balance: %s", bal)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	authority := makeAddress(0x01)
	from := makeAddress(0x02)
	to := makeAddress(0x03)

	tok := New("Wrapped Ether", "WETH", authority)
	if err := tok.Transfer(from, to, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
