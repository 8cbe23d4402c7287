// Package currency implements the native-currency ledger the economy settles
// against. Amounts are in the smallest unit (wei) and unbounded.
package currency

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

var (
	// ErrInsufficientFunds indicates the paying wallet cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTreasuryDepleted indicates the treasury cannot cover a payout.
	ErrTreasuryDepleted = errors.New("treasury cannot cover payout")

	// ErrInvalidAmount rejects nil, negative or malformed amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Bank is an in-memory ledger with one treasury account. Stored balances are
// never shared with callers.
type Bank struct {
	treasury models.Address

	mu       sync.RWMutex
	balances map[models.Address]*big.Int
}

// NewBank creates a ledger whose treasury starts with reserve.
func NewBank(treasury models.Address, reserve *big.Int) *Bank {
	b := &Bank{
		treasury: treasury,
		balances: make(map[models.Address]*big.Int),
	}
	b.balances[treasury] = Copy(reserve)
	return b
}

// Treasury returns the address receiving payments.
func (b *Bank) Treasury() models.Address { return b.treasury }

// BalanceOf returns a copy of the wallet balance of owner.
func (b *Bank) BalanceOf(owner models.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Copy(b.balances[owner])
}

// Deposit mints funds into a wallet. Used as a faucet outside production.
func (b *Bank) Deposit(to models.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(to, amount)
	return nil
}

// Credit moves amount from the payer into the treasury.
func (b *Bank) Credit(from models.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balance(from).Cmp(amount) < 0 {
		return fmt.Errorf("credit %s from %s: %w", amount, from, ErrInsufficientFunds)
	}
	b.sub(from, amount)
	b.add(b.treasury, amount)
	return nil
}

// Debit pays amount out of the treasury to the recipient.
func (b *Bank) Debit(to models.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balance(b.treasury).Cmp(amount) < 0 {
		return fmt.Errorf("debit %s to %s: %w", amount, to, ErrTreasuryDepleted)
	}
	b.sub(b.treasury, amount)
	b.add(to, amount)
	return nil
}

func (b *Bank) balance(owner models.Address) *big.Int {
	if v, ok := b.balances[owner]; ok {
		return v
	}
	return new(big.Int)
}

func (b *Bank) add(to models.Address, amount *big.Int) {
	b.balances[to] = new(big.Int).Add(b.balance(to), amount)
}

func (b *Bank) sub(from models.Address, amount *big.Int) {
	b.balances[from] = new(big.Int).Sub(b.balance(from), amount)
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
