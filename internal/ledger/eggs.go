// Package ledger holds the egg and ant books. Every mutator is gated on a
// single authority address fixed at construction, so even when a ledger is
// handed out for reads nobody else can mint or burn.
package ledger

import (
	"fmt"
	"sync"

	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// EggLedger tracks fungible egg balances per owner.
type EggLedger struct {
	authority models.Address

	mu       sync.RWMutex
	balances map[models.Address]uint64
	supply   uint64
}

// NewEggLedger creates an empty ledger minted only by authority.
func NewEggLedger(authority models.Address) *EggLedger {
	return &EggLedger{
		authority: authority,
		balances:  make(map[models.Address]uint64),
	}
}

// Authority returns the only address allowed to mint or burn.
func (l *EggLedger) Authority() models.Address { return l.authority }

// BalanceOf returns the un-minted eggs held by owner.
func (l *EggLedger) BalanceOf(owner models.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[owner]
}

// TotalSupply returns the number of eggs currently in circulation.
func (l *EggLedger) TotalSupply() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply
}

// Mint credits n eggs to owner.
func (l *EggLedger) Mint(caller, to models.Address, n uint64) error {
	if caller != l.authority {
		return ErrNotMinter
	}
	if to == "" {
		return ErrInvalidOwner
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.supply+n < l.supply {
		return fmt.Errorf("mint %d eggs: %w", n, ErrSupplyOverflow)
	}
	l.balances[to] += n
	l.supply += n
	return nil
}

// Burn removes n eggs from owner.
func (l *EggLedger) Burn(caller, from models.Address, n uint64) error {
	if caller != l.authority {
		return ErrNotMinter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < n {
		return ErrInsufficientEggs
	}
	l.balances[from] -= n
	if l.balances[from] == 0 {
		delete(l.balances, from)
	}
	l.supply -= n
	return nil
}
