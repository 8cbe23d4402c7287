package ledger

import (
	"errors"
	"testing"
)

const authority = "cryptoants"

func TestEggMintRequiresAuthority(t *testing.T) {
	l := NewEggLedger(authority)

	if err := l.Mint("random-user", "random-user", 1); !errors.Is(err, ErrNotMinter) {
		t.Fatalf("expected ErrNotMinter, got %v", err)
	}
	if got := l.BalanceOf("random-user"); got != 0 {
		t.Fatalf("rejected mint changed balance to %d", got)
	}

	if err := l.Mint(authority, "random-user", 1); err != nil {
		t.Fatalf("authority mint failed: %v", err)
	}
	if got := l.BalanceOf("random-user"); got != 1 {
		t.Fatalf("expected balance 1, got %d", got)
	}
}

func TestEggBurnNeverGoesNegative(t *testing.T) {
	l := NewEggLedger(authority)
	_ = l.Mint(authority, "alice", 2)

	if err := l.Burn(authority, "alice", 3); !errors.Is(err, ErrInsufficientEggs) {
		t.Fatalf("expected ErrInsufficientEggs, got %v", err)
	}
	if err := l.Burn("alice", "alice", 1); !errors.Is(err, ErrNotMinter) {
		t.Fatalf("expected ErrNotMinter, got %v", err)
	}
	if err := l.Burn(authority, "alice", 2); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if got := l.BalanceOf("alice"); got != 0 {
		t.Fatalf("expected empty balance, got %d", got)
	}
	if got := l.TotalSupply(); got != 0 {
		t.Fatalf("expected zero supply, got %d", got)
	}
}

func TestEggMintRejectsEmptyOwnerAndOverflow(t *testing.T) {
	l := NewEggLedger(authority)
	if err := l.Mint(authority, "", 1); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}

	_ = l.Mint(authority, "alice", ^uint64(0))
	if err := l.Mint(authority, "bob", 1); !errors.Is(err, ErrSupplyOverflow) {
		t.Fatalf("expected ErrSupplyOverflow, got %v", err)
	}
	if got := l.BalanceOf("bob"); got != 0 {
		t.Fatalf("overflowing mint credited %d", got)
	}
}
