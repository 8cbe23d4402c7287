package economy

import (
	"errors"
	"math"
	"math/big"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/ledger"
)

func TestBuyEggsRequiresPayment(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	before := h.bank.BalanceOf(alice)

	if _, err := h.engine.BuyEggs(alice, 1, new(big.Int)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("zero payment: expected ErrInsufficientPayment, got %v", err)
	}
	if _, err := h.engine.BuyEggs(alice, 1, nil); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("zero payment: expected ErrInsufficientPayment, got %v", err)
	}
	if _, err := h.engine.BuyEggs(alice, 2, h.cfg.EggPrice); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("under payment: expected ErrInsufficientPayment, got %v", err)
	}

	if got := h.engine.EggBalance(alice); got != 0 {
		t.Fatalf("failed purchases credited %d eggs", got)
	}
	if got := h.bank.BalanceOf(alice); got.Cmp(before) != 0 {
		t.Fatalf("failed purchases moved funds: %s -> %s", before, got)
	}
}

func TestBuyEggsCreditsExactQuantity(t *testing.T) {
	h := newHarness(t, immortal(), nil)

	got, err := h.engine.BuyEggs(alice, 3, h.price(3))
	if err != nil {
		t.Fatalf("buy eggs: %v", err)
	}
	if got != 3 || h.engine.EggBalance(alice) != 3 {
		t.Fatalf("expected 3 eggs, got delta=%d balance=%d", got, h.engine.EggBalance(alice))
	}
	want := new(big.Int).Add(currency.Ether(1), h.price(3))
	if treasury := h.bank.BalanceOf(h.engine.Authority()); treasury.Cmp(want) != 0 {
		t.Fatalf("treasury not credited: %s", treasury)
	}
	if stats := h.engine.Stats(); stats.Revenue.Cmp(h.price(3)) != 0 {
		t.Fatalf("revenue not recorded: %s", stats.Revenue)
	}
}

func TestBuyEggsAbsorbsOverpayment(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	before := h.bank.BalanceOf(alice)

	if _, err := h.engine.BuyEggs(alice, 1, h.price(5)); err != nil {
		t.Fatalf("buy eggs: %v", err)
	}
	if got := h.engine.EggBalance(alice); got != 1 {
		t.Fatalf("overpayment minted bonus eggs: %d", got)
	}
	if spent := new(big.Int).Sub(before, h.bank.BalanceOf(alice)); spent.Cmp(h.price(5)) != 0 {
		t.Fatalf("expected full payment to be taken, spent %s", spent)
	}
}

func TestBuyEggsRejectsBadInput(t *testing.T) {
	h := newHarness(t, immortal(), nil)

	if _, err := h.engine.BuyEggs(alice, 0, h.cfg.EggPrice); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := h.engine.BuyEggs("", 1, h.cfg.EggPrice); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("expected ErrInvalidCaller, got %v", err)
	}
	if _, err := h.engine.BuyEggs(alice, ^uint64(0), currency.Wei(^uint64(0))); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("cost past uint64: expected ErrInsufficientPayment, got %v", err)
	}
	if _, err := h.engine.BuyEggs(alice, 1, big.NewInt(-1)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("negative payment: expected ErrInsufficientPayment, got %v", err)
	}
}

func TestBuyEggsWalletTooShort(t *testing.T) {
	h := newHarness(t, immortal(), nil)

	_, err := h.engine.BuyEggs(alice, 1, currency.Ether(11))
	if !errors.Is(err, currency.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if h.engine.EggBalance(alice) != 0 {
		t.Fatalf("eggs credited without payment")
	}
}

func TestOnlyEngineMayMint(t *testing.T) {
	h := newHarness(t, immortal(), nil)

	if err := h.engine.Eggs().Mint("random-user", "random-user", 1); !errors.Is(err, ledger.ErrNotMinter) {
		t.Fatalf("egg mint: expected ErrNotMinter, got %v", err)
	}
	if _, err := h.engine.Ants().Mint("random-user", "random-user", h.clock.Now()); !errors.Is(err, ledger.ErrNotMinter) {
		t.Fatalf("ant mint: expected ErrNotMinter, got %v", err)
	}

	before := h.engine.EggBalance("random-user")
	if _, err := h.engine.BuyEggs(alice, 1, h.cfg.EggPrice); err != nil {
		t.Fatalf("buy eggs: %v", err)
	}
	if h.engine.EggBalance("random-user") != before || h.engine.EggBalance(alice) != 1 {
		t.Fatalf("unexpected balances after purchase")
	}
}

func TestCreateAntConsumesOneEgg(t *testing.T) {
	h := newHarness(t, immortal(), nil)

	if _, err := h.engine.CreateAnt(alice); !errors.Is(err, ErrNoEggsAvailable) {
		t.Fatalf("expected ErrNoEggsAvailable, got %v", err)
	}

	if _, err := h.engine.BuyEggs(alice, 2, 2*h.cfg.EggPrice); err != nil {
		t.Fatalf("buy eggs: %v", err)
	}

	first, err := h.engine.CreateAnt(alice)
	if err != nil {
		t.Fatalf("create ant: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first ant id 1, got %d", first)
	}
	second, _ := h.engine.CreateAnt(alice)
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	if h.engine.EggBalance(alice) != 0 {
		t.Fatalf("expected eggs to be consumed, left %d", h.engine.EggBalance(alice))
	}
	if h.engine.AntBalance(alice) != 2 {
		t.Fatalf("expected 2 ants, got %d", h.engine.AntBalance(alice))
	}

	ant, err := h.engine.Ant(first)
	if err != nil {
		t.Fatalf("lookup ant: %v", err)
	}
	if ant.Owner != alice || !ant.Alive || !ant.CreatedAt.Equal(h.clock.Now()) {
		t.Fatalf("unexpected ant record %+v", ant)
	}
}

func TestHundredAntsFromOneEgg(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	founder := h.buyAndMint(t, alice)

	for i := 0; h.engine.AntBalance(alice) < 100; i++ {
		if i > 100 {
			t.Fatalf("did not reach 100 ants, have %d", h.engine.AntBalance(alice))
		}
		if _, err := h.engine.CreateEgg(alice, founder); err != nil {
			t.Fatalf("lay %d: %v", i, err)
		}
		for h.engine.EggBalance(alice) > 0 && h.engine.AntBalance(alice) < 100 {
			if _, err := h.engine.CreateAnt(alice); err != nil {
				t.Fatalf("create ant: %v", err)
			}
		}
		h.clock.Advance(h.cfg.Cooldown)
	}

	if got := h.engine.AntBalance(alice); got != 100 {
		t.Fatalf("expected exactly 100 ants, got %d", got)
	}
	stats := h.engine.Stats()
	if stats.AntsMinted != 100 || stats.EggsPurchased != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.AntsMinted > stats.EggsPurchased+stats.EggsLaid {
		t.Fatalf("minted more ants than eggs ever existed: %+v", stats)
	}
}

func TestSellAntPaysAndRetires(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	id := h.buyAndMint(t, alice)
	if id != 1 {
		t.Fatalf("expected ant id 1, got %d", id)
	}
	before := h.bank.BalanceOf(alice)

	payout, err := h.engine.SellAnt(alice, id)
	if err != nil {
		t.Fatalf("sell ant: %v", err)
	}
	if payout.Sign() <= 0 {
		t.Fatalf("payout must be positive")
	}
	after := h.bank.BalanceOf(alice)
	if gained := new(big.Int).Sub(after, before); gained.Sign() <= 0 || gained.Cmp(payout) != 0 {
		t.Fatalf("balance did not increase by payout: %s -> %s", before, after)
	}
	if h.engine.AntBalance(alice) != 0 {
		t.Fatalf("sold ant still held")
	}

	if _, err := h.engine.SellAnt(alice, id); !errors.Is(err, ErrAntNotFound) {
		t.Fatalf("second sale: expected ErrAntNotFound, got %v", err)
	}
	if _, err := h.engine.CreateEgg(alice, id); !errors.Is(err, ErrAntNotFound) {
		t.Fatalf("lay after sale: expected ErrAntNotFound, got %v", err)
	}

	next := h.buyAndMint(t, alice)
	if next == id {
		t.Fatalf("identifier %d was reused", id)
	}
}

func TestSellAntTreasuryDepleted(t *testing.T) {
	h := newHarness(t, immortal(), func(c *config.EconomyConfig) {
		c.AntSalePrice = currency.Ether(2)
	})
	id := h.buyAndMint(t, alice)
	before := h.bank.BalanceOf(alice)

	if _, err := h.engine.SellAnt(alice, id); !errors.Is(err, currency.ErrTreasuryDepleted) {
		t.Fatalf("expected ErrTreasuryDepleted, got %v", err)
	}
	if h.engine.AntBalance(alice) != 1 || h.bank.BalanceOf(alice).Cmp(before) != 0 {
		t.Fatalf("failed sale mutated state")
	}
}

func TestForeignAndMissingAntsRejected(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	id := h.buyAndMint(t, alice)
	eventsBefore := len(h.events.kinds())
	bobFunds := h.bank.BalanceOf(bob)

	if _, err := h.engine.SellAnt(bob, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("sell: expected ErrNotOwner, got %v", err)
	}
	if _, err := h.engine.CreateEgg(bob, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("lay: expected ErrNotOwner, got %v", err)
	}
	if err := h.engine.TransferAnt(bob, bob, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("transfer: expected ErrNotOwner, got %v", err)
	}
	if _, err := h.engine.SellAnt(alice, 42); !errors.Is(err, ErrAntNotFound) {
		t.Fatalf("missing: expected ErrAntNotFound, got %v", err)
	}
	if _, err := h.engine.CreateEgg(alice, 42); !errors.Is(err, ErrAntNotFound) {
		t.Fatalf("missing lay: expected ErrAntNotFound, got %v", err)
	}

	if h.engine.AntBalance(alice) != 1 || h.engine.AntBalance(bob) != 0 {
		t.Fatalf("rejected calls moved ants")
	}
	if h.bank.BalanceOf(bob).Cmp(bobFunds) != 0 || h.engine.EggBalance(bob) != 0 {
		t.Fatalf("rejected calls moved funds or eggs")
	}
	if len(h.events.kinds()) != eventsBefore {
		t.Fatalf("rejected calls published events")
	}
}

func TestTransferAnt(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	id := h.buyAndMint(t, alice)

	if err := h.engine.TransferAnt(alice, "", id); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if err := h.engine.TransferAnt(alice, bob, id); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if h.engine.AntBalance(alice) != 0 || h.engine.AntBalance(bob) != 1 {
		t.Fatalf("transfer did not move the ant")
	}
	if _, err := h.engine.SellAnt(alice, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("previous owner sold the ant: %v", err)
	}
	if _, err := h.engine.SellAnt(bob, id); err != nil {
		t.Fatalf("new owner sale: %v", err)
	}
}

func TestEventsFollowOperations(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	id := h.buyAndMint(t, alice)
	if _, err := h.engine.CreateEgg(alice, id); err != nil {
		t.Fatalf("lay: %v", err)
	}
	if _, err := h.engine.SellAnt(alice, id); err != nil {
		t.Fatalf("sell: %v", err)
	}

	want := []models.EventKind{
		models.EventEggsMinted,
		models.EventEggsBurned,
		models.EventAntMinted,
		models.EventEggsMinted,
		models.EventAntSold,
	}
	got := h.events.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	for i, ev := range h.events.events {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, ev.Seq)
		}
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := New(config.DefaultEconomy(), Deps{}, nil); err == nil {
		t.Fatalf("expected error without currency ledger")
	}

	bad := config.DefaultEconomy()
	bad.EggPrice = new(big.Int)
	if _, err := New(bad, Deps{Bank: currency.NewBank("cryptoants", nil)}, nil); err == nil {
		t.Fatalf("expected config validation error")
	}
}

func TestLargePurchasesPastUint64(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	if err := h.bank.Deposit(alice, currency.Ether(20)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := h.engine.BuyEggs(alice, 1800, h.price(1800)); err != nil {
		t.Fatalf("buy 18 ether of eggs: %v", err)
	}
	if got := h.engine.EggBalance(alice); got != 1800 {
		t.Fatalf("expected 1800 eggs, got %d", got)
	}

	if _, err := h.engine.BuyEggs(alice, 1000, h.price(1000)); err != nil {
		t.Fatalf("buy past the uint64 treasury ceiling: %v", err)
	}
	want := new(big.Int).Add(currency.Ether(1), h.price(2800))
	if treasury := h.bank.BalanceOf(h.engine.Authority()); treasury.Cmp(want) != 0 {
		t.Fatalf("expected treasury %s, got %s", want, treasury)
	}
	if stats := h.engine.Stats(); stats.Revenue.Cmp(currency.Ether(28)) != 0 {
		t.Fatalf("expected 28 ether revenue, got %s", currency.FormatEther(stats.Revenue))
	}
}

func TestAuthorityCannotTrade(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	self := h.engine.Authority()
	treasury := h.bank.BalanceOf(self)

	if _, err := h.engine.BuyEggs(self, 50, h.price(50)); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("buy: expected ErrInvalidCaller, got %v", err)
	}
	if _, err := h.engine.CreateAnt(self); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("create ant: expected ErrInvalidCaller, got %v", err)
	}

	id := h.buyAndMint(t, alice)
	if _, err := h.engine.CreateEgg(self, id); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("lay: expected ErrInvalidCaller, got %v", err)
	}
	if _, err := h.engine.SellAnt(self, id); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("sell: expected ErrInvalidCaller, got %v", err)
	}
	if err := h.engine.TransferAnt(self, bob, id); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("transfer from authority: expected ErrInvalidCaller, got %v", err)
	}
	if err := h.engine.TransferAnt(alice, self, id); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("transfer to authority: expected ErrInvalidRecipient, got %v", err)
	}

	wantTreasury := new(big.Int).Add(treasury, h.cfg.EggPrice)
	if got := h.bank.BalanceOf(self); got.Cmp(wantTreasury) != 0 {
		t.Fatalf("treasury moved: expected %s, got %s", wantTreasury, got)
	}
	if stats := h.engine.Stats(); stats.Revenue.Cmp(h.cfg.EggPrice) != 0 || stats.EggsPurchased != 1 {
		t.Fatalf("authority calls leaked into stats: %+v", stats)
	}
	if h.engine.EggBalance(self) != 0 || h.engine.AntBalance(self) != 0 {
		t.Fatalf("authority holds eggs or ants")
	}
}

func TestStatsReturnsIndependentCopy(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	h.buyAndMint(t, alice)

	stats := h.engine.Stats()
	stats.Revenue.SetInt64(0)
	if h.engine.Stats().Revenue.Cmp(h.cfg.EggPrice) != 0 {
		t.Fatalf("caller mutated engine revenue")
	}
}

func TestHoldingsNeverShowHalfAppliedMint(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	const total = 200
	if _, err := h.engine.BuyEggs(alice, total, h.price(total)); err != nil {
		t.Fatalf("buy eggs: %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < total; i++ {
			if _, err := h.engine.CreateAnt(alice); err != nil {
				t.Errorf("create ant: %v", err)
				return
			}
		}
	}()

	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		held := h.engine.Holdings(alice)
		if got := held.Eggs + uint64(len(held.Ants)); got != total {
			t.Fatalf("observed %d eggs and %d ants mid-operation", held.Eggs, len(held.Ants))
		}
	}
	wg.Wait()

	if got := h.engine.AntBalance(alice); got != total {
		t.Fatalf("expected %d ants, got %d", total, got)
	}
}

func TestFailedEggRollbackIsLogged(t *testing.T) {
	h := newHarness(t, immortal(), nil)
	core, logs := observer.New(zap.ErrorLevel)
	h.engine.logger = zap.New(core)

	// a full supply makes the re-mint overflow
	if err := h.engine.Eggs().Mint(h.engine.Authority(), bob, math.MaxUint64); err != nil {
		t.Fatalf("fill supply: %v", err)
	}

	h.engine.mu.Lock()
	h.engine.restoreEgg(alice)
	h.engine.mu.Unlock()

	entries := logs.FilterMessage("egg rollback failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rollback error, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["caller"]; got != string(alice) {
		t.Fatalf("rollback logged caller %v", got)
	}
	if h.engine.EggBalance(alice) != 0 {
		t.Fatalf("failed rollback credited an egg")
	}
}
