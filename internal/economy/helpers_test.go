package economy

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/cryptoants/internal/clock"
	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/randomness"
)

const (
	alice models.Address = "alice"
	bob   models.Address = "bob"
)

type recorder struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func (r *recorder) Publish(event models.LedgerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) kinds() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type harness struct {
	engine *Engine
	bank   *currency.Bank
	clock  *clock.Manual
	events *recorder
	cfg    config.EconomyConfig
}

// immortal keeps yield at 10 and the death roll at 50 for every lay.
func immortal() randomness.Source { return randomness.NewSequence(9, 50) }

func newHarness(t *testing.T, src randomness.Source, tweak func(*config.EconomyConfig)) *harness {
	t.Helper()

	cfg := config.DefaultEconomy()
	if tweak != nil {
		tweak(&cfg)
	}

	bank := currency.NewBank(models.Address(cfg.Authority), currency.Ether(1))
	for _, who := range []models.Address{alice, bob} {
		if err := bank.Deposit(who, currency.Ether(10)); err != nil {
			t.Fatalf("fund %s: %v", who, err)
		}
	}

	clk := clock.NewManual(time.Date(2020, 11, 20, 0, 0, 0, 0, time.UTC))
	events := &recorder{}

	engine, err := New(cfg, Deps{Bank: bank, Clock: clk, Random: src, Publisher: events}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	return &harness{engine: engine, bank: bank, clock: clk, events: events, cfg: cfg}
}

// price returns n eggs' worth of wei.
func (h *harness) price(n uint64) *big.Int {
	return new(big.Int).Mul(currency.Wei(n), h.cfg.EggPrice)
}

func (h *harness) buyAndMint(t *testing.T, who models.Address) models.AntID {
	t.Helper()
	if _, err := h.engine.BuyEggs(who, 1, h.cfg.EggPrice); err != nil {
		t.Fatalf("buy eggs: %v", err)
	}
	id, err := h.engine.CreateAnt(who)
	if err != nil {
		t.Fatalf("create ant: %v", err)
	}
	return id
}
