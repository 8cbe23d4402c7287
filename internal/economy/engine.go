// Package economy is the single authority over egg and ant state transitions.
package economy

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/clock"
	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/ledger"
	"github.com/mamadbah2/cryptoants/internal/randomness"
)

// Deps groups the external collaborators of the engine.
type Deps struct {
	Bank      CurrencyLedger
	Clock     clock.Clock
	Random    randomness.Source
	Publisher Publisher
}

// Engine serializes every operation behind one mutex so no caller can observe
// a partially applied transition.
type Engine struct {
	cfg  config.EconomyConfig
	self models.Address

	eggs *ledger.EggLedger
	ants *ledger.AntRegistry

	bank   CurrencyLedger
	clock  clock.Clock
	rng    randomness.Source
	events Publisher
	logger *zap.Logger

	mu    sync.Mutex
	seq   uint64
	stats models.EconomyStats
}

// New builds an engine with fresh ledgers owned by cfg.Authority.
func New(cfg config.EconomyConfig, deps Deps, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("economy config: %w", err)
	}
	if deps.Bank == nil {
		return nil, errors.New("economy: currency ledger is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Random == nil {
		deps.Random = randomness.NewCrypto()
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.EggPrice = currency.Copy(cfg.EggPrice)
	cfg.AntSalePrice = currency.Copy(cfg.AntSalePrice)

	self := models.Address(cfg.Authority)
	return &Engine{
		cfg:    cfg,
		self:   self,
		eggs:   ledger.NewEggLedger(self),
		ants:   ledger.NewAntRegistry(self),
		bank:   deps.Bank,
		clock:  deps.Clock,
		rng:    deps.Random,
		events: deps.Publisher,
		logger: logger,
		stats: models.EconomyStats{
			Revenue: new(big.Int),
			Payouts: new(big.Int),
		},
	}, nil
}

// Authority returns the address the engine mints under.
func (e *Engine) Authority() models.Address { return e.self }

// Config returns a copy of the constants the engine was built with.
func (e *Engine) Config() config.EconomyConfig {
	cfg := e.cfg
	cfg.EggPrice = currency.Copy(e.cfg.EggPrice)
	cfg.AntSalePrice = currency.Copy(e.cfg.AntSalePrice)
	return cfg
}

// Eggs exposes the egg ledger for reads. Its mutators reject every caller but
// the engine.
func (e *Engine) Eggs() *ledger.EggLedger { return e.eggs }

// Ants exposes the ant arena for reads under the same restriction as Eggs.
func (e *Engine) Ants() *ledger.AntRegistry { return e.ants }

// BuyEggs credits quantity eggs to caller once paid covers the price. Excess
// payment is kept by the treasury without bonus eggs.
func (e *Engine) BuyEggs(caller models.Address, quantity uint64, paid *big.Int) (uint64, error) {
	if err := e.checkCaller(caller); err != nil {
		return 0, err
	}
	if quantity == 0 {
		return 0, ErrInvalidQuantity
	}
	if paid == nil || paid.Sign() < 0 {
		return 0, ErrInsufficientPayment
	}
	cost := new(big.Int).Mul(currency.Wei(quantity), e.cfg.EggPrice)
	if paid.Cmp(cost) < 0 {
		return 0, ErrInsufficientPayment
	}
	paid = currency.Copy(paid)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.eggsFit(quantity) {
		return 0, ErrSupplyExhausted
	}
	if err := e.bank.Credit(caller, paid); err != nil {
		return 0, fmt.Errorf("collect payment: %w", err)
	}
	if err := e.eggs.Mint(e.self, caller, quantity); err != nil {
		e.refund(caller, paid)
		return 0, fmt.Errorf("mint eggs: %w", err)
	}

	e.stats.EggsPurchased += quantity
	e.stats.Revenue = new(big.Int).Add(e.stats.Revenue, paid)
	now := e.clock.Now()
	e.publish(models.LedgerEvent{Kind: models.EventEggsMinted, To: caller, Amount: currency.Wei(quantity), OccurredAt: now})

	e.logger.Debug("eggs purchased",
		zap.String("caller", string(caller)),
		zap.Uint64("quantity", quantity),
		zap.Stringer("paid", paid))

	return quantity, nil
}

// CreateAnt consumes one egg of caller and mints a new ant for them.
func (e *Engine) CreateAnt(caller models.Address) (models.AntID, error) {
	if err := e.checkCaller(caller); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.eggs.BalanceOf(caller) == 0 {
		return 0, ErrNoEggsAvailable
	}

	now := e.clock.Now()
	if err := e.eggs.Burn(e.self, caller, 1); err != nil {
		return 0, fmt.Errorf("consume egg: %w", err)
	}
	id, err := e.ants.Mint(e.self, caller, now)
	if err != nil {
		e.restoreEgg(caller)
		return 0, fmt.Errorf("mint ant: %w", err)
	}

	e.stats.AntsMinted++
	e.publish(models.LedgerEvent{Kind: models.EventEggsBurned, From: caller, Amount: currency.Wei(1), OccurredAt: now})
	e.publish(models.LedgerEvent{Kind: models.EventAntMinted, To: caller, AntID: id, OccurredAt: now})

	e.logger.Debug("ant created", zap.String("caller", string(caller)), zap.Uint64("ant_id", uint64(id)))
	return id, nil
}

// SellAnt retires a live ant of caller and pays them the sale price.
func (e *Engine) SellAnt(caller models.Address, id models.AntID) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.ownedAnt(caller, id); err != nil {
		return nil, err
	}

	price := currency.Copy(e.cfg.AntSalePrice)
	if err := e.bank.Debit(caller, price); err != nil {
		return nil, fmt.Errorf("pay out sale: %w", err)
	}
	if err := e.ants.Burn(e.self, id); err != nil {
		return nil, fmt.Errorf("burn ant: %w", err)
	}

	e.stats.AntsSold++
	e.stats.Payouts = new(big.Int).Add(e.stats.Payouts, price)
	e.publish(models.LedgerEvent{Kind: models.EventAntSold, From: caller, AntID: id, Amount: currency.Copy(price), OccurredAt: e.clock.Now()})

	e.logger.Debug("ant sold",
		zap.String("caller", string(caller)),
		zap.Uint64("ant_id", uint64(id)),
		zap.Stringer("payout", price))

	return price, nil
}

// TransferAnt hands a live ant of caller to another owner.
func (e *Engine) TransferAnt(caller, to models.Address, id models.AntID) error {
	if to == "" || to == e.self {
		return ErrInvalidRecipient
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.ownedAnt(caller, id); err != nil {
		return err
	}
	if err := e.ants.Transfer(e.self, id, to); err != nil {
		return fmt.Errorf("transfer ant: %w", err)
	}

	e.publish(models.LedgerEvent{Kind: models.EventAntTransferred, From: caller, To: to, AntID: id, OccurredAt: e.clock.Now()})
	return nil
}

// Reads below go through e.mu so they never observe an operation halfway.

// EggBalance returns the un-minted eggs of owner.
func (e *Engine) EggBalance(owner models.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eggs.BalanceOf(owner)
}

// AntBalance returns the number of live ants of owner.
func (e *Engine) AntBalance(owner models.Address) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ants.BalanceOf(owner)
}

// Ant returns the record of id, tombstones included.
func (e *Engine) Ant(id models.AntID) (models.Ant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ant, ok := e.ants.Get(id)
	if !ok {
		return models.Ant{}, ErrAntNotFound
	}
	return ant, nil
}

// AntsOf lists the live ants of owner.
func (e *Engine) AntsOf(owner models.Address) []models.Ant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ants.OwnedBy(owner)
}

// Holdings returns the eggs and live ants of owner from a single point in
// the operation order.
func (e *Engine) Holdings(owner models.Address) models.Holdings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.Holdings{
		Owner: owner,
		Eggs:  e.eggs.BalanceOf(owner),
		Ants:  e.ants.OwnedBy(owner),
	}
}

// Stats returns a copy of the running totals.
func (e *Engine) Stats() models.EconomyStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Clone()
}

// checkCaller rejects the empty address and the engine's own address, which
// doubles as the treasury and would otherwise pay itself.
// restoreEgg gives back the egg consumed by a failed ant mint. Must be called
// with e.mu held.
func (e *Engine) restoreEgg(caller models.Address) {
	if err := e.eggs.Mint(e.self, caller, 1); err != nil {
		e.logger.Error("egg rollback failed", zap.String("caller", string(caller)), zap.Error(err))
	}
}

func (e *Engine) checkCaller(caller models.Address) error {
	if caller == "" || caller == e.self {
		return ErrInvalidCaller
	}
	return nil
}

// ownedAnt must be called with e.mu held.
func (e *Engine) ownedAnt(caller models.Address, id models.AntID) (models.Ant, error) {
	if err := e.checkCaller(caller); err != nil {
		return models.Ant{}, err
	}
	ant, ok := e.ants.Get(id)
	if !ok || !ant.Alive {
		return models.Ant{}, ErrAntNotFound
	}
	if ant.Owner != caller {
		return models.Ant{}, ErrNotOwner
	}
	return ant, nil
}

func (e *Engine) eggsFit(n uint64) bool {
	supply := e.eggs.TotalSupply()
	return supply+n >= supply
}

func (e *Engine) refund(to models.Address, amount *big.Int) {
	if err := e.bank.Debit(to, amount); err != nil {
		e.logger.Error("refund failed", zap.String("to", string(to)), zap.Stringer("amount", amount), zap.Error(err))
	}
}

// publish must be called with e.mu held.
func (e *Engine) publish(event models.LedgerEvent) {
	e.seq++
	event.Seq = e.seq
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	e.events.Publish(event)
}
