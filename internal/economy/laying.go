package economy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/randomness"
)

// CreateEgg makes a live ant of caller lay a random batch of eggs. The same
// call may kill the ant; the eggs it laid are credited either way.
func (e *Engine) CreateEgg(caller models.Address, id models.AntID) (models.LayResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ant, err := e.ownedAnt(caller, id)
	if err != nil {
		return models.LayResult{}, err
	}

	now := e.clock.Now()
	if remaining := e.cooldownRemaining(ant, now); remaining > 0 {
		return models.LayResult{}, fmt.Errorf("%w: %s remaining", ErrCooldownActive, remaining)
	}

	laid := e.drawYield()
	died := e.rollDeath()

	if !e.eggsFit(laid) {
		return models.LayResult{}, ErrSupplyExhausted
	}
	if err := e.eggs.Mint(e.self, caller, laid); err != nil {
		return models.LayResult{}, fmt.Errorf("credit laid eggs: %w", err)
	}
	if err := e.ants.RecordLay(e.self, id, now); err != nil {
		return models.LayResult{}, fmt.Errorf("record lay: %w", err)
	}

	e.stats.EggsLaid += laid
	e.publish(models.LedgerEvent{Kind: models.EventEggsMinted, To: caller, AntID: id, Amount: currency.Wei(laid), OccurredAt: now})

	if died {
		if err := e.ants.Burn(e.self, id); err != nil {
			return models.LayResult{}, fmt.Errorf("bury ant: %w", err)
		}
		e.stats.AntsDied++
		e.publish(models.LedgerEvent{Kind: models.EventAntDied, From: caller, AntID: id, OccurredAt: now})
		e.logger.Info("ant died while laying", zap.String("owner", string(caller)), zap.Uint64("ant_id", uint64(id)))
	}

	e.logger.Debug("eggs laid",
		zap.String("caller", string(caller)),
		zap.Uint64("ant_id", uint64(id)),
		zap.Uint64("eggs", laid),
		zap.Bool("died", died))

	return models.LayResult{AntID: id, EggsLaid: laid, Died: died}, nil
}

// CooldownRemaining reports how long ant id still has to wait before it may
// lay again. Zero means it can lay now.
func (e *Engine) CooldownRemaining(id models.AntID) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ant, ok := e.ants.Get(id)
	if !ok || !ant.Alive {
		return 0, ErrAntNotFound
	}
	return e.cooldownRemaining(ant, e.clock.Now()), nil
}

// An ant that never laid is measured from its creation only when
// CooldownFromMint is set.
func (e *Engine) cooldownRemaining(ant models.Ant, now time.Time) time.Duration {
	if !ant.HasLaid && !e.cfg.CooldownFromMint {
		return 0
	}
	elapsed := now.Sub(ant.LastLayTime)
	if elapsed >= e.cfg.Cooldown {
		return 0
	}
	return e.cfg.Cooldown - elapsed
}

// drawYield maps one draw onto [YieldMin, YieldMax]. A span of zero means the
// full uint64 range.
func (e *Engine) drawYield() uint64 {
	span := e.cfg.YieldMax - e.cfg.YieldMin + 1
	return e.cfg.YieldMin + randomness.Uniform(e.rng, span)
}

// rollDeath always consumes a draw so scripted sources stay in step.
func (e *Engine) rollDeath() bool {
	return randomness.Uniform(e.rng, 100) < e.cfg.DeathPercent
}
