package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/economy"
	"github.com/mamadbah2/cryptoants/internal/ledger"
	"github.com/mamadbah2/cryptoants/internal/service/commands"
)

// CallerHeader carries the trusted caller address.
const CallerHeader = "X-Caller"

const callerKey = "caller"

// Economy is the engine surface served over HTTP.
type Economy interface {
	commands.Economy
	Authority() models.Address
	Holdings(owner models.Address) models.Holdings
	Ant(id models.AntID) (models.Ant, error)
	AntsOf(owner models.Address) []models.Ant
	CooldownRemaining(id models.AntID) (time.Duration, error)
	Stats() models.EconomyStats
}

// Wallets reads and funds currency accounts.
type Wallets interface {
	BalanceOf(owner models.Address) *big.Int
	Deposit(to models.Address, amount *big.Int) error
}

// EventReader lists journaled ledger events.
type EventReader interface {
	RecentEvents(ctx context.Context, limit int) ([]models.LedgerEvent, error)
}

// ReportSnapshotter builds the in-progress report.
type ReportSnapshotter interface {
	Snapshot() models.EconomyReport
}

// ClockAdvancer moves simulated time.
type ClockAdvancer interface {
	Advance(d time.Duration) time.Time
}

// Deps collects what the handler serves. Events, Reports and Clock are
// optional; their routes are only mounted when set.
type Deps struct {
	Economy       Economy
	Wallets       Wallets
	Commands      commands.Dispatcher
	Events        EventReader
	Reports       ReportSnapshotter
	Clock         ClockAdvancer
	FaucetEnabled bool
}

// EconomyHandler adapts engine operations to HTTP.
type EconomyHandler struct {
	deps   Deps
	logger *zap.Logger
}

// NewEconomyHandler constructs the HTTP handler adapter.
func NewEconomyHandler(deps Deps, logger *zap.Logger) *EconomyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EconomyHandler{deps: deps, logger: logger}
}

// Deps returns the collaborators the handler was built with.
func (h *EconomyHandler) Deps() Deps { return h.deps }

// Wei amounts travel as JSON numbers of any size.
type buyEggsRequest struct {
	Quantity uint64   `json:"quantity"`
	Paid     *big.Int `json:"paid"`
}

type transferRequest struct {
	To string `json:"to" binding:"required"`
}

type depositRequest struct {
	Amount *big.Int `json:"amount"`
}

type commandRequest struct {
	Text string `json:"text" binding:"required"`
}

type advanceRequest struct {
	Duration string `json:"duration" binding:"required"`
}

// RequireCaller rejects requests without a caller address and requests
// acting as the engine authority.
func (h *EconomyHandler) RequireCaller(c *gin.Context) {
	caller := models.NormalizeAddress(c.GetHeader(CallerHeader))
	if caller == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CallerHeader + " header is required"})
		return
	}
	if caller == h.deps.Economy.Authority() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "the authority address cannot trade"})
		return
	}
	c.Set(callerKey, caller)
	c.Next()
}

// BuyEggs handles egg purchases.
func (h *EconomyHandler) BuyEggs(c *gin.Context) {
	var req buyEggsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid buy payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	caller := callerFrom(c)
	bought, err := h.deps.Economy.BuyEggs(caller, req.Quantity, req.Paid)
	if err != nil {
		h.fail(c, "buy eggs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bought": bought, "eggs": h.deps.Economy.EggBalance(caller)})
}

// CreateAnt mints an ant from one of the caller's eggs.
func (h *EconomyHandler) CreateAnt(c *gin.Context) {
	caller := callerFrom(c)
	id, err := h.deps.Economy.CreateAnt(caller)
	if err != nil {
		h.fail(c, "create ant", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ant_id": id, "eggs": h.deps.Economy.EggBalance(caller)})
}

// CreateEgg makes one of the caller's ants lay.
func (h *EconomyHandler) CreateEgg(c *gin.Context) {
	id, ok := h.antParam(c)
	if !ok {
		return
	}

	res, err := h.deps.Economy.CreateEgg(callerFrom(c), id)
	if err != nil {
		if errors.Is(err, economy.ErrCooldownActive) {
			if remaining, rerr := h.deps.Economy.CooldownRemaining(id); rerr == nil {
				c.Header("Retry-After", strconv.Itoa(int(remaining.Round(time.Second)/time.Second)))
			}
		}
		h.fail(c, "create egg", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// SellAnt liquidates one of the caller's ants.
func (h *EconomyHandler) SellAnt(c *gin.Context) {
	id, ok := h.antParam(c)
	if !ok {
		return
	}

	payout, err := h.deps.Economy.SellAnt(callerFrom(c), id)
	if err != nil {
		h.fail(c, "sell ant", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ant_id": id, "payout": payout, "payout_eth": currency.FormatEther(payout)})
}

// TransferAnt hands an ant to another address.
func (h *EconomyHandler) TransferAnt(c *gin.Context) {
	id, ok := h.antParam(c)
	if !ok {
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	to := models.NormalizeAddress(req.To)
	if err := h.deps.Economy.TransferAnt(callerFrom(c), to, id); err != nil {
		h.fail(c, "transfer ant", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ant_id": id, "owner": to})
}

// GetAnt returns an ant record, tombstones included.
func (h *EconomyHandler) GetAnt(c *gin.Context) {
	id, ok := h.antParam(c)
	if !ok {
		return
	}

	ant, err := h.deps.Economy.Ant(id)
	if err != nil {
		h.fail(c, "get ant", err)
		return
	}

	resp := gin.H{"ant": ant}
	if ant.Alive {
		if remaining, err := h.deps.Economy.CooldownRemaining(id); err == nil {
			resp["cooldown_remaining"] = remaining.String()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetAccount summarizes the holdings of an address.
func (h *EconomyHandler) GetAccount(c *gin.Context) {
	owner := models.NormalizeAddress(c.Param("address"))
	held := h.deps.Economy.Holdings(owner)
	resp := gin.H{
		"address": owner,
		"eggs":    held.Eggs,
		"ants":    held.Ants,
	}
	if h.deps.Wallets != nil {
		balance := h.deps.Wallets.BalanceOf(owner)
		resp["wallet"] = balance
		resp["wallet_eth"] = currency.FormatEther(balance)
	}
	c.JSON(http.StatusOK, resp)
}

// Deposit funds a wallet from the faucet.
func (h *EconomyHandler) Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	owner := models.NormalizeAddress(c.Param("address"))
	if owner == "" || owner == h.deps.Economy.Authority() {
		c.JSON(http.StatusForbidden, gin.H{"error": "deposits to the authority address are not allowed"})
		return
	}
	if err := h.deps.Wallets.Deposit(owner, req.Amount); err != nil {
		h.fail(c, "deposit", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": owner, "wallet": h.deps.Wallets.BalanceOf(owner)})
}

// RunCommand executes a free-form text command.
func (h *EconomyHandler) RunCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cmd := models.ParseCommand(req.Text)
	reply, err := h.deps.Commands.HandleCommand(c.Request.Context(), cmd, callerFrom(c))
	if err != nil {
		h.fail(c, "run command", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"command": cmd.Type, "reply": reply})
}

// ListEvents returns the most recent journaled events.
func (h *EconomyHandler) ListEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = v
	}

	events, err := h.deps.Events.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "list events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Stats returns running totals and the open report window.
func (h *EconomyHandler) Stats(c *gin.Context) {
	resp := gin.H{"stats": h.deps.Economy.Stats()}
	if h.deps.Reports != nil {
		resp["report"] = h.deps.Reports.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// AdvanceClock moves simulated time forward.
func (h *EconomyHandler) AdvanceClock(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	d, err := time.ParseDuration(req.Duration)
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a positive Go duration"})
		return
	}

	now := h.deps.Clock.Advance(d)
	c.JSON(http.StatusOK, gin.H{"now": now})
}

func (h *EconomyHandler) antParam(c *gin.Context) (models.AntID, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ant id"})
		return 0, false
	}
	return models.AntID(v), true
}

func (h *EconomyHandler) fail(c *gin.Context, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
	} else {
		h.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps engine and ledger errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, economy.ErrInsufficientPayment), errors.Is(err, currency.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, economy.ErrAntNotFound):
		return http.StatusNotFound
	case errors.Is(err, economy.ErrNotOwner), errors.Is(err, ledger.ErrNotMinter):
		return http.StatusForbidden
	case errors.Is(err, economy.ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, economy.ErrNoEggsAvailable), errors.Is(err, economy.ErrSupplyExhausted):
		return http.StatusConflict
	case errors.Is(err, economy.ErrInvalidQuantity),
		errors.Is(err, economy.ErrInvalidCaller),
		errors.Is(err, economy.ErrInvalidRecipient),
		errors.Is(err, currency.ErrInvalidAmount),
		errors.Is(err, commands.ErrInvalidArguments),
		errors.Is(err, commands.ErrUnsupportedCommand):
		return http.StatusBadRequest
	case errors.Is(err, currency.ErrTreasuryDepleted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func callerFrom(c *gin.Context) models.Address {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(models.Address); ok {
			return caller
		}
	}
	return ""
}
