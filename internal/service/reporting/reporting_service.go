package reporting

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

const dateLayout = "2006-01-02"

// StatsSource exposes the running totals of the engine.
type StatsSource interface {
	Stats() models.EconomyStats
}

// TreasurySource reports the treasury balance.
type TreasurySource interface {
	Treasury() models.Address
	BalanceOf(owner models.Address) *big.Int
}

// ReportStore persists generated reports.
type ReportStore interface {
	SaveEconomyReport(ctx context.Context, report models.EconomyReport) error
}

// ReportExporter publishes reports to an external sheet.
type ReportExporter interface {
	ExportReport(ctx context.Context, report models.EconomyReport) error
}

// Service turns engine totals into periodic reports. Each report covers the
// activity since the previous one.
type Service struct {
	stats    StatsSource
	treasury TreasurySource
	store    ReportStore
	exporter ReportExporter
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	last models.EconomyStats
}

// NewService wires a new reporting service instance. store and exporter are
// optional.
func NewService(stats StatsSource, treasury TreasurySource, store ReportStore, exporter ReportExporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stats:    stats,
		treasury: treasury,
		store:    store,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
		last:     models.EconomyStats{}.Clone(),
	}
}

// Snapshot builds the report for the current window without closing it.
func (s *Service) Snapshot() models.EconomyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build(s.stats.Stats(), s.now().UTC())
}

// GenerateDailyReport closes the current window, persists the report and
// returns a human readable summary.
func (s *Service) GenerateDailyReport(ctx context.Context) (models.EconomyReport, string, error) {
	s.mu.Lock()
	current := s.stats.Stats()
	report := s.build(current, s.now().UTC())
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveEconomyReport(ctx, report); err != nil {
			return report, "", fmt.Errorf("save economy report: %w", err)
		}
	}

	s.mu.Lock()
	s.last = current.Clone()
	s.mu.Unlock()

	if s.exporter != nil {
		if err := s.exporter.ExportReport(ctx, report); err != nil {
			s.logger.Warn("economy report export failed", zap.Error(err))
		}
	}

	summary := Summarize(report)
	s.logger.Info("economy report generated", zap.String("date", report.Date.Format(dateLayout)))
	return report, summary, nil
}

// build must be called with s.mu held.
func (s *Service) build(current models.EconomyStats, now time.Time) models.EconomyReport {
	report := models.EconomyReport{
		Date:          time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		EggsPurchased: current.EggsPurchased - s.last.EggsPurchased,
		EggsLaid:      current.EggsLaid - s.last.EggsLaid,
		AntsMinted:    current.AntsMinted - s.last.AntsMinted,
		AntsDied:      current.AntsDied - s.last.AntsDied,
		AntsSold:      current.AntsSold - s.last.AntsSold,
		Revenue:       delta(current.Revenue, s.last.Revenue),
		Payouts:       delta(current.Payouts, s.last.Payouts),
		CreatedAt:     now,
	}
	if s.treasury != nil {
		report.Treasury = currency.Copy(s.treasury.BalanceOf(s.treasury.Treasury()))
	} else {
		report.Treasury = new(big.Int)
	}
	return report
}

func delta(current, last *big.Int) *big.Int {
	return new(big.Int).Sub(currency.Copy(current), currency.Copy(last))
}

// Summarize formats a report for chat or log output.
func Summarize(report models.EconomyReport) string {
	date := report.Date.Format(dateLayout)
	if report.EggsPurchased == 0 && report.EggsLaid == 0 && report.AntsMinted == 0 && report.AntsSold == 0 && report.AntsDied == 0 {
		return fmt.Sprintf("Economy (%s): no activity. Treasury %s ETH.", date, currency.FormatEther(report.Treasury))
	}

	mortality := "no deaths"
	if report.AntsDied > 0 && report.AntsMinted > 0 {
		rate := float64(report.AntsDied) / float64(report.AntsMinted) * 100
		mortality = fmt.Sprintf("%d deaths (%.2f%% of new ants)", report.AntsDied, rate)
	} else if report.AntsDied > 0 {
		mortality = fmt.Sprintf("%d deaths", report.AntsDied)
	}

	return fmt.Sprintf("Economy (%s): %d eggs bought, %d laid, %d ants minted, %d sold, %s. Revenue %s ETH, payouts %s ETH, treasury %s ETH.",
		date,
		report.EggsPurchased,
		report.EggsLaid,
		report.AntsMinted,
		report.AntsSold,
		mortality,
		currency.FormatEther(report.Revenue),
		currency.FormatEther(report.Payouts),
		currency.FormatEther(report.Treasury))
}
