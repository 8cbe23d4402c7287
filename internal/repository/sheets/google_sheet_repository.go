package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

const (
	dateFormat   = "2006-01-02"
	economyRange = "Economy!A:J"
)

// Exporter pushes economy reports to an external spreadsheet.
type Exporter interface {
	ExportReport(ctx context.Context, report models.EconomyReport) error
}

// GoogleSheetRepository implements Exporter using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed exporter.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ExportReport appends one row per report to the Economy sheet.
func (r *GoogleSheetRepository) ExportReport(ctx context.Context, report models.EconomyReport) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{ReportRow(report)}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, economyRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", economyRange, err)
	}

	r.logger.Debug("economy report exported", zap.String("date", report.Date.Format(dateFormat)))
	return nil
}

// ReportRow flattens a report into sheet cells; currency columns are in ether.
func ReportRow(report models.EconomyReport) []interface{} {
	return []interface{}{
		report.Date.Format(dateFormat),
		report.EggsPurchased,
		report.EggsLaid,
		report.AntsMinted,
		report.AntsDied,
		report.AntsSold,
		currency.FormatEther(report.Revenue),
		currency.FormatEther(report.Payouts),
		currency.FormatEther(report.Treasury),
		report.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
