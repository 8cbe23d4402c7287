package mongodb

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// ErrCounterOverflow is returned when a counter does not fit a BSON int64.
var ErrCounterOverflow = errors.New("counter exceeds int64")

// Wei amounts are stored as base-10 strings. BSON has no unsigned or
// arbitrary precision integer type.
type reportDocument struct {
	Date          time.Time `bson:"date"`
	EggsPurchased int64     `bson:"eggs_purchased"`
	EggsLaid      int64     `bson:"eggs_laid"`
	AntsMinted    int64     `bson:"ants_minted"`
	AntsDied      int64     `bson:"ants_died"`
	AntsSold      int64     `bson:"ants_sold"`
	Revenue       string    `bson:"revenue"`
	Payouts       string    `bson:"payouts"`
	Treasury      string    `bson:"treasury"`
	CreatedAt     time.Time `bson:"created_at"`
}

type eventDocument struct {
	Seq        int64     `bson:"seq"`
	Kind       string    `bson:"kind"`
	From       string    `bson:"from,omitempty"`
	To         string    `bson:"to,omitempty"`
	AntID      int64     `bson:"ant_id,omitempty"`
	Amount     string    `bson:"amount,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

func newReportDocument(report models.EconomyReport) (reportDocument, error) {
	counts := []uint64{report.EggsPurchased, report.EggsLaid, report.AntsMinted, report.AntsDied, report.AntsSold}
	converted := make([]int64, len(counts))
	for i, v := range counts {
		n, err := toInt64(v)
		if err != nil {
			return reportDocument{}, err
		}
		converted[i] = n
	}
	return reportDocument{
		Date:          report.Date,
		EggsPurchased: converted[0],
		EggsLaid:      converted[1],
		AntsMinted:    converted[2],
		AntsDied:      converted[3],
		AntsSold:      converted[4],
		Revenue:       amountString(report.Revenue),
		Payouts:       amountString(report.Payouts),
		Treasury:      amountString(report.Treasury),
		CreatedAt:     report.CreatedAt,
	}, nil
}

func newEventDocument(event models.LedgerEvent) (eventDocument, error) {
	seq, err := toInt64(event.Seq)
	if err != nil {
		return eventDocument{}, fmt.Errorf("seq: %w", err)
	}
	antID, err := toInt64(uint64(event.AntID))
	if err != nil {
		return eventDocument{}, fmt.Errorf("ant id: %w", err)
	}
	doc := eventDocument{
		Seq:        seq,
		Kind:       string(event.Kind),
		From:       string(event.From),
		To:         string(event.To),
		AntID:      antID,
		OccurredAt: event.OccurredAt,
	}
	if event.Amount != nil {
		doc.Amount = event.Amount.String()
	}
	return doc, nil
}

func (d eventDocument) model() (models.LedgerEvent, error) {
	event := models.LedgerEvent{
		Seq:        uint64(d.Seq),
		Kind:       models.EventKind(d.Kind),
		From:       models.Address(d.From),
		To:         models.Address(d.To),
		AntID:      models.AntID(d.AntID),
		OccurredAt: d.OccurredAt,
	}
	if d.Amount != "" {
		amount, err := currency.ParseWei(d.Amount)
		if err != nil {
			return models.LedgerEvent{}, fmt.Errorf("event %d: %w", d.Seq, err)
		}
		event.Amount = amount
	}
	return event, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%d: %w", v, ErrCounterOverflow)
	}
	return int64(v), nil
}
