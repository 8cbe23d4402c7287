package economy

import (
	"math/big"

	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// CurrencyLedger settles payments. Credit pulls funds from the payer into the
// treasury, Debit pays the recipient out of it.
type CurrencyLedger interface {
	Credit(from models.Address, amount *big.Int) error
	Debit(to models.Address, amount *big.Int) error
}

// Publisher receives ownership-change notifications once an operation has been
// applied. Implementations must not block.
type Publisher interface {
	Publish(event models.LedgerEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.LedgerEvent) {}
