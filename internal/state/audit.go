package state

import (
	"context"

	"github.com/goatnetwork/covered-call/internal/db"
	log "github.com/sirupsen/logrus"
)

const auditChanLength = 256

// AuditLogger writes one structured line per committed covered call.
type AuditLogger struct {
	bus    *EventBus
	ch     chan interface{}
	logger *log.Entry
}

func NewAuditLogger(bus *EventBus) *AuditLogger {
	a := &AuditLogger{
		bus:    bus,
		ch:     make(chan interface{}, auditChanLength),
		logger: log.WithFields(log.Fields{"module": "audit"}),
	}
	bus.Subscribe(CoveredCallInitialized, a.ch)
	return a
}

func (a *AuditLogger) Start(ctx context.Context) {
	defer a.bus.Unsubscribe(CoveredCallInitialized, a.ch)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Audit logger stopped")
			return
		case ev := <-a.ch:
			call, ok := ev.(db.CoveredCall)
			if !ok {
				a.logger.Warnf("Unexpected event payload %T", ev)
				continue
			}
			a.logger.WithFields(log.Fields{
				"escrow":       call.Address,
				"vault":        call.Vault,
				"seller":       call.Seller,
				"buyer":        call.Buyer,
				"mint_base":    call.MintBase,
				"mint_quote":   call.MintQuote,
				"amount_base":  call.AmountBase,
				"amount_quote": call.AmountQuote,
				"expiry":       call.TimestampExpiry,
			}).Info("covered_call.initialized")
		}
	}
}
