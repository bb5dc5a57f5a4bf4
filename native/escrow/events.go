package escrow

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"escrowswap/core/events"
	"escrowswap/core/types"
	"escrowswap/observability/metrics"
)

const (
	EventTypeMade     = "escrow.made"
	EventTypeTaken    = "escrow.taken"
	EventTypeRefunded = "escrow.refunded"
)

func newMadeEvent(escrow, vault solana.PublicKey, r *Record, seed uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMade,
		Attributes: map[string]string{
			"escrow":         escrow.String(),
			"vault":          vault.String(),
			"maker":          r.Maker.String(),
			"mintA":          r.MintA.String(),
			"mintB":          r.MintB.String(),
			"receiveAccount": r.ReceiveAccount.String(),
			"amount":         strconv.FormatUint(r.Amount, 10),
			"seed":           strconv.FormatUint(seed, 10),
		},
	}
}

// newClosedEvent describes a take or refund; closer receives the reclaimed
// balances.
func newClosedEvent(eventType string, escrow solana.PublicKey, r *Record, closer solana.PublicKey) *types.Event {
	attrs := map[string]string{
		"escrow": escrow.String(),
		"maker":  r.Maker.String(),
		"mintA":  r.MintA.String(),
		"mintB":  r.MintB.String(),
		"amount": strconv.FormatUint(r.Amount, 10),
	}
	if eventType == EventTypeTaken {
		attrs["taker"] = closer.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// MetricsEmitter counts committed escrow transitions.
type MetricsEmitter struct {
	Metrics *metrics.LedgerMetrics
}

// Emit implements events.Emitter.
func (m MetricsEmitter) Emit(evt events.Event) {
	switch evt.EventType() {
	case EventTypeMade:
		m.Metrics.ObserveEscrowTransition("made")
	case EventTypeTaken:
		m.Metrics.ObserveEscrowTransition("taken")
	case EventTypeRefunded:
		m.Metrics.ObserveEscrowTransition("refunded")
	}
}
