package obs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-kasir/internal/events"
)

// LogNotifier writes every register event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements events.Notifier.
func (n LogNotifier) Notify(_ context.Context, ev events.Event) error {
	n.Logger.Info().
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		RawJSON("payload", ev.Payload).
		Time("occurred_at", ev.OccurredAt).
		Msg("register_event")
	return nil
}

// MetricsNotifier folds register events into RegisterMetrics.
type MetricsNotifier struct {
	Metrics *RegisterMetrics
}

// Notify implements events.Notifier.
func (n MetricsNotifier) Notify(_ context.Context, ev events.Event) error {
	m := n.Metrics
	if m == nil {
		return nil
	}
	switch ev.Topic {
	case events.TopicItemAdded:
		var p events.ItemAdded
		if err := ev.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Topic, err)
		}
		m.ItemsAdded.Inc()
		m.CartLines.Set(float64(p.CartLines))
	case events.TopicCartCleared:
		m.CartsCleared.Inc()
		m.CartLines.Set(0)
	case events.TopicSaleCompleted:
		var p events.SaleCompleted
		if err := ev.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Topic, err)
		}
		m.SalesTotal.Inc()
		m.RevenueTotal.Add(amount(p.Total))
		m.DiscountTotal.Add(amount(p.Discount))
		if p.Units > 0 {
			m.UnitsSold.Add(float64(p.Units))
		}
		m.SaleAmount.Observe(amount(p.Total))
		m.CartLines.Set(0)
	}
	return nil
}
