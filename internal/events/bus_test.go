package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/events"
)

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitDispatchesToNotifiers(t *testing.T) {
	first := &captureNotifier{}
	second := &captureNotifier{}
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	bus := events.Bus{
		Notifiers: []events.Notifier{first, nil, second},
		Now:       func() time.Time { return fixed },
	}

	payload := events.ItemAdded{ProductID: "101", Name: "Apple", Quantity: 2, LineTotal: decimal.RequireFromString("3.00"), CartLines: 1}
	ev, err := bus.Emit(context.Background(), events.TopicItemAdded, payload)
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, fixed, ev.OccurredAt)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.Equal(t, ev.ID, second.events[0].ID)

	var decoded events.ItemAdded
	require.NoError(t, ev.Decode(&decoded))
	require.Equal(t, "Apple", decoded.Name)
	require.True(t, decoded.LineTotal.Equal(decimal.RequireFromString("3")))
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	failing := &captureNotifier{err: errors.New("boom")}
	healthy := &captureNotifier{}
	var reported error
	bus := events.Bus{
		Notifiers: []events.Notifier{failing, healthy},
		OnError:   func(_ events.Event, err error) { reported = err },
	}

	_, err := bus.Emit(context.Background(), events.TopicCartCleared, events.CartCleared{DiscardedLines: 3})
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
	require.Equal(t, err, reported)
	require.Len(t, healthy.events, 1)
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), "  ", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicCartCleared, []byte("{not json"))
	require.Error(t, err)

	ev, err := bus.Emit(context.Background(), events.TopicCartCleared, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(ev.Payload))

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicCartCleared, nil)
	require.Error(t, err)
}

func TestNotifierFunc(t *testing.T) {
	called := false
	n := events.NotifierFunc(func(context.Context, events.Event) error {
		called = true
		return nil
	})
	bus := events.Bus{Notifiers: []events.Notifier{n}}
	_, err := bus.Emit(context.Background(), events.TopicSaleCompleted, events.SaleCompleted{TransactionID: "t-1"})
	require.NoError(t, err)
	require.True(t, called)
}

func TestEmitRecoversNotifierPanic(t *testing.T) {
	after := &captureNotifier{}
	var reported error
	bus := events.Bus{
		Notifiers: []events.Notifier{
			events.NotifierFunc(func(context.Context, events.Event) error { panic("counter cannot decrease") }),
			after,
		},
		OnError: func(_ events.Event, err error) { reported = err },
	}

	_, err := bus.Emit(context.Background(), events.TopicSaleCompleted, events.SaleCompleted{TransactionID: "txn-1"})
	require.ErrorContains(t, err, "panic: counter cannot decrease")
	require.Equal(t, err, reported)
	require.Len(t, after.events, 1)
}
