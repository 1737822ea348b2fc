package register

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/pricing"
)

// Recorder observes register outcomes for metrics.
type Recorder interface {
	RecordLookup(result string)
	RecordFailure(operation, kind string)
}

// Handler wires a single register session to HTTP. Requests are serialised so
// the register only ever sees one operation at a time.
type Handler struct {
	Register *Register
	Recorder Recorder

	mu sync.Mutex
}

// Get returns the cart and bill summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Register == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register not configured", nil)
		return
	}
	var view CartView
	h.locked(func() { view = h.Register.View() })
	common.Data(w, http.StatusOK, view)
}

// AddItem resolves a product query and appends a line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Register == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register not configured", nil)
		return
	}
	var payload struct {
		Query    common.RawInput `json:"query"`
		Quantity common.RawInput `json:"quantity"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	ctx, span := startSpan(r.Context(), "register.add_item")
	var (
		line Line
		view CartView
		err  error
	)
	h.locked(func() {
		line, err = h.Register.AddItem(ctx, payload.Query.String(), payload.Quantity.String())
		view = h.Register.View()
	})
	endSpan(span, err, attribute.Int("register.cart_lines", len(view.Lines)))

	if err == nil || KindOf(err) == KindResolution {
		h.recordLookup(err)
	}
	if err != nil {
		h.recordFailure("add_item", err)
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{
		"line": NewLineView(line),
		"cart": view,
	})
}

// Pay settles the current transaction.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	if h.Register == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register not configured", nil)
		return
	}
	var payload struct {
		AmountPaid common.RawInput `json:"amountPaid"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	ctx, span := startSpan(r.Context(), "register.pay")
	var (
		payment Payment
		err     error
	)
	h.locked(func() { payment, err = h.Register.Pay(ctx, payload.AmountPaid.String()) })
	rules := h.Register.Rules()
	endSpan(span, err, attribute.String("register.transaction_id", payment.TransactionID))

	if err != nil {
		h.recordFailure("pay", err)
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, NewPaymentView(payment, rules))
}

// Clear discards the current transaction.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Register == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register not configured", nil)
		return
	}
	ctx, span := startSpan(r.Context(), "register.clear")
	var view CartView
	h.locked(func() {
		h.Register.Clear(ctx)
		view = h.Register.View()
	})
	endSpan(span, nil)
	common.Data(w, http.StatusOK, view)
}

// locked runs fn holding the register mutex, releasing it even if fn panics.
func (h *Handler) locked(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("register").Start(ctx, name)
}

func endSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if err != nil {
		span.SetAttributes(attribute.String("register.error_kind", string(KindOf(err))))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (h *Handler) recordLookup(err error) {
	if h.Recorder != nil {
		h.Recorder.RecordLookup(catalog.LookupResult(err))
	}
}

func (h *Handler) recordFailure(operation string, err error) {
	if h.Recorder != nil {
		h.Recorder.RecordFailure(operation, string(KindOf(err)))
	}
}

func toAppError(err error) *common.AppError {
	kind := KindOf(err)
	switch kind {
	case KindInputValidation:
		return &common.AppError{Code: "INVALID_INPUT", Kind: string(kind), Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	case KindResolution:
		return catalog.AsAppError(err)
	case KindPayment:
		var short *InsufficientPaymentError
		if errors.As(err, &short) {
			return &common.AppError{
				Code:       "PAYMENT_FAILED",
				Kind:       string(kind),
				Message:    short.Error(),
				HTTPStatus: http.StatusUnprocessableEntity,
				Err:        err,
				Details: map[string]any{
					"amountPaid": pricing.Round(short.Paid),
					"total":      pricing.Round(short.Total),
				},
			}
		}
		return &common.AppError{Code: "EMPTY_CART", Kind: string(kind), Message: err.Error(), HTTPStatus: http.StatusUnprocessableEntity, Err: err}
	default:
		return &common.AppError{Code: "INTERNAL", Kind: string(KindInternal), Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
	}
}
