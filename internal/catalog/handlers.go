package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/pricing"
)

// LookupRecorder observes lookup outcomes ("found", "not_found", "ambiguous").
type LookupRecorder interface {
	RecordLookup(result string)
}

// Handler exposes read-only catalog endpoints.
type Handler struct {
	catalog  *Catalog
	recorder LookupRecorder
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog  *Catalog
	Recorder LookupRecorder
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog, recorder: cfg.Recorder}
}

// ProductView is the public representation of an entry.
type ProductView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
}

// NewProductView renders e with its price rounded to cents.
func NewProductView(e Entry) ProductView {
	return ProductView{ID: e.ID, Name: e.Name, UnitPrice: pricing.Round(e.UnitPrice)}
}

// List handles GET /api/v1/catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	entries := h.catalog.Entries()
	items := make([]ProductView, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewProductView(e))
	}
	common.Data(w, http.StatusOK, items)
}

// Lookup handles GET /api/v1/catalog/lookup?q=.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		common.WriteError(w, &common.AppError{Code: "INVALID_INPUT", Kind: "input_validation", Message: "q is required", HTTPStatus: http.StatusBadRequest})
		return
	}
	entry, err := h.catalog.Lookup(query)
	h.record(err)
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	common.Data(w, http.StatusOK, NewProductView(entry))
}

func (h *Handler) record(err error) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordLookup(LookupResult(err))
}

// LookupResult names the outcome of a lookup for metrics labels.
func LookupResult(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrAmbiguous):
		return "ambiguous"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// AsAppError maps resolution failures onto the API error envelope. Ambiguous
// matches carry the original query and the candidate products.
func AsAppError(err error) *common.AppError {
	var ambiguous *AmbiguousError
	if errors.As(err, &ambiguous) {
		candidates := make([]ProductView, 0, len(ambiguous.Matches))
		for _, m := range ambiguous.Matches {
			candidates = append(candidates, NewProductView(m))
		}
		return &common.AppError{
			Code:       "AMBIGUOUS",
			Kind:       "resolution_failure",
			Message:    ambiguous.Error(),
			HTTPStatus: http.StatusConflict,
			Err:        err,
			Details:    map[string]any{"query": ambiguous.Query, "candidates": candidates},
		}
	}
	if errors.Is(err, ErrNotFound) {
		return &common.AppError{Code: "NOT_FOUND", Kind: "resolution_failure", Message: err.Error(), HTTPStatus: http.StatusNotFound, Err: err}
	}
	return &common.AppError{Code: "INTERNAL", Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
