package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/umdsoft/bunyodoptom-backend/internal/catalog"
	"github.com/umdsoft/bunyodoptom-backend/internal/orders"
	"github.com/umdsoft/bunyodoptom-backend/internal/uploads"
	"github.com/umdsoft/bunyodoptom-backend/internal/users"
)

// Every endpoint answers {"success":bool, "data"|"message":...}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Success: code < 400, Message: msg})
}

// statusForError maps the domain taxonomy onto HTTP codes. Anything unknown
// is a 500 with a generic body so internals never leak.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrProductInactive),
		errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrStockRace),
		errors.Is(err, orders.ErrInvalidStateTransition),
		errors.Is(err, orders.ErrValidation),
		errors.Is(err, catalog.ErrImageMismatch),
		errors.Is(err, uploads.ErrUnsupportedType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, users.ErrAddressNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, users.ErrPhoneTaken),
		errors.Is(err, catalog.ErrCategoryExists):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func respondError(w http.ResponseWriter, err error) {
	code, msg := statusForError(err)
	respondMessage(w, code, msg)
}
