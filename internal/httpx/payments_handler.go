package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	kafkax "github.com/umdsoft/bunyodoptom-backend/internal/kafka"
	"github.com/umdsoft/bunyodoptom-backend/internal/orders"
)

type createPaymentReq struct {
	OrderID  int64  `json:"order_id" validate:"required"`
	Provider string `json:"provider" validate:"omitempty,max=64"`
	Amount   string `json:"amount" validate:"required"`
}

func (a *API) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		respondMessage(w, http.StatusBadRequest, "invalid amount")
		return
	}
	provider := req.Provider
	if provider == "" {
		provider = "manual"
	}

	pay, err := a.Orders.CreatePayment(r.Context(), req.OrderID, provider, amount)
	if err != nil {
		respondError(w, err)
		return
	}

	// mock pay URL; a real integration would return the provider's redirect
	respondData(w, http.StatusCreated, map[string]any{
		"payment_id": pay.ID,
		"provider":   provider,
		"pay_url": fmt.Sprintf("/api/v1/payments/callback/%s?payment_id=%d&status=succeeded",
			provider, pay.ID),
	})
}

// paymentCallback is the provider-facing stub. It has no replay protection
// and forces the order state on success; both are documented gaps.
func (a *API) paymentCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	paymentID, err := strconv.ParseInt(q.Get("payment_id"), 10, 64)
	if err != nil || paymentID <= 0 {
		respondMessage(w, http.StatusBadRequest, "payment_id required")
		return
	}
	status := orders.PaymentState(q.Get("status"))
	if status == "" {
		status = orders.PaymentStateSucceeded
	}
	if status != orders.PaymentStateSucceeded && status != orders.PaymentStateFailed {
		respondMessage(w, http.StatusBadRequest, "invalid status")
		return
	}
	providerRef := q.Get("provider_ref")
	if providerRef == "" {
		providerRef = "ref_" + uuid.NewString()
	}

	pay, err := a.Orders.ApplyCallback(r.Context(), paymentID, status, provider, providerRef)
	if err != nil {
		respondError(w, err)
		return
	}

	a.publishPaymentSettled(pay, provider, string(status), providerRef)
	respondMessage(w, http.StatusOK, "Callback processed")
}

func (a *API) publishPaymentSettled(pay *orders.Payment, provider, status, providerRef string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventPaymentSettled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      a.Service,
		CorrelationID: strconv.FormatInt(pay.OrderID, 10),
		Payload: kafkax.MustMarshal(orders.PaymentSettledPayload{
			OrderID:     pay.OrderID,
			PaymentID:   pay.ID,
			Provider:    provider,
			Status:      status,
			ProviderRef: providerRef,
		}),
	}
	a.PaymentProducer.Publish(orders.PartitionKey(pay.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventPaymentSettled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
