package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/umdsoft/bunyodoptom-backend/internal/auth"
	kafkax "github.com/umdsoft/bunyodoptom-backend/internal/kafka"
	"github.com/umdsoft/bunyodoptom-backend/internal/orders"
	"github.com/umdsoft/bunyodoptom-backend/internal/redisx"
)

type checkoutReq struct {
	UserID         int64              `json:"user_id" validate:"required"`
	AddressID      *int64             `json:"address_id"`
	IdempotencyKey *string            `json:"idempotency_key" validate:"omitempty,max=64"`
	Notes          *string            `json:"notes" validate:"omitempty,max=500"`
	Items          []orders.ItemInput `json:"items" validate:"required,min=1,dive"`
}

func (a *API) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	claims := auth.FromContext(r.Context())
	if req.UserID != claims.UserID && !claims.IsAdmin {
		respondMessage(w, http.StatusForbidden, "Forbidden")
		return
	}

	ctx := r.Context()

	// Redis fast path. The idempotency_key column stays the source of truth;
	// the cache only spares the lock acquisition on obvious retries.
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		key := fmt.Sprintf(redisx.KeyIdemCheckout, *req.IdempotencyKey)
		if s, err := a.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			if id, err := strconv.ParseInt(s, 10, 64); err == nil {
				if o, err := a.Orders.Get(ctx, id); err == nil {
					respondData(w, http.StatusCreated, o)
					return
				}
			}
		}
	}

	o, err := a.Orders.Checkout(ctx, orders.CheckoutInput{
		UserID:         req.UserID,
		AddressID:      req.AddressID,
		IdempotencyKey: req.IdempotencyKey,
		Notes:          req.Notes,
		Items:          req.Items,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		key := fmt.Sprintf(redisx.KeyIdemCheckout, *req.IdempotencyKey)
		_ = a.Redis.Set(ctx, key, strconv.FormatInt(o.ID, 10), redisx.TTLIdempotency).Err()
	}
	a.cacheOrderStatus(r, o)

	a.publishOrderCreated(r, o, len(req.Items))
	respondData(w, http.StatusCreated, o)
}

func (a *API) cacheOrderStatus(r *http.Request, o *orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body := fmt.Sprintf(`{"status":%q,"payment_status":%q}`, o.Status, o.PaymentStatus)
	_ = a.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
}

func (a *API) publishOrderCreated(r *http.Request, o *orders.Order, itemCount int) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      a.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: strconv.FormatInt(o.ID, 10),
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:     o.ID,
			UserID:      o.UserID,
			TotalAmount: o.TotalAmount.StringFixed(2),
			ItemCount:   itemCount,
		}),
	}
	a.OrderProducer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	list, err := a.Orders.List(r.Context(), claims.UserID, claims.IsAdmin)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	claims := auth.FromContext(r.Context())
	o, err := a.Orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !claims.IsAdmin && o.UserID != claims.UserID {
		respondMessage(w, http.StatusForbidden, "Forbidden")
		return
	}
	items, err := a.Orders.Items(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"order": o, "items": items})
}

func (a *API) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	claims := auth.FromContext(r.Context())
	o, err := a.Orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !claims.IsAdmin && o.UserID != claims.UserID {
		respondMessage(w, http.StatusForbidden, "Forbidden")
		return
	}
	o, err = a.Orders.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	a.cacheOrderStatus(r, o)
	respondMessage(w, http.StatusOK, "Cancelled")
}

type statusReq struct {
	Status string `json:"status" validate:"required,oneof=created cancelled shipping delivered completed"`
}

func (a *API) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req statusReq
	if bindJSON(w, r, &req) != nil {
		return
	}
	o, err := a.Orders.UpdateStatus(r.Context(), id, orders.Status(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	a.cacheOrderStatus(r, o)
	a.Log.Info("order status forced",
		zap.Int64("order_id", id), zap.String("status", req.Status))
	respondData(w, http.StatusOK, o)
}
