// paymentsim is the mock payment provider. It consumes order.created events,
// records a pending payment for each new order and settles it after a short
// delay, driving the same callback path a real provider webhook would hit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/umdsoft/bunyodoptom-backend/internal/config"
	kafkax "github.com/umdsoft/bunyodoptom-backend/internal/kafka"
	"github.com/umdsoft/bunyodoptom-backend/internal/logging"
	"github.com/umdsoft/bunyodoptom-backend/internal/orders"
	"github.com/umdsoft/bunyodoptom-backend/internal/postgres"
	"github.com/umdsoft/bunyodoptom-backend/internal/redisx"
)

const provider = "mockpay"

type simulator struct {
	repo     *orders.Repo
	redis    *redis.Client
	producer *kafkax.Producer
	service  string
	failRate float64
	delay    time.Duration
	log      *zap.Logger
}

func (s *simulator) handleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// dedup on event_id so a re-delivered event does not settle twice
	dkey := fmt.Sprintf(redisx.KeyDedup, "paymentsim", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.redis, dkey); exists {
		return nil
	}
	_ = s.redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(p.TotalAmount)
	if err != nil {
		return err
	}

	pay, err := s.repo.CreatePayment(ctx, p.OrderID, provider, amount)
	if err != nil {
		return err
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	status := orders.PaymentStateSucceeded
	if rand.Float64() < s.failRate {
		status = orders.PaymentStateFailed
	}
	ref := "ref_" + uuid.NewString()
	if _, err := s.repo.ApplyCallback(ctx, pay.ID, status, provider, ref); err != nil {
		return err
	}
	s.log.Info("payment settled",
		zap.Int64("order_id", p.OrderID),
		zap.Int64("payment_id", pay.ID),
		zap.String("status", string(status)))

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventPaymentSettled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.service,
		TraceID:       env.TraceID,
		CorrelationID: strconv.FormatInt(p.OrderID, 10),
		Payload: kafkax.MustMarshal(orders.PaymentSettledPayload{
			OrderID:     p.OrderID,
			PaymentID:   pay.ID,
			Provider:    provider,
			Status:      string(status),
			ProviderRef: ref,
		}),
	}
	s.producer.Publish(orders.PartitionKey(p.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventPaymentSettled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	lg := logging.New(cfg.LogLevel)
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentSettled, 1024)
	prod.Start(ctx)

	sim := &simulator{
		repo:     &orders.Repo{DB: db},
		redis:    rdb,
		producer: prod,
		service:  cfg.ServiceName + "-paymentsim",
		failRate: envFloat("PAYMENTSIM_FAIL_RATE", 0.1),
		delay:    envDuration("PAYMENTSIM_DELAY", 2*time.Second),
		log:      lg,
	}

	group := envString("PAYMENTSIM_GROUP", "paymentsim")
	workers := envInt("PAYMENTSIM_WORKERS", 4)
	cons := kafkax.NewConsumer(lg, cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		lg.Info("paymentsim consumer started",
			zap.String("group", group), zap.Int("workers", workers))
		if err := cons.Start(ctx, sim.handleOrderCreated); err != nil {
			lg.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	lg.Info("shutting down consumer...")
	prod.Close()
	cancel()
	prod.WaitClosed()
}

func envString(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
