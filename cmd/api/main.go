package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/umdsoft/bunyodoptom-backend/internal/catalog"
	"github.com/umdsoft/bunyodoptom-backend/internal/config"
	"github.com/umdsoft/bunyodoptom-backend/internal/httpx"
	kafkax "github.com/umdsoft/bunyodoptom-backend/internal/kafka"
	"github.com/umdsoft/bunyodoptom-backend/internal/logging"
	"github.com/umdsoft/bunyodoptom-backend/internal/orders"
	"github.com/umdsoft/bunyodoptom-backend/internal/postgres"
	"github.com/umdsoft/bunyodoptom-backend/internal/redisx"
	"github.com/umdsoft/bunyodoptom-backend/internal/uploads"
	"github.com/umdsoft/bunyodoptom-backend/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	lg := logging.New(cfg.LogLevel)
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		lg.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	orderProd.Start(ctx)
	payProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentSettled, 1024)
	payProd.Start(ctx)

	api := &httpx.API{
		Log:             lg,
		Users:           &users.Repo{DB: db},
		Catalog:         &catalog.Repo{DB: db},
		Orders:          &orders.Repo{DB: db},
		Storage:         &uploads.Storage{BaseDir: cfg.UploadDir, MaxSize: cfg.MaxUploadMB << 20},
		Redis:           rdb,
		OrderProducer:   orderProd,
		PaymentProducer: payProd,
		Service:         cfg.ServiceName,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          cfg.JWTTTL,
		MaxFiles:        cfg.MaxFiles,
	}

	router := httpx.NewRouter(lg, cfg.UploadDir)
	api.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		lg.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	lg.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	orderProd.Close()
	payProd.Close()
	cancel()
	orderProd.WaitClosed()
	payProd.WaitClosed()
}
