package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/journal"
	"github.com/Skotchmaster/storefront/internal/lock"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/metrics"
	"github.com/Skotchmaster/storefront/internal/otp"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/sms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.Database.URL, "SHOP_DATABASE__URL")
	config.MustNonEmpty(cfg.JWT.AccessSecret, "SHOP_JWT__ACCESS_SECRET")
	config.MustNonEmpty(cfg.JWT.RefreshSecret, "SHOP_JWT__REFRESH_SECRET")
	config.MustNonEmpty(cfg.Payment.MerchantID, "SHOP_PAYMENT__MERCHANT_ID")
	config.MustNonEmpty(cfg.Payment.CallbackURL, "SHOP_PAYMENT__CALLBACK_URL")
	config.MustNonEmptySlice(cfg.Kafka.Brokers, "SHOP_KAFKA__BROKERS")

	logger := logging.New(cfg.Log.Level, cfg.Log.File).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.Database.URL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	r := repo.New(gdb)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	catalog := &service.CatalogService{Repo: r, Cache: cache.NewProductCache(rdb)}
	if cfg.Elastic.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewClient(ctx, cfg.Elastic.URL, cfg.Elastic.User, cfg.Elastic.Password, cfg.Elastic.Index)
		cancel()
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		catalog.Index = es
	} else {
		logger.Warn("elasticsearch not configured, search falls back to the database")
	}

	var payJournal journal.Journal = journal.Nop{}
	var mongoClient *mongo.Client
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mdb, err := journal.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			cancel()
			log.Fatalf("mongo: %v", err)
		}
		mj := journal.NewMongoJournal(mdb)
		if err := mj.CreateIndexes(ctx); err != nil {
			logger.Warn("journal_indexes_error", "error", err)
		}
		cancel()
		payJournal = mj
		mongoClient = mdb.Client()
	} else {
		logger.Warn("mongo not configured, payment attempts are not journaled")
	}

	var sender sms.Sender = sms.LogSender{}
	if cfg.SMS.APIURL != "" {
		sender = sms.NewHTTPSender(cfg.SMS.APIURL, cfg.SMS.APIKey, cfg.SMS.Sender)
	}

	gateway := payment.NewBreakerGateway(payment.NewZarinpalClient(payment.ZarinpalConfig{
		MerchantID:  cfg.Payment.MerchantID,
		APIURL:      cfg.Payment.APIURL,
		StartPayURL: cfg.Payment.StartPayURL,
		CallbackURL: cfg.Payment.CallbackURL,
		Timeout:     cfg.Payment.Timeout,
	}), payment.BreakerSettings{Name: "zarinpal", Logger: logger})

	authSvc := &service.AuthService{
		Repo:          r,
		OTP:           otp.NewStore(rdb, cfg.OTP.TTL, cfg.OTP.MaxAttempts),
		SMS:           sender,
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		CodeLength:    cfg.OTP.Length,
	}
	checkout := &service.CheckoutService{
		Repo:       r,
		Gateway:    gateway,
		Locker:     lock.NewRedisLocker(rdb, time.Minute),
		Journal:    payJournal,
		Products:   catalog,
		Policy:     service.StockPolicy(cfg.Checkout.StockPolicy),
		SessionTTL: cfg.Checkout.SessionTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Auth:     &httpserver.AuthHTTP{Svc: authSvc},
		Users:    &httpserver.UserHTTP{Svc: &service.UserService{Repo: r}},
		Catalog:  &httpserver.CatalogHTTP{Svc: catalog},
		Cart:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Wishlist: &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: r}},
		Comments: &httpserver.CommentHTTP{Svc: &service.CommentService{Repo: r}},
		Tickets:  &httpserver.TicketHTTP{Svc: &service.TicketService{Repo: r}},
		Orders:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r}},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkout},
		Bearer:   auth.NewBearerAuth(authSvc.AccessSecret),
		Ready: map[string]httpserver.ReadyCheck{
			"db":    r.Ping,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	workerCtx, stopWorkers := context.WithCancel(logging.IntoContext(context.Background(), logger))
	writer := events.NewKafkaWriter(cfg.Kafka.Brokers...)
	go events.NewOutboxPoller(r, writer, logger).Run(workerCtx)
	go checkout.RunSweeper(workerCtx, cfg.Checkout.SweepInterval)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_error", "error", err)
	}
	stopWorkers()

	if err := writer.Close(); err != nil {
		logger.Warn("kafka_close_error", "error", err)
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
	_ = rdb.Close()
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("storefront stopped")
}
