package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/freshcart/internal/config"
	"github.com/Skotchmaster/freshcart/internal/httpserver"
	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/internal/search"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/pkg/db"
	"github.com/Skotchmaster/freshcart/pkg/logging"
	"github.com/Skotchmaster/freshcart/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/freshcart/pkg/middleware/logging"
	"github.com/Skotchmaster/freshcart/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/freshcart/pkg/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	baseCtx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
	gdb, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	router := notify.NewRouter()
	if producer != nil {
		topic := &notify.TopicSender{Publisher: producer, Topic: cfg.NotifyTopic}
		router.Handle(models.ChannelMobile, topic).Handle(models.ChannelWhatsapp, topic)
	} else {
		router.Handle(models.ChannelMobile, notify.LogSender{}).Handle(models.ChannelWhatsapp, notify.LogSender{})
	}
	if cfg.SMTP.Host != "" {
		router.Handle(models.ChannelEmail, notify.NewEmailSender(cfg.SMTP))
	} else {
		router.Handle(models.ChannelEmail, notify.LogSender{})
	}

	var index service.ProductIndexer
	if cfg.ES.URL != "" {
		esCtx, esCancel := context.WithTimeout(baseCtx, 5*time.Second)
		esClient, err := search.NewClient(esCtx, cfg.ES)
		esCancel()
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			index = search.NewProductIndex(esClient, cfg.ESIndex)
		}
	}

	gormRepo := &repo.GormRepo{DB: gdb}
	otpSvc := &service.OtpService{Repo: gormRepo, TTL: cfg.OtpTTL}
	tokenSvc := &service.TokenService{Repo: gormRepo, Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}

	authSvc := &service.AuthService{
		Repo:       gormRepo,
		OTP:        otpSvc,
		Tokens:     tokenSvc,
		Notifier:   router,
		WhatsApp:   notify.StaticWhatsapp{Enabled: cfg.WhatsappEnabled},
		Events:     events,
		PendingTTL: cfg.OtpTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.NewValidator()
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, httpserver.CartSessionHeader, "X-CSRF-Token"},
		ExposeHeaders:    []string{httpserver.CartSessionHeader, "X-CSRF-Token"},
		AllowCredentials: len(cfg.CORSOrigins) > 0 && cfg.CORSOrigins[0] != "*",
	}))
	e.Use(csrf.Middleware(csrf.Config{
		GuardCookies: []string{tokens.AccessCookie, httpserver.CartSessionCookie},
		SkipPaths:    []string{"/health/live", "/health/ready"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		DB: gdb,
		AuthHandler: &httpserver.AuthHTTP{
			Svc:    authSvc,
			Resend: ratelimit.New(int64(cfg.OtpResendLimit), cfg.OtpResendPeriod),
		},
		ProfileHandler:  &httpserver.ProfileHTTP{Svc: &service.ProfileService{Repo: gormRepo, OTP: otpSvc, Notifier: router}},
		CartHandler:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: gormRepo, Events: events}},
		AddressHandler:  &httpserver.AddressHTTP{Svc: &service.AddressService{Repo: gormRepo}},
		LocationHandler: &httpserver.LocationHTTP{Svc: &service.LocationService{Repo: gormRepo}},
		CatalogHandler:  &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: gormRepo, Index: index, Events: events}},
		JWTSecret:       cfg.JWTSecret,
		Tokens:          tokenSvc,
		AuthLimiter:     ratelimit.New(60, time.Minute),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server_starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	logger.Info("shutdown_complete")
}
