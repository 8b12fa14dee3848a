package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/escape-room-booking/internal/config"
	"github.com/iliyamo/escape-room-booking/internal/database"
	"github.com/iliyamo/escape-room-booking/internal/handler"
	"github.com/iliyamo/escape-room-booking/internal/logger"
	"github.com/iliyamo/escape-room-booking/internal/mail"
	"github.com/iliyamo/escape-room-booking/internal/middleware"
	"github.com/iliyamo/escape-room-booking/internal/notify"
	"github.com/iliyamo/escape-room-booking/internal/queue"
	"github.com/iliyamo/escape-room-booking/internal/realtime"
	"github.com/iliyamo/escape-room-booking/internal/repository"
	"github.com/iliyamo/escape-room-booking/internal/router"
	"github.com/iliyamo/escape-room-booking/internal/service"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// backend is the store plus the notification and staff views main wires
// into the notifier.
type backend interface {
	store.Store
	store.Notifications
	store.StaffDirectory
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Pinger{}

	st, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["mysql"] = db
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting, caching and realtime disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var rt realtime.Publisher = realtime.Nop{}
	if rdb != nil {
		rt = realtime.NewRedisPublisher(rdb, cfg.RealtimeChannel)
	}

	var mailer mail.Mailer = mail.LogMailer{Log: log}
	if cfg.MailerSendAPIKey != "" {
		mailer = mail.NewMailerSend(cfg.MailerSendAPIKey, cfg.MailFrom, cfg.MailFromName, log)
	}

	var emails notify.EmailQueue = notify.DirectQueue{Mailer: mailer}
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL, cfg.EmailQueue, log)
		defer pub.Close()
		emails = pub

		consumer := &queue.Consumer{
			URL:    cfg.RabbitURL,
			Queue:  cfg.EmailQueue,
			Handle: notify.Deliver(mailer),
			Log:    log.Named("email-consumer"),
		}
		go func() { _ = consumer.Run(ctx) }()
	}

	notifier, err := notify.New(notify.Config{
		Venue:        cfg.VenueName,
		DashboardURL: cfg.DashboardURL,
		Location:     cfg.Location,
	}, emails, st, st, rt, log.Named("notify"))
	if err != nil {
		return err
	}

	guard := service.NewQuotaGuard(cfg.MaxPerDay, cfg.Location)
	reservations := service.NewReservationService(st,
		service.WithNotifier(notifier),
		service.WithQuotaGuard(guard),
		service.WithLogger(log.Named("reservations")),
	)
	slots := service.NewTimeSlotService(st, guard)
	notifications := service.NewNotificationService(st)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))

	router.RegisterRoutes(e, router.Deps{
		Reservations:  handler.NewReservationHandler(reservations),
		TimeSlots:     handler.NewTimeSlotHandler(slots),
		Notifications: handler.NewNotificationHandler(notifications),
		Health:        handler.Health(checks),
		JWTSecret:     cfg.JWTSecret,
		RateLimit:     middleware.RateLimit(cfg.RateLimit, rdb, log.Named("ratelimit")),
		Cache:         middleware.ResponseCache(cfg.Cache, rdb),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (backend, *sql.DB, error) {
	if cfg.StoreDriver == config.DriverMemory {
		mem := store.NewMemory()
		seedDemo(mem, cfg.Location, time.Now())
		log.Warn("using in-memory store; data is lost on restart")
		return mem, nil, nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("schema applied")
	}
	return repository.NewStore(db, cfg.DB.TxRetries, log.Named("store")), db, nil
}
