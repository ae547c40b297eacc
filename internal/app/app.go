package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/assistant"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel/telegram"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/channel/whatsapp"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/config"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/controller/state"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/metrics"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/repository"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/service"
)

const shutdownTimeout = 15 * time.Second

// App собранные компоненты бота
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	channel   channel.Channel
	router    *controller.Router
	server    *http.Server
	scheduler *Scheduler
	closers   []func()
}

// New подключает хранилища, собирает машину диалога и транспорт.
// Недоступность PostgreSQL или Redis даёт service.ErrStartupConnection
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	business := a.cfg.Business
	loc, err := business.Location()
	if err != nil {
		return err
	}
	hours, err := business.WeeklyHours()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repo, err := a.appointmentRepository(ctx, loc)
	if err != nil {
		return err
	}
	states, err := a.stateStore(ctx, m)
	if err != nil {
		return err
	}

	appointments := service.NewAppointmentService(
		repo,
		business.Catalog(),
		business.ProviderName,
		business.DefaultDurationMinutes,
		service.SystemClock{},
		a.logger,
	)
	booking := service.NewBookingService(appointments, service.BookingOptions{
		Hours:       hours,
		StepMinutes: business.StepMinutes,
		DaysAhead:   business.DaysAhead,
		Location:    loc,
	}, a.logger)

	var ai handlers.Assistant
	if a.cfg.GeminiAPIKey != "" {
		completer, err := assistant.NewGeminiCompleter(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = completer.Close() })
		ai = assistant.New(completer, assistant.Profile{
			ProviderName: business.ProviderName,
			PixKey:       business.PixKey,
			Services:     business.Catalog().Services(),
		}, a.logger)
		a.logger.Info("Assistant enabled")
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.Recoverer)
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	switch a.cfg.Channel {
	case config.ChannelTelegram:
		tg, err := telegram.New(a.cfg.TelegramToken, a.logger)
		if err != nil {
			return fmt.Errorf("create telegram channel: %w", err)
		}
		a.channel = tg
	default:
		wa := whatsapp.New(whatsapp.Config{
			APIURL:        a.cfg.WhatsAppAPIURL,
			Token:         a.cfg.WhatsAppToken,
			PhoneNumberID: a.cfg.WhatsAppPhoneNumberID,
			VerifyToken:   a.cfg.WhatsAppVerifyToken,
			AppSecret:     a.cfg.WhatsAppAppSecret,
		}, a.logger)
		mux.Mount("/webhook/whatsapp", wa.Routes())
		a.channel = wa
	}

	machine := handlers.NewMachine(booking, ai, handlers.Profile{
		ProviderName: business.ProviderName,
		PixKey:       business.PixKey,
	}, m, a.logger)
	messenger := channel.NewPacer(a.channel, a.cfg.TypingDelay, a.logger)
	a.router = controller.NewRouter(machine, states, messenger, int64(a.cfg.MaxConcurrentHandlers), m, a.logger)

	a.server = &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

func (a *App) appointmentRepository(ctx context.Context, loc *time.Location) (service.AppointmentRepository, error) {
	if a.cfg.DBDSN == "" {
		a.logger.Warn("DB_DSN is empty, appointments are kept in memory")
		return repository.NewMemoryAppointmentRepository(), nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: %w", service.ErrStartupConnection, err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: postgres: %w", service.ErrStartupConnection, err)
	}

	migrator, err := NewMigrator(pool, a.logger)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}

	a.logger.Info("Connected to PostgreSQL")
	return repository.NewAppointmentRepository(pool, loc), nil
}

func (a *App) stateStore(ctx context.Context, m *metrics.Metrics) (state.Store, error) {
	if a.cfg.RedisAddr == "" {
		manager := state.NewManager()
		a.scheduler = NewScheduler(manager, a.cfg.StateTTL, m, a.logger)
		return manager, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	a.closers = append(a.closers, func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis: %w", service.ErrStartupConnection, err)
	}

	a.logger.Info("Connected to Redis", zap.String("addr", a.cfg.RedisAddr))
	return state.NewRedisStore(client, a.cfg.StateTTL), nil
}

// Run обслуживает HTTP и канал сообщений до отмены ctx
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.scheduler != nil {
		a.scheduler.Start(gctx)
		defer a.scheduler.Stop()
	}

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		a.logger.Info("Starting channel", zap.String("channel", a.cfg.Channel))
		return a.channel.Run(gctx, a.router.Route)
	})

	err := g.Wait()
	a.logger.Info("App stopped")
	return err
}

// Close закрывает соединения с хранилищами
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
