package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/config"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/handlers"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/metrics"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/middleware"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/monitor"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/realtime"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/repositories"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/routes"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/services"
)

const shutdownTimeout = 15 * time.Second

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("[app] unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Run wires the service and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := newLogger(cfg.Log.Level)

	// === Store ===
	var (
		store    repositories.TaskStore
		contacts repositories.ContactDirectory = repositories.StaticContacts{}
	)
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Warn("[app] close database")
			}
		}()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := repositories.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		store = repositories.NewTaskRepository(db)
		contacts = repositories.NewContactRepository(db)
		log.Info("[app] using postgres task store")
	} else {
		store = repositories.NewMemoryTaskRepository()
		log.Warn("[app] database url empty, using in-memory task store")
	}

	// === Engine ===
	m := metrics.NewWorkflow(prometheus.DefaultRegisterer)
	hub := realtime.NewTaskHub(cfg.Workflow.EventBuffer, m)
	engine := services.NewWorkflowService(store,
		services.WithMonitor(monitor.New(cfg.Workflow.AtRiskWindow)),
		services.WithEventPublisher(hub),
		services.WithMetrics(m),
		services.WithLogger(log),
	)

	// === Notifier ===
	var email services.EmailService
	if cfg.Notify.Email.Enabled {
		e := cfg.Notify.Email
		email = services.NewEmailService(e.SMTPHost, e.SMTPPort, e.SMTPUser, e.SMTPPassword, e.FromEmail)
	}
	var tg services.TelegramSender
	if cfg.Notify.Telegram.Enabled {
		svc, err := services.NewTelegramService(cfg.Notify.Telegram.BotToken, log)
		if err != nil {
			return err
		}
		tg = svc
	}
	if email != nil || tg != nil {
		notifier := services.NewNotificationService(contacts, email, tg, log)
		go notifier.Run(ctx, hub)
	}

	// === HTTP ===
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(corsMiddleware())

	retry := services.RetryConfig{
		MaxAttempts: cfg.Workflow.RetryAttempts,
		BaseDelay:   cfg.Workflow.RetryBaseDelay,
		MaxDelay:    cfg.Workflow.RetryMaxDelay,
	}
	routes.SetupRoutes(
		router,
		routes.AuthConfig{Secret: []byte(cfg.Auth.JWTSecret), Leeway: cfg.Auth.Leeway},
		handlers.NewTaskHandler(engine, retry, m, log),
		handlers.NewEventsHandler(hub, log),
		promhttp.Handler(),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("[app] listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
