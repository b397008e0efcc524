package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/leadhub/leadhub-backend/internal/notify"
	"github.com/leadhub/leadhub-backend/pkg/config"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
)

const serviceName = "notify-worker"

func main() {
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting notify worker")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
	log.Info().Msg("worker stopped")
}

func run(cfg *config.Config, log *logger.Logger) (err error) {
	if !cfg.RabbitMQ.Enabled {
		return errors.New("notify worker needs rabbitmq; set LEADHUB_RABBITMQ_ENABLED=true")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rmq.Close()) }()

	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		return err
	}

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}

	m := metrics.New(serviceName)
	handler := notify.NewEventHandler(mailer, m, log)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"rabbitmq": rmq.Health(),
		})
	})
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: r, ReadTimeout: cfg.Server.ReadTimeout}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consume(gctx, rmq, cfg.RabbitMQ.Exchange, handler, log)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newMailer picks the delivery backend. The log driver is for development only.
func newMailer(cfg *config.Config, log *logger.Logger) (notify.Mailer, error) {
	mlog := log.WithComponent("mailer")
	switch cfg.Mail.Driver {
	case config.MailDriverMailgun:
		mlog.Info().Str("domain", cfg.Mail.MailgunDomain).Msg("using mailgun mailer")
		return notify.NewMailgunMailer(cfg.Mail.MailgunDomain, cfg.Mail.MailgunAPIKey, cfg.Mail.MailgunAPIBase, cfg.Mail.From, mlog), nil
	case config.MailDriverLog:
		if config.IsProductionLike(cfg.Server.Environment) {
			return nil, fmt.Errorf("log mailer not allowed in %s; set LEADHUB_MAIL_DRIVER=mailgun", cfg.Server.Environment)
		}
		return notify.LogMailer{Logger: mlog}, nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Mail.Driver)
	}
}

// consume runs the consumer and rebuilds it after the broker drops the channel.
func consume(ctx context.Context, rmq *messaging.RabbitMQ, exchange string, handler *notify.EventHandler, log *logger.Logger) error {
	for {
		consumer, err := notify.NewConsumer(rmq, exchange, handler, log)
		if err != nil {
			return err
		}
		err = consumer.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Msg("consumer interrupted, reconnecting")
		if err := rmq.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
