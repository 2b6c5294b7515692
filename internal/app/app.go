package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"critical-approve/internal/catalog"
	"critical-approve/internal/config"
	"critical-approve/internal/events"
	"critical-approve/internal/executor"
	"critical-approve/internal/handlers"
	"critical-approve/internal/handlers/callbacks"
	"critical-approve/internal/httpserver"
	"critical-approve/internal/logging"
	"critical-approve/internal/metrics"
	"critical-approve/internal/notifier"
	"critical-approve/internal/repositories"
	"critical-approve/internal/scheduler"
	"critical-approve/internal/services"
	rdb "critical-approve/pkg/db/redis"

	botgolang "github.com/mail-ru-im/bot-golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Deps – infrastructure opened by main; Redis and Bot are nil when not configured
type Deps struct {
	DB    *gorm.DB
	Redis *rdb.Store
	Bot   *botgolang.Bot
}

type App struct {
	deps      Deps
	store     repositories.Store
	catalog   *catalog.Catalog
	registry  *services.Registry
	approvals *services.Service
	scheduler *scheduler.Scheduler
	messages  *handlers.MessageHandler
	callbacks *callbacks.Handler
	ops       *httpserver.Server
	kafka     *events.KafkaPublisher
	log       *logrus.Entry
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	a := &App{deps: deps, log: logging.Component("app")}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := repositories.New(deps.DB)
	a.store = store

	if cfg.ActionTypesFile != "" {
		c, err := catalog.Load(cfg.ActionTypesFile)
		if err != nil {
			return nil, err
		}
		a.catalog = c
	}

	var cache services.PolicyCache
	if deps.Redis != nil {
		cache = services.NewRedisPolicyCache(deps.Redis, cfg.Redis.CacheTTL)
	}
	a.registry = services.NewRegistry(store, cache, logging.Component("registry"))

	exec := executor.New(store, executor.DefaultHandlers(invoker(cfg)), cfg.ExecutorTimeout,
		executor.WithMetrics(m), executor.WithLogger(logging.Component("executor")))

	var (
		n       notifier.Notifier
		replier *notifier.BotNotifier
	)
	if deps.Bot != nil {
		replier = notifier.NewBotNotifier(deps.Bot)
		n = replier
	} else {
		n = notifier.NewLogNotifier(logging.Component("notifier"))
	}
	dispatcher := notifier.NewDispatcher(n, cfg.NotifyTimeout, logging.Component("notifier"))

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.PublishTimeout, logging.Component("events"))
		if err != nil {
			return nil, err
		}
		a.kafka = kp
		publisher = kp
	}

	a.approvals = services.New(store, a.registry, exec,
		services.WithDispatcher(dispatcher),
		services.WithPublisher(publisher),
		services.WithMetrics(m),
		services.WithLogger(logging.Component("approvals")),
	)

	a.scheduler = scheduler.New(store, a.registry, a.approvals, dispatcher,
		cfg.Scheduler.Interval, cfg.Scheduler.ReminderWindow,
		scheduler.WithMetrics(m), scheduler.WithLogger(logging.Component("scheduler")))

	if replier != nil {
		a.callbacks = callbacks.New(a.approvals, replier, logging.Component("callbacks"))
		a.messages = handlers.NewMessageHandler(a.approvals, a.callbacks, replier, logging.Component("messages"))
	}

	a.ops = httpserver.New(cfg.OpsAddr, httpserver.NewRouter(reg, a.checks()), logging.Component("ops"))
	return a, nil
}

// invoker – the domain system endpoint; without one every execution ends in execution_error
func invoker(cfg *config.Config) executor.Invoker {
	if cfg.DomainInvokerURL != "" {
		return executor.NewHTTPInvoker(cfg.DomainInvokerURL, &http.Client{Timeout: cfg.ExecutorTimeout})
	}
	return executor.InvokerFunc(func(context.Context, string, []byte) ([]byte, error) {
		return nil, errors.New("DOMAIN_INVOKER_URL not configured")
	})
}

func (a *App) checks() map[string]httpserver.Check {
	checks := map[string]httpserver.Check{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := a.deps.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.deps.Redis != nil {
		checks["redis"] = a.deps.Redis.Ping
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka.Ping
	}
	return checks
}

// Registry – admin operations over action types and standing approvers
func (a *App) Registry() *services.Registry {
	return a.registry
}

// Approvals – request lifecycle operations for the embedding system
func (a *App) Approvals() *services.Service {
	return a.approvals
}

// Run – blocks until SIGINT/SIGTERM or the first component failure
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	if a.catalog != nil {
		if _, err := catalog.Apply(ctx, a.catalog, a.registry, a.store, logging.Component("catalog")); err != nil {
			return fmt.Errorf("apply catalog: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	a.scheduler.Start(ctx)
	// runs before close: the sweep in progress finishes while the store is still open
	defer a.scheduler.Stop()

	g.Go(func() error { return a.ops.Run(ctx) })
	if a.deps.Bot != nil {
		g.Go(func() error { return a.consumeUpdates(ctx) })
	}

	a.log.Info("approval engine started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app stopped: %w", err)
	}
	a.log.Info("approval engine stopped")
	return nil
}

func (a *App) close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.deps.Redis != nil {
		if err := a.deps.Redis.Close(); err != nil {
			a.log.WithError(err).Warn("closing redis")
		}
	}
	if a.deps.DB == nil {
		return
	}
	if sqlDB, err := a.deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
