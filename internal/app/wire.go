package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/handler"
	"github.com/fincore/platform/internal/infra"
	"github.com/fincore/platform/internal/ledger"
	"github.com/fincore/platform/internal/outbox"
	"github.com/fincore/platform/internal/projection"
	"github.com/fincore/platform/internal/repository"
	"github.com/fincore/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	Cache  projection.Store
	Sender outbox.Sender
	// Optional: nil Metrics skips instrumentation and the /metrics route;
	// a disabled Mirror turns queue deliveries into database-only writes.
	Metrics     *infra.Metrics
	Mirror      *infra.KafkaProducer
	MirrorTopic string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	logger := deps.Logger

	// Repositories
	depositRepo := repository.NewDepositAccountRepository()
	loanRepo := repository.NewLoanAccountRepository()
	ledgerRepo := repository.NewLedgerRepository()
	eventRepo := repository.NewEventRepository()
	outboxRepo := repository.NewOutboxRepository()
	queueRepo := repository.NewQueueRepository()
	subscriptionRepo := repository.NewWebhookSubscriptionRepository()

	// Ledger engine
	engine := ledger.NewEngine(depositRepo, loanRepo, ledgerRepo, eventRepo, outboxRepo, subscriptionRepo)

	// Dispatcher backing POST /outbox/dispatch; cmd/dispatcher runs its own.
	dispatcher := outbox.NewDispatcher(outbox.DispatcherDeps{
		Pool:          pool,
		Outbox:        outboxRepo,
		Queue:         queueRepo,
		Subscriptions: subscriptionRepo,
		Sender:        deps.Sender,
		Mirror:        deps.Mirror,
		MirrorTopic:   deps.MirrorTopic,
		Metrics:       deps.Metrics,
		Logger:        logger,
	})

	// Services
	depositSvc := service.NewDepositService(pool, depositRepo, engine, deps.Cache, logger)
	loanSvc := service.NewLoanService(pool, loanRepo, engine, deps.Cache, logger)
	subSvc := service.NewSubscriptionService(pool, subscriptionRepo, logger)

	// Handlers
	depositHandler := handler.NewDepositHandler(depositSvc)
	loanHandler := handler.NewLoanHandler(loanSvc)
	webhookHandler := handler.NewWebhookHandler(subSvc)
	outboxHandler := handler.NewOutboxHandler(pool, dispatcher, outboxRepo)
	queueHandler := handler.NewQueueHandler(pool, queueRepo)
	eventsHandler := handler.NewEventsHandler(pool, eventRepo)
	ledgerHandler := handler.NewLedgerHandler(pool, ledgerRepo)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	if deps.Metrics != nil {
		r.Use(handler.RequestMetrics(deps.Metrics))
	}
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health and metrics (outside the API prefix)
	r.Get("/healthz", handler.HealthHandler(pool))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/deposit/accounts", func(r chi.Router) {
			r.Post("/", depositHandler.Open)
			r.Get("/", depositHandler.List)
			r.Route("/{accountID}", func(r chi.Router) {
				r.Get("/", depositHandler.Get)
				r.Post("/deposit", depositHandler.Deposit)
				r.Post("/withdraw", depositHandler.Withdraw)
				r.Post("/accrue", depositHandler.Accrue)
				r.Post("/month-end", depositHandler.MonthEnd)
			})
		})

		r.Route("/loan/accounts", func(r chi.Router) {
			r.Post("/", loanHandler.Open)
			r.Get("/", loanHandler.List)
			r.Route("/{accountID}", func(r chi.Router) {
				r.Get("/", loanHandler.Get)
				r.Post("/accrue", loanHandler.Accrue)
				r.Post("/repay", loanHandler.Repay)
			})
		})

		r.Route("/webhooks/subscriptions", func(r chi.Router) {
			r.Post("/", webhookHandler.Create)
			r.Get("/", webhookHandler.List)
		})

		r.Route("/outbox", func(r chi.Router) {
			r.Get("/messages", outboxHandler.List)
			r.Post("/dispatch", outboxHandler.Dispatch)
			r.Post("/replay", outboxHandler.Replay)
		})

		r.Get("/queue/messages", queueHandler.List)
		r.Get("/events", eventsHandler.List)
		r.Get("/ledger/entries", ledgerHandler.List)
	})

	return r
}
