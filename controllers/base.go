package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" //postgres
	"github.com/labstack/gommon/log"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/handler"
	"github.com/radhian/payout-disbursement/infra/db/dao"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
	"github.com/radhian/payout-disbursement/infra/metrics"
	"github.com/radhian/payout-disbursement/infra/provider"
	"github.com/radhian/payout-disbursement/infra/publisher"
	"github.com/radhian/payout-disbursement/middlewares"
	"github.com/radhian/payout-disbursement/usecase/disbursement"
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/radhian/payout-disbursement/usecase/reconciliation"
	"github.com/radhian/payout-disbursement/usecase/review"
	"github.com/radhian/payout-disbursement/usecase/transition"
	"github.com/redis/go-redis/v9"
)

const metricsNamespace = "payout"

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    redis.UniversalClient
	NATS     *nats.Conn
	Metrics  *prometheus.Registry
	Router   *mux.Router
	Handler  *handler.PayoutHandler
	Registry *provider.Registry
}

// Initialize connects every backing service and builds the usecase graph shared by the HTTP
// server and the cron workers. Redis and NATS are optional; without them the app falls back to
// in-process implementations.
func (a *App) Initialize(cfg *config.Config) error {
	a.Config = cfg

	DBURI := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable password=%s",
		cfg.DbHost, cfg.DbPort, cfg.DbUser, cfg.DbName, cfg.DbPassword)
	log.Infof("[App] DB Config - Host: %q, Port: %q, User: %q, Name: %q", cfg.DbHost, cfg.DbPort, cfg.DbUser, cfg.DbName)

	var err error
	a.DB, err = gorm.Open("postgres", DBURI)
	if err != nil {
		return fmt.Errorf("cannot connect to database %s: %w", cfg.DbName, err)
	}
	log.Infof("[App] connected to the database %s", cfg.DbName)

	if err := a.DB.AutoMigrate(model.All()...).Error; err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	var lk locker.Locker = locker.New()
	var tokens provider.TokenStore = provider.NewMemoryTokenStore()
	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("cannot reach redis at %s: %w", cfg.RedisAddr, err)
		}
		lk = locker.NewRedisLocker(a.Redis, cfg.LockExpiry)
		tokens = provider.NewRedisTokenStore(a.Redis)
		log.Infof("[App] using redis at %s for locks and tokens", cfg.RedisAddr)
	}

	var pub publisher.Publisher = publisher.LogPublisher{}
	if cfg.NatsURL != "" {
		a.NATS, err = publisher.ConnectNATS(cfg.NatsURL, "payout-disbursement")
		if err != nil {
			return err
		}
		pub = publisher.NewNATSPublisher(a.NATS)
		log.Infof("[App] publishing events to %s", cfg.NatsURL)
	}

	a.Metrics = prometheus.NewRegistry()
	a.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheusCollector(metricsNamespace)
	if err := collector.Register(a.Metrics); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	a.Registry, err = buildRegistry(cfg, collector, tokens)
	if err != nil {
		return err
	}

	agents, err := disbursement.NewAgentSelector(cfg.AgentSelector)
	if err != nil {
		return err
	}

	d := dao.NewDaoMethod(a.DB)
	ledgerUc := ledger.NewLedgerUsecase(d, lk, collector, cfg.VATRate)
	reviewUc := review.NewReviewUsecase(d, lk, pub)
	transitionUc := transition.NewTransitionUsecase(d, a.Registry, ledgerUc, lk, pub, collector)
	disbursementUc := disbursement.NewDisbursementUsecase(d, a.Registry, ledgerUc, reviewUc, transitionUc, lk, agents, collector, cfg.DispatchConcurrency)
	reconciliationUc := reconciliation.NewReconciliationUsecase(d, a.Registry, transitionUc, lk, collector, cfg.ReconcileBatchSize)

	a.Handler = handler.NewPayoutHandler(disbursementUc, reviewUc, ledgerUc, transitionUc, reconciliationUc)
	return nil
}

func buildRegistry(cfg *config.Config, collector metrics.Collector, tokens provider.TokenStore) (*provider.Registry, error) {
	tables, err := config.LoadProviderTables(cfg.ProviderTablesPath)
	if err != nil {
		return nil, err
	}
	routing, err := provider.NewRouting(tables)
	if err != nil {
		return nil, err
	}

	var signer provider.Signer = provider.MissingKeySigner{}
	if cfg.ACH.PrivateKeyPath == "" {
		log.Warnf("[App] ACH_PRIVATE_KEY_PATH not set, ach transfers will fail until a key is configured")
	} else {
		rsaSigner, err := provider.LoadRSASigner(cfg.ACH.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		signer = rsaSigner
	}

	return provider.NewRegistry(routing,
		provider.NewWalletChannel(cfg.Wallet, provider.NewClient(consts.FamilyWallet, cfg.ProviderTimeout, collector)),
		provider.NewACHChannel(cfg.ACH, provider.NewClient(consts.FamilyACH, cfg.ProviderTimeout, collector), signer),
		provider.NewOneLinkChannel(cfg.OneLink, provider.NewClient(consts.FamilyOneLink, cfg.ProviderTimeout, collector), tokens),
		provider.NewAmanChannel(cfg.Aman, provider.NewClient(consts.FamilyAman, cfg.ProviderTimeout, collector)),
	), nil
}

// InitializeRouter mounts the HTTP API on a fresh router.
func (a *App) InitializeRouter() {
	a.Router = mux.NewRouter().StrictSlash(true)
	a.initializeRoutes()
}

func (a *App) initializeRoutes() {
	a.Router.Use(middlewares.SetContentTypeMiddleware)
	a.Router.Use(middlewares.RequestLogMiddleware)
	RegisterPayoutRoutes(a.Router, a.Handler)
	RegisterMetricsRoute(a.Router, a.Metrics)
}

func (a *App) RunServer() {
	port := a.Config.Port
	if port == "" {
		port = "8080"
	}

	log.Infof("[App] server starting on port %v", port)
	log.Fatal(http.ListenAndServe(":"+port, a.Router))
}

func (a *App) Close() {
	if a.NATS != nil {
		a.NATS.Drain()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
