package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "govportal/internal/account/handler"
	accountservice "govportal/internal/account/service"
	accountmem "govportal/internal/account/store/memory"
	accountpg "govportal/internal/account/store/postgres"
	"govportal/internal/audit"
	audithandler "govportal/internal/audit/handler"
	auditmem "govportal/internal/audit/store/memory"
	auditpg "govportal/internal/audit/store/postgres"
	"govportal/internal/audit/stream"
	"govportal/internal/authz"
	"govportal/internal/platform/config"
	"govportal/internal/platform/kafka"
	"govportal/internal/platform/metrics"
	pgplatform "govportal/internal/platform/postgres"
	redisplatform "govportal/internal/platform/redis"
	reghandler "govportal/internal/registration/handler"
	regservice "govportal/internal/registration/service"
	regmem "govportal/internal/registration/store/memory"
	regpg "govportal/internal/registration/store/postgres"
	sessionhandler "govportal/internal/session/handler"
	sessionservice "govportal/internal/session/service"
	"govportal/internal/session/store/revocation"
	"govportal/internal/session/token"
	httptransport "govportal/internal/transport/http"
	"govportal/pkg/domain"
	"govportal/pkg/platform/middleware/ratelimit"
	"govportal/pkg/secrets"
)

const bootstrapMasterName = "Master"

// requestStore is the registration request store as every consumer sees it.
type requestStore interface {
	regservice.RequestStore
	accountservice.DependentCounter
}

// stores groups one backend's implementations.
type stores struct {
	kind        string
	accounts    accountservice.AccountStore
	sectors     accountservice.SectorStore
	functions   accountservice.FunctionStore
	requests    requestStore
	audit       audit.Store
	tx          regservice.TxRunner
	revocations sessionservice.RevocationList
}

func memoryStores() stores {
	sectors := accountmem.NewSectorStore()
	accounts := accountmem.NewAccountStore(sectors)
	requests := regmem.NewRequestStore(regmem.Joins{Sectors: sectors, Accounts: accounts})
	auditStore := auditmem.NewInMemoryStore()
	return stores{
		kind:        "memory",
		accounts:    accounts,
		sectors:     sectors,
		functions:   accountmem.NewFunctionStore(),
		requests:    requests,
		audit:       auditStore,
		tx:          regmem.NewTxRunner(),
		revocations: revocation.NewMemoryList(),
	}
}

func postgresStores(db *sql.DB, cfg config.Database) stores {
	return stores{
		kind:        "postgres",
		accounts:    accountpg.NewAccountStore(db),
		sectors:     accountpg.NewSectorStore(db),
		functions:   accountpg.NewFunctionStore(db),
		requests:    regpg.NewRequestStore(db),
		audit:       auditpg.New(db),
		tx:          newRegistrationPostgresTx(db, cfg.Timeout),
		revocations: revocation.NewPostgresList(db),
	}
}

// auditDependents blocks account deletion while ledger rows name the account.
type auditDependents struct {
	store audit.Store
}

func (d auditDependents) CountByAccount(ctx context.Context, id domain.AccountID) (int, error) {
	return d.store.CountByActor(ctx, id)
}

// app is the assembled process: the router plus everything that must be
// released on shutdown.
type app struct {
	router  chi.Router
	storage string
	closers []func(context.Context) error
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// newApp connects the configured backends and wires every module. On error
// anything already opened is released.
func newApp(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.close(ctx)
		}
	}()

	m := metrics.New(reg)
	health := httptransport.NewHealth()

	st := memoryStores()
	if cfg.Database.URL != "" {
		db, err := pgplatform.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		if err := pgplatform.Migrate(ctx, db); err != nil {
			return nil, err
		}
		st = postgresStores(db, cfg.Database)
		health.Add("postgres", db.PingContext)
	}

	rdb, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		st.revocations = revocation.NewRedisList(rdb.Client)
		health.Add("redis", rdb.Health)
	}
	a.storage = st.kind

	ledgerOpts := []audit.Option{audit.WithLogger(logger), audit.WithMetrics(m)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
			logger.WarnContext(ctx, "audit topic not ensured", "topic", producer.Topic(), "error", err)
		}
		ledgerOpts = append(ledgerOpts, audit.WithForwarder(stream.NewKafkaForwarder(producer, logger, m)))
		health.Add("kafka", producer.Ping)
	}

	ledger := audit.New(st.audit, ledgerOpts...)
	enforcer := authz.NewEnforcer(ledger, authz.WithLogger(logger), authz.WithMetrics(m))
	hasher := secrets.NewHasher(cfg.Auth.BcryptCost)
	tokens := token.New(token.Config{
		AccessKey:  cfg.Auth.SigningKey,
		RefreshKey: cfg.Auth.RefreshSigningKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	sessions := sessionservice.New(st.accounts, hasher, tokens, st.revocations, ledger,
		sessionservice.WithLogger(logger),
		sessionservice.WithMetrics(m),
	)
	accounts := accountservice.New(st.accounts, st.sectors, st.functions, enforcer, ledger, hasher,
		accountservice.WithLogger(logger),
		accountservice.WithDependents(st.requests, auditDependents{store: st.audit}),
		accountservice.WithPendingEmails(st.requests),
	)
	registrations := regservice.New(regservice.Stores{
		Requests:  st.requests,
		Accounts:  st.accounts,
		Sectors:   st.sectors,
		Functions: st.functions,
		Audit:     st.audit,
	}, st.tx, enforcer, ledger, hasher,
		regservice.WithLogger(logger),
		regservice.WithMetrics(m),
	)

	if cfg.Bootstrap.MasterEmail != "" {
		if _, err := accounts.Bootstrap(ctx, accountservice.BootstrapParams{
			Email:      cfg.Bootstrap.MasterEmail,
			Secret:     cfg.Bootstrap.MasterSecret,
			Name:       bootstrapMasterName,
			SectorCode: cfg.Bootstrap.SectorCode,
			SectorName: cfg.Bootstrap.SectorName,
		}); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	loginLimiter := ratelimit.New(cfg.Auth.LoginRatePerSec, cfg.Auth.LoginRateBurst)
	accountHandler := accounthandler.New(accounts, logger)
	a.router = httptransport.NewRouter(httptransport.Deps{
		Logger:      logger,
		Development: cfg.IsDevelopment(),
		Validator:   sessions,
		Public:      authz.DefaultPublicRoutes(),
		Health:      health,
		Metrics:     promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		API: []httptransport.Registrar{
			sessionhandler.New(sessions, logger, sessionhandler.WithLoginLimiter(loginLimiter.Middleware)),
			accountHandler,
			reghandler.New(registrations, logger),
			audithandler.New(ledger, logger),
		},
		Internal:       []httptransport.InternalRegistrar{accountHandler},
		ServiceToken:   cfg.OnboardingServiceToken,
		RequestTimeout: cfg.Database.Timeout,
	})
	return a, nil
}
