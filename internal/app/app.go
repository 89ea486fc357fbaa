package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"mugs/internal/archive"
	archivehandler "mugs/internal/archive/handler"
	archivemetrics "mugs/internal/archive/metrics"
	"mugs/internal/archive/records"
	"mugs/internal/auth/adapters"
	authhandler "mugs/internal/auth/handler"
	authmodels "mugs/internal/auth/models"
	authservice "mugs/internal/auth/service"
	"mugs/internal/auth/store/revocation"
	"mugs/internal/authz"
	authzmetrics "mugs/internal/authz/metrics"
	"mugs/internal/cache"
	httpapi "mugs/internal/http"
	jwttoken "mugs/internal/jwt_token"
	lookuphandler "mugs/internal/lookup/handler"
	lookupmodels "mugs/internal/lookup/models"
	lookupservice "mugs/internal/lookup/service"
	peoplehandler "mugs/internal/people/handler"
	peoplemetrics "mugs/internal/people/metrics"
	peoplemodels "mugs/internal/people/models"
	"mugs/internal/people/ownership"
	peopleservice "mugs/internal/people/service"
	"mugs/internal/platform/config"
	"mugs/internal/platform/metrics"
	platformmongo "mugs/internal/platform/mongo"
	"mugs/internal/platform/postgres"
	platformredis "mugs/internal/platform/redis"
	"mugs/internal/schemas"
	"mugs/internal/store"
	id "mugs/pkg/domain"
)

// Collection names of the non-profile models.
const (
	collectionAddresses  = "addresses"
	collectionNextOfKins = "nextofkins"
	collectionRoles      = "roles"
	collectionTrades     = "trades"
	collectionUsers      = "users"
)

// App is the assembled server: its router plus the background jobs that
// keep the stores tidy.
type App struct {
	Router http.Handler

	Auth    *authservice.Service
	People  *peopleservice.Service
	Lookups *lookupservice.Service
	Archive *archive.Service

	sweeper *ownership.Sweeper
	jobs    []func(ctx context.Context) error
	closers []func(ctx context.Context) error
	logger  *slog.Logger
}

// backends are the optional external connections. A nil field keeps the
// matching concern in memory.
type backends struct {
	mongo    *platformmongo.Client
	postgres *sql.DB
	redis    *platformredis.Client
}

// Build connects the configured backends and assembles every module.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	b, err := a.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	backend := store.Backend{}
	if b.mongo != nil {
		backend.DB = b.mongo.DB
	}

	archiveRecords, err := a.archiveStore(ctx, b)
	if err != nil {
		return nil, err
	}
	archiveOpts := []archive.Option{archive.WithLogger(logger)}
	if cfg.Server.MetricsEnabled {
		archiveOpts = append(archiveOpts, archive.WithMetrics(archivemetrics.New()))
	}
	a.Archive = archive.New(archiveRecords, archiveOpts...)

	// live collections
	personRepos := make(map[id.ProfileKind]*store.Repository[*peoplemodels.Person], len(id.ProfileKinds))
	dependents := make(map[id.ProfileKind]store.Collection[*peoplemodels.Person], len(id.ProfileKinds))
	var counters []authservice.Counter
	for _, kind := range id.ProfileKinds {
		coll, err := store.Open(ctx, backend, kind.Collection(), schemas.Person(kind))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", kind.Collection(), err)
		}
		personRepos[kind] = store.NewRepository(coll, a.Archive)
		dependents[kind] = coll
		counters = append(counters, coll)
	}

	lookupRepos := make(map[lookupmodels.Kind]*store.Repository[*lookupmodels.Lookup], 2)
	for kind, name := range map[lookupmodels.Kind]string{
		lookupmodels.KindRole:  collectionRoles,
		lookupmodels.KindTrade: collectionTrades,
	} {
		coll, err := store.Open(ctx, backend, name, schemas.Lookup(kind))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		lookupRepos[kind] = store.NewRepository(coll, a.Archive)
		counters = append(counters, coll)
	}

	addressColl, err := store.Open(ctx, backend, collectionAddresses, schemas.Address())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", collectionAddresses, err)
	}
	kinColl, err := store.Open(ctx, backend, collectionNextOfKins, schemas.NextOfKin())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", collectionNextOfKins, err)
	}
	userColl, err := store.Open(ctx, backend, collectionUsers, schemas.User())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", collectionUsers, err)
	}

	// tokens
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	revocations := a.revocationList(ctx, cfg.Auth, b)

	// services
	var pm *peoplemetrics.Metrics
	if cfg.Server.MetricsEnabled {
		pm = peoplemetrics.New()
	}

	authCfg := authservice.DefaultConfig()
	authCfg.TokenTTL = cfg.Auth.TokenTTL
	authCfg.BcryptCost = cfg.Auth.BcryptCost
	if cfg.Auth.RegistrationTTL > 0 {
		authCfg.RegistrationTTL = cfg.Auth.RegistrationTTL
	}
	authOpts := []authservice.Option{
		authservice.WithLogger(logger),
		authservice.WithActivity(a.Archive, counters...),
	}
	if cfg.Server.MetricsEnabled {
		authOpts = append(authOpts, authservice.WithMetrics(metrics.New()))
	}
	a.Auth = authservice.New(
		authCfg,
		store.NewRepository[*authmodels.User](userColl, a.Archive),
		adapters.NewPeopleProfiles(personRepos),
		jwtService,
		jwtService,
		revocations,
		authOpts...,
	)

	a.Lookups = lookupservice.New(lookupRepos, dependents, lookupservice.WithLogger(logger))

	addressRepo := store.NewRepository[*peoplemodels.Address](addressColl, nil)
	kinRepo := store.NewRepository[*peoplemodels.NextOfKin](kinColl, nil)
	addresses := ownership.New(addressRepo, peoplemodels.AddressUpdateFields,
		ownership.WithLogger[*peoplemodels.Address](logger),
		ownership.WithMetrics[*peoplemodels.Address](pm))
	kin := ownership.New(kinRepo, peoplemodels.NextOfKinUpdateFields,
		ownership.WithHooks(ownership.NextOfKinHooks(kinRepo, addresses)),
		ownership.WithLogger[*peoplemodels.NextOfKin](logger),
		ownership.WithMetrics[*peoplemodels.NextOfKin](pm))

	peopleCfg := peopleservice.DefaultConfig()
	peopleCfg.PropagateToSiblings = cfg.People.PropagateToSiblings
	peopleCfg.ViewTTL = cfg.People.ViewTTL
	peopleOpts := []peopleservice.Option{
		peopleservice.WithLogger(logger),
		peopleservice.WithViewCache(viewCache(b)),
	}
	if pm != nil {
		peopleOpts = append(peopleOpts, peopleservice.WithMetrics(pm))
	}
	a.People = peopleservice.New(peopleCfg, personRepos, addresses, kin, a.Lookups, a.Auth, peopleOpts...)

	// kin first: reclaiming a kin releases its address
	a.sweeper = ownership.NewSweeper(cfg.People.SweepInterval, cfg.People.OrphanGrace, logger, kin, addresses)
	a.jobs = append(a.jobs, a.sweeper.Run)

	// transport
	gateOpts := []authz.Option{authz.WithLogger(logger)}
	if cfg.Server.MetricsEnabled {
		gateOpts = append(gateOpts, authz.WithMetrics(authzmetrics.New()))
	}
	gate := authz.New(a.Auth, gateOpts...)

	a.Router = httpapi.NewRouter(httpapi.Deps{
		Logger:         logger,
		Tokens:         jwttoken.NewJWTServiceAdapter(jwtService),
		Revocations:    revocations,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		Health:         healthChecks(b),
		Modules: []httpapi.Registrar{
			authhandler.New(a.Auth, gate, logger),
			lookuphandler.New(a.Lookups, gate, logger),
			peoplehandler.New(a.People, gate, logger),
			archivehandler.New(a.Archive, gate, logger),
		},
	})
	return a, nil
}

// Run starts the background jobs and blocks until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range a.jobs {
		g.Go(func() error {
			if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Sweeper exposes the orphan sweeper for on-demand sweeps.
func (a *App) Sweeper() *ownership.Sweeper {
	return a.sweeper
}

// Close releases the backend connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) connect(ctx context.Context, cfg config.Config) (backends, error) {
	var b backends

	mc, err := platformmongo.New(ctx, cfg.Mongo)
	if err != nil {
		return b, err
	}
	if mc != nil {
		b.mongo = mc
		a.closers = append(a.closers, mc.Close)
		a.logger.InfoContext(ctx, "mongo connected", "database", cfg.Mongo.Database)
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return b, err
	}
	if db != nil {
		b.postgres = db
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.logger.InfoContext(ctx, "postgres connected")
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return b, err
	}
	if rc != nil {
		b.redis = rc
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
		a.logger.InfoContext(ctx, "redis connected")
	}
	return b, nil
}

// archiveStore prefers Postgres, then Mongo, then memory.
func (a *App) archiveStore(ctx context.Context, b backends) (archive.Store, error) {
	switch {
	case b.postgres != nil:
		pg := records.NewPostgres(b.postgres)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("archive schema: %w", err)
		}
		return pg, nil
	case b.mongo != nil:
		return records.NewMongo(b.mongo.DB), nil
	default:
		a.logger.WarnContext(ctx, "archive kept in memory")
		return records.NewInMemory(), nil
	}
}

// revocationStore is what both the auth service and the token middleware need.
type revocationStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// revocationList prefers Redis, whose keys expire on their own, then Postgres,
// then memory. The last two get a periodic cleanup job.
func (a *App) revocationList(ctx context.Context, cfg config.Auth, b backends) revocationStore {
	switch {
	case b.redis != nil:
		return revocation.NewRedisTRL(b.redis.Client)
	case b.postgres != nil:
		trl := revocation.NewPostgresTRL(b.postgres)
		if err := trl.EnsureSchema(ctx); err != nil {
			a.logger.ErrorContext(ctx, "revocation schema failed, using memory", "error", err)
			break
		}
		a.jobs = append(a.jobs, func(ctx context.Context) error {
			return cleanupLoop(ctx, cfg.RevocationCleanupInterval, a.logger, trl.RemoveExpiredAt)
		})
		return trl
	}
	trl := revocation.NewInMemoryTRL()
	a.jobs = append(a.jobs, func(ctx context.Context) error {
		trl.StartCleanup(ctx, cfg.RevocationCleanupInterval, a.logger)
		return ctx.Err()
	})
	return trl
}

func viewCache(b backends) cache.Views {
	if b.redis != nil {
		return cache.NewRedis(b.redis.Client)
	}
	return cache.NewInMemory()
}

func healthChecks(b backends) []httpapi.HealthCheck {
	var checks []httpapi.HealthCheck
	if b.mongo != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "mongo", Probe: b.mongo.Health})
	}
	if b.postgres != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "postgres", Probe: b.postgres.PingContext})
	}
	if b.redis != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Probe: b.redis.Health})
	}
	return checks
}
