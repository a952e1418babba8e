package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripmate_server/config"
	"tripmate_server/controllers"
	"tripmate_server/logging"
	"tripmate_server/routes"
	"tripmate_server/services"
	"tripmate_server/socket"
	"tripmate_server/supervisor"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("❌ server stopped")
	}
	logging.Info().Msg("👋 server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	var awsCfg aws.Config
	needsAWS := cfg.Store.Backend == "dynamodb" || cfg.Scoring.Scorer == "learned"
	if needsAWS {
		logging.Info().Str("region", cfg.AWS.Region).Msg("Initializing AWS clients...")
		loaded, err := services.LoadAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
		if err != nil {
			return err
		}
		awsCfg = loaded
	}

	docs, err := newDocumentStore(cfg, awsCfg)
	if err != nil {
		return err
	}

	backend, closeBackend, err := newCacheBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})

	scheme, err := services.ParseScheme(cfg.Scoring.Scheme)
	if err != nil {
		return err
	}
	ruleScorer := services.NewRuleBasedScorer(scheme)
	var scorer services.Scorer = ruleScorer
	if cfg.Scoring.Scorer == "learned" {
		learned := services.NewLearnedScorer(services.LearnedScorerConfig{
			Source:          services.NewS3ModelSource(awsCfg, cfg.Scoring.ModelBucket, cfg.Scoring.ModelKey),
			Base:            ruleScorer,
			RefreshInterval: cfg.Scoring.ModelRefresh,
			BreakerFailures: cfg.Scoring.BreakerFailures,
			BreakerTimeout:  cfg.Scoring.BreakerOpenTimeout,
		})
		tree.AddWorker(learned)
		scorer = learned
	}

	profiles := services.NewDocumentProfileProvider(docs, cfg.Store.ProfilesTable)
	store := services.NewDocumentMatchStore(docs, services.Tables{
		Swipes:     cfg.Store.SwipesTable,
		Matches:    cfg.Store.MatchesTable,
		Rejections: cfg.Store.RejectionsTable,
	})
	registry := services.NewConnectionRegistry(cfg.Reconnect.MaxInterval)

	coordinator := services.NewSwipeCoordinator(services.CoordinatorConfig{
		Store:    store,
		Profiles: profiles,
		Scorer:   scorer,
		Fallback: ruleScorer,
		Cache: services.NewMatchCache(backend, services.MatchCacheConfig{
			TTL:     cfg.Cache.TTL,
			Timeout: cfg.Cache.LookupTimeout,
		}),
		Registry:   registry,
		Notifier:   services.NewNotificationDispatcher(registry, profiles, cfg.Notify.SendTimeout),
		RetryDelay: cfg.Retry.Delay,
	})

	socketServer := socket.NewServer(coordinator)
	tree.AddAPIService(socketServer)

	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterSwipeRoutes(r, coordinator, controllers.NewUserRateLimiter(cfg.RateLimit.SwipesPerSecond, cfg.RateLimit.Burst))
	routes.RegisterMatchRoutes(r, store)
	routes.RegisterSocketRoutes(r, socketServer.Handler(), socket.NewWebSocketHandler(coordinator, nil))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Addr()).Str("store", cfg.Store.Backend).Str("cache", cfg.Cache.Backend).
		Str("scheme", string(scheme)).Str("scorer", cfg.Scoring.Scorer).Msg("🚀 Starting server")
	err = <-tree.ServeBackground(ctx)

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("⚠️ service did not stop in time")
		}
	}
	return err
}

func newDocumentStore(cfg *config.Config, awsCfg aws.Config) (services.DocumentStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		logging.Warn().Msg("⚠️ using in-memory document store, data is lost on restart")
		return services.NewMemoryStore(), nil
	case "dynamodb":
		return services.NewDynamoService(awsCfg), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func newCacheBackend(cfg *config.Config) (services.KVBackend, func(), error) {
	noop := func() {}
	switch cfg.Cache.Backend {
	case "none":
		return nil, noop, nil
	case "memory":
		return services.NewMemoryBackend(), noop, nil
	case "badger":
		b, err := services.OpenBadgerBackend(cfg.Cache.BadgerDir)
		if err != nil {
			return nil, noop, err
		}
		return b, func() { _ = b.Close() }, nil
	case "redis":
		r := services.NewRedisBackend(services.NewRedisPool(cfg.Cache.RedisAddr))
		return r, func() { _ = r.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
