package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"namegate/internal/auth"
	"namegate/internal/events"
	"namegate/internal/ledger"
	"namegate/internal/platform/config"
	"namegate/internal/platform/httpserver"
	"namegate/internal/platform/logger"
	"namegate/internal/platform/metrics"
	platformredis "namegate/internal/platform/redis"
	"namegate/internal/registry/handler"
	"namegate/internal/registry/service"
	memorystore "namegate/internal/registry/store/memory"
	postgresstore "namegate/internal/registry/store/postgres"
	"namegate/internal/registry/store/rewards"
	httptransport "namegate/internal/transport/http"
	"namegate/pkg/domain"
)

const jwtIssuer = "namegate"

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := accountOrGenerate(log, "owner", cfg.OwnerAccount)
	if err != nil {
		return err
	}
	escrow, err := accountOrGenerate(log, "escrow", cfg.EscrowAccount)
	if err != nil {
		return err
	}

	m := metrics.New()

	var (
		store  service.Store
		led    ledger.Ledger
		checks []httptransport.HealthCheck
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		pgStore := postgresstore.New(db)
		if err := pgStore.Migrate(ctx, cfg.InitialFee); err != nil {
			return fmt.Errorf("migrate registry store: %w", err)
		}
		store = pgStore

		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open ledger pool: %w", err)
		}
		defer pool.Close()

		pgLedger := ledger.NewPostgres(pool)
		if err := pgLedger.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate ledger: %w", err)
		}
		led = pgLedger

		checks = append(checks,
			httptransport.HealthCheck{Name: "postgres", Probe: db.PingContext},
			httptransport.HealthCheck{Name: "ledger", Probe: pool.Ping},
		)
		log.Info("using postgres persistence")
	} else {
		store = memorystore.New(cfg.InitialFee)
		led = ledger.NewInMemory()
		log.Warn("POSTGRES_DSN not set, state is in-memory and will not survive restarts")
	}

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	var leaderboard handler.Leaderboard
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		rewardStore := rewards.NewRedisStore(redisClient.Client)
		svcOpts = append(svcOpts, service.WithRewardCache(rewardStore))
		leaderboard = rewardStore
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Probe: redisClient.Health})
		log.Info("rewards leaderboard enabled")
	}

	publisherOpts := []events.PublisherOption{}
	if len(cfg.Kafka.Brokers) > 0 {
		fanout, err := events.NewKafkaFanout(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		publisherOpts = append(publisherOpts, events.WithFanout(fanout))
		log.Info("kafka event fan-out enabled", "topic", cfg.Kafka.Topic)
	}
	publisher := events.NewPublisher(events.NewInMemoryStore(), log, publisherOpts...)
	defer publisher.Close()

	reward, err := rewardPolicy(cfg.RewardPolicy)
	if err != nil {
		return err
	}

	svc := service.New(store, led, auth.NewStaticAuthorizer(owner), publisher, service.Config{
		Owner:         owner,
		Escrow:        escrow,
		Reward:        reward,
		StrictPayment: cfg.PaymentStrict,
		TopLevelOnly:  cfg.TopLevelOnly,
	}, svcOpts...)

	tokens := auth.NewJWTService(cfg.JWTSigningKey, jwtIssuer, 24*time.Hour)
	h := handler.New(svc, led, tokens, auth.NewStaticAuthorizer(owner), auth.NewOwnerSecret(cfg.OwnerSecretHash), log, m)
	if leaderboard != nil {
		h.WithLeaderboard(leaderboard)
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(checks, h))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting namegate", "addr", cfg.Addr, "owner", owner.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// accountOrGenerate parses a configured account id, or mints one for
// development when unset.
func accountOrGenerate(log *slog.Logger, role, raw string) (domain.AccountID, error) {
	if raw == "" {
		account := domain.AccountID(uuid.New())
		log.Warn("account not configured, generated an ephemeral one",
			"role", role, "account", account.String())
		return account, nil
	}
	account, err := domain.ParseAccountID(raw)
	if err != nil {
		return domain.NilAccountID, fmt.Errorf("invalid %s account id %q: %w", role, raw, err)
	}
	return account, nil
}

// rewardPolicy parses "flat:N" or "percent:N".
func rewardPolicy(raw string) (service.RewardPolicy, error) {
	kind, arg, ok := strings.Cut(raw, ":")
	if !ok {
		return nil, fmt.Errorf("invalid reward policy %q, want flat:N or percent:N", raw)
	}
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid reward policy amount %q: %w", arg, err)
	}
	switch kind {
	case "flat":
		return service.FlatReward(n), nil
	case "percent":
		if n > 100 {
			return nil, fmt.Errorf("reward percentage %d exceeds 100", n)
		}
		return service.PercentReward(n), nil
	default:
		return nil, fmt.Errorf("unknown reward policy %q", kind)
	}
}
