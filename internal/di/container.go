package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/devops-api/internal/auth"
	"github.com/prohmpiriya/devops-api/internal/domain"
	"github.com/prohmpiriya/devops-api/internal/handler"
	"github.com/prohmpiriya/devops-api/internal/metrics"
	"github.com/prohmpiriya/devops-api/internal/middleware"
	"github.com/prohmpiriya/devops-api/internal/repository"
	"github.com/prohmpiriya/devops-api/internal/service"
	"github.com/prohmpiriya/devops-api/pkg/config"
	"github.com/prohmpiriya/devops-api/pkg/database"
	"github.com/prohmpiriya/devops-api/pkg/logger"
	pkgredis "github.com/prohmpiriya/devops-api/pkg/redis"
	"github.com/prohmpiriya/devops-api/pkg/telemetry"
)

// Container holds all dependencies for the API
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Infrastructure
	DB    *database.PostgresDB
	Redis *pkgredis.Client

	// Auth core
	Codec     auth.TokenCodec
	Validator *auth.Validator

	// Repositories
	UserRepo    repository.UserRepository
	RevokedRepo repository.RevocationRepository

	// Metrics
	Aggregator *metrics.Aggregator

	// Services
	AuthService    service.AuthService
	MetricsService service.MetricsService
	Publisher      service.EventPublisher

	// Handlers
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	MetricsHandler *handler.MetricsHandler

	// Login rate limiting, nil when disabled
	Limiter         middleware.Limiter
	RateLimitConfig middleware.RateLimitConfig
}

// ContainerConfig contains configuration for building the container.
// DB, Redis and Publisher are optional.
type ContainerConfig struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *database.PostgresDB
	Redis     *pkgredis.Client
	Publisher service.EventPublisher
	// Users overrides both the users file and the built-in seed
	Users []*domain.User
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *ContainerConfig) (*Container, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, fmt.Errorf("container config is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	c := &Container{
		Config:    cfg.Config,
		Logger:    log,
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Publisher: cfg.Publisher,
	}
	if c.Publisher == nil {
		c.Publisher = service.NewNoOpEventPublisher()
	}

	var err error
	if c.Codec, err = newCodec(&cfg.Config.Auth); err != nil {
		return nil, err
	}
	c.Validator = auth.NewValidator(c.Codec, nil)

	users := cfg.Users
	if users == nil && cfg.Config.Auth.UsersFile != "" {
		if users, err = repository.LoadUsersFile(cfg.Config.Auth.UsersFile); err != nil {
			return nil, err
		}
		log.Info("loaded seed users", zap.String("file", cfg.Config.Auth.UsersFile), zap.Int("count", len(users)))
	}
	if users == nil {
		users = domain.DefaultUsers()
	}

	verifier, err := c.initUserRepo(ctx, users)
	if err != nil {
		return nil, err
	}

	if cfg.Config.Auth.RevocationEnabled {
		if c.Redis != nil {
			c.RevokedRepo = repository.NewRedisRevocationRepository(c.Redis.Client())
		} else {
			c.RevokedRepo = repository.NewMemoryRevocationRepository()
		}
	}

	c.Aggregator = metrics.NewAggregator(metrics.WithCounters(
		newCounter(log, "http_requests_total", "Total HTTP requests received"),
		newCounter(log, "http_errors_total", "Total HTTP requests counted as errors"),
	))

	// Initialize services
	c.AuthService = service.NewAuthService(service.AuthServiceDeps{
		Users:     c.UserRepo,
		Revoked:   c.RevokedRepo,
		Codec:     c.Codec,
		Validator: c.Validator,
		Verifier:  verifier,
		Publisher: c.Publisher,
		Logger:    log,
	}, &service.AuthServiceConfig{
		TokenTTL:       cfg.Config.Auth.TokenTTL,
		PublishTimeout: cfg.Config.Kafka.PublishTimeout,
	})
	c.MetricsService = service.NewMetricsService(c.Aggregator, log)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(handler.ServiceInfo{
		Name:        cfg.Config.App.Name,
		Version:     cfg.Config.App.Version,
		Environment: cfg.Config.App.Environment,
		Features:    features(cfg.Config),
	}, c.readinessChecks())
	c.AuthHandler = handler.NewAuthHandler(c.AuthService)
	c.MetricsHandler = handler.NewMetricsHandler(c.MetricsService)

	if cfg.Config.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.Config.RateLimit.RequestsPerSecond
		rl.BurstSize = cfg.Config.RateLimit.BurstSize
		rl.RedisClient = c.Redis
		c.RateLimitConfig = rl
		c.Limiter = middleware.NewLimiter(rl)
	}

	return c, nil
}

func newCodec(cfg *config.AuthConfig) (auth.TokenCodec, error) {
	switch cfg.TokenCodec {
	case config.TokenCodecJWT:
		codec, err := auth.NewJWTCodec(cfg.JWTSecret, cfg.JWTIssuer, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create jwt codec: %w", err)
		}
		return codec, nil
	case config.TokenCodecBase64, "":
		return auth.NewBase64Codec(nil), nil
	default:
		return nil, fmt.Errorf("unknown token codec: %q", cfg.TokenCodec)
	}
}

// initUserRepo builds the credential store and returns the verifier matching
// how its secrets are stored. Postgres rows always hold bcrypt hashes.
func (c *Container) initUserRepo(ctx context.Context, users []*domain.User) (auth.PasswordVerifier, error) {
	authCfg := c.Config.Auth

	if authCfg.UserStore == config.UserStorePostgres {
		if c.DB == nil {
			return nil, fmt.Errorf("postgres user store requires a database connection")
		}

		hashed, err := auth.HashUsers(users, authCfg.BcryptCost)
		if err != nil {
			return nil, err
		}

		pgRepo := repository.NewPostgresUserRepository(c.DB.Pool())
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if err := pgRepo.Seed(ctx, hashed); err != nil {
			return nil, err
		}

		ttl := authCfg.UserCacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		c.UserRepo = repository.NewCachedUserRepository(pgRepo, ttl)
		return auth.BcryptVerifier{}, nil
	}

	var verifier auth.PasswordVerifier = auth.PlaintextVerifier{}
	if authCfg.PasswordHashing {
		hashed, err := auth.HashUsers(users, authCfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		users = hashed
		verifier = auth.BcryptVerifier{}
	}

	repo, err := repository.NewMemoryUserRepository(users)
	if err != nil {
		return nil, err
	}
	c.UserRepo = repo
	return verifier, nil
}

// readinessChecks maps each optional dependency to its pinger.
// Unconfigured dependencies stay in the map as nil.
func (c *Container) readinessChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": nil,
		"redis":    nil,
	}
	if c.DB != nil {
		checks["postgres"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	return checks
}

func newCounter(log *logger.Logger, name, description string) *telemetry.Counter {
	counter, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        name,
		Description: description,
		Unit:        "1",
	})
	if err != nil {
		log.Warn("failed to create counter", zap.String("name", name), zap.Error(err))
		return nil
	}
	return counter
}

func features(cfg *config.Config) []string {
	out := []string{"health checks", "authentication", "role-based access", "request metrics"}
	if cfg.Auth.TokenCodec == config.TokenCodecJWT {
		out = append(out, "signed tokens")
	}
	if cfg.Auth.RevocationEnabled {
		out = append(out, "token revocation")
	}
	if cfg.RateLimit.Enabled {
		out = append(out, "login rate limiting")
	}
	if cfg.Kafka.Enabled {
		out = append(out, "audit events")
	}
	if cfg.OTel.Enabled {
		out = append(out, "tracing")
	}
	return out
}

// Close releases resources owned by the container
func (c *Container) Close() error {
	if stopper, ok := c.Limiter.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	return c.Publisher.Close()
}
