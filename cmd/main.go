package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sbilibin2017/gw-weather-auth/internal/facades"
	"github.com/sbilibin2017/gw-weather-auth/internal/handlers"
	"github.com/sbilibin2017/gw-weather-auth/internal/jwt"
	"github.com/sbilibin2017/gw-weather-auth/internal/logger"
	"github.com/sbilibin2017/gw-weather-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-weather-auth/internal/migrations"
	"github.com/sbilibin2017/gw-weather-auth/internal/password"
	"github.com/sbilibin2017/gw-weather-auth/internal/repositories"
	"github.com/sbilibin2017/gw-weather-auth/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sbilibin2017/gw-weather-auth/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

var errMissingSecret = errors.New("JWT_SECRET_KEY must be set")

// config holds everything read from the env file and the environment.
type config struct {
	AppHost    string
	AppPort    string
	LogLevel   string
	LogFile    string
	CORSOrigin []string
	RateRPM    int

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecretKey string
	JWTExpSecond int

	WeatherURL           string
	WeatherTimeoutSecond int
}

// @title gw-weather-auth API
// @version 1.0.0
// @description User registration, JWT login and a historic weather passthrough
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns
// application, database, Redis, Kafka, JWT and weather configuration.
func parseConfig(path string) (*config, error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	var err error
	getInt := func(key, defaultValue string) int {
		if err != nil {
			return 0
		}
		var v int
		if v, err = strconv.Atoi(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}

	cfg := &config{
		// Application config
		AppHost:    getEnv("APP_HOST", "localhost"),
		AppPort:    getEnv("APP_PORT", "8080"),
		LogLevel:   getEnv("APP_LOG_LEVEL", "info"),
		LogFile:    getEnv("APP_LOG_FILE", ""),
		CORSOrigin: splitList(getEnv("CORS_ORIGINS", "*")),
		RateRPM:    getInt("RATE_LIMIT_RPM", "0"),

		// PostgreSQL config
		PGHost:         getEnv("POSTGRES_HOST", "localhost"),
		PGPort:         getInt("POSTGRES_PORT", "5432"),
		PGUser:         getEnv("POSTGRES_USER", "user"),
		PGPassword:     getEnv("POSTGRES_PASSWORD", "password"),
		PGDB:           getEnv("POSTGRES_DB", "database"),
		PGMaxOpenConns: getInt("POSTGRES_MAX_OPEN_CONNS", "16"),
		PGMaxIdleConns: getInt("POSTGRES_MAX_IDLE_CONNS", "8"),

		// Redis config, empty host disables it
		RedisHost:         getEnv("REDIS_HOST", ""),
		RedisPort:         getInt("REDIS_PORT", "6379"),
		RedisDB:           getInt("REDIS_DB", "0"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisPoolSize:     getInt("REDIS_POOL_SIZE", "10"),
		RedisMinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", "2"),

		// Kafka config, no brokers disables it
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "users.registered"),

		// JWT config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),
		JWTExpSecond: getInt("JWT_EXP_SECOND", "1800"),

		// Weather API config
		WeatherURL:           getEnv("WEATHER_API_URL", facades.DefaultWeatherURL),
		WeatherTimeoutSecond: getInt("WEATHER_TIMEOUT_SECOND", "0"),
	}
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecretKey == "" {
		return nil, errMissingSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newRateLimiter returns nil when cfg.RateRPM is not positive. Counters live in Redis
// when REDIS_HOST is set and in process memory otherwise.
func newRateLimiter(ctx context.Context, cfg *config, log *zap.SugaredLogger) (middlewares.Limiter, func(), error) {
	if cfg.RateRPM <= 0 {
		log.Info("Rate limiting disabled")
		return nil, func() {}, nil
	}

	if cfg.RedisHost == "" {
		log.Info("Redis is not configured, using in-memory rate limiter")
		return middlewares.NewMemoryLimiter(cfg.RateRPM), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("Redis connection error: %w", err)
	}

	limiter := repositories.NewRateLimitCacheRepository(rdb, cfg.RateRPM, time.Minute, log)
	return limiter, func() { rdb.Close() }, nil
}

// run initializes the logger, database, Redis, Kafka writer, and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg *config) error {
	// Initialize logger
	var logPaths []string
	if cfg.LogFile != "" {
		logPaths = append(logPaths, cfg.LogFile)
	}
	log, err := logger.New(cfg.LogLevel, logPaths...)
	if err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer log.Sync()
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	log.Infof("Connecting to PostgreSQL at %s:%d/%s", cfg.PGHost, cfg.PGPort, cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	if err := migrations.Up(ctx, db.DB); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Rate limiter, disabled unless RATE_LIMIT_RPM is set
	limiter, closeLimiter, err := newRateLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// Kafka writer for registration events
	var events services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		kw := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
		defer kw.Close()
		events = kw
	}

	// Initialize JWT and password hashing
	jwtSvc := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecretKey),
		jwt.WithExpiration(time.Duration(cfg.JWTExpSecond)*time.Second),
	)
	hasher := password.New()

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db, log)
	userWriteRepo := repositories.NewUserWriteRepository(db, log)

	// Initialize services and facades
	authService := services.NewAuthService(userReadRepo, userWriteRepo, hasher, jwtSvc, events, log)
	weatherFacade := facades.NewWeatherHTTPFacade(
		&http.Client{Timeout: time.Duration(cfg.WeatherTimeoutSecond) * time.Second},
		cfg.WeatherURL,
		log,
	)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService, log)
	loginHandler := handlers.NewLoginHandler(authService, log)
	userDetailsHandler := handlers.NewUserDetailsHandler(middlewares.UserFromContext, log)
	weatherHandler := handlers.NewHistoricWeatherHandler(weatherFacade, log)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middlewares.LoggingMiddleware(log))
	r.Use(middlewares.CORS(cfg.CORSOrigin))
	if limiter != nil {
		r.Use(middlewares.RateLimitMiddleware(limiter, log))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Use(middlewares.TxMiddleware(db, log))

			// Public routes
			r.Post("/register", registerHandler)
			r.Post("/login", loginHandler)

			// Protected routes with JWT middleware
			r.With(middlewares.AuthMiddleware(jwtSvc, authService, log)).
				Get("/get_user_details", userDetailsHandler)
		})

		r.Get("/historic_weather", weatherHandler)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
