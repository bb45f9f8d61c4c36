package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
	Analytics AnalyticsConfig
	Swagger   SwaggerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds SQL record store settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	LogLevel        string
}

// MongoConfig holds document record store settings
type MongoConfig struct {
	URI                string
	Database           string
	OrdersCollection   string
	ProductsCollection string
	ConnectTimeout     time.Duration
}

// RedisConfig holds settings for the shared result cache
type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
	RateLimit       RateLimitConfig
}

// RateLimitConfig holds per-client request limits for report endpoints
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// SchedulerConfig holds cache warm-up scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	WarmInterval      time.Duration
	WarmWindowDays    int
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool

	// LogsEnabled tees application logs into the OTLP logs pipeline.
	LogsEnabled bool

	ProfilingEnabled       bool
	ProfilingServerAddress string
	ProfilingTypes         []string
	// SpanProfilesEnabled links CPU samples to trace spans; needs tracing and profiling.
	SpanProfilesEnabled bool
}

// SwaggerConfig holds API documentation endpoint settings
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // IPs or CIDRs; empty allows all
}

// AnalyticsConfig holds engine tunables
type AnalyticsConfig struct {
	StoreBackend        string // gorm or mongo
	CacheTTL            time.Duration
	DefaultCostRatio    float64
	LeadTimeDays        int
	OrderCycleDays      int
	SafetyStockDays     int
	VelocityHistoryDays int
	ABCWindowDays       int
	TrendThreshold      float64
}

// Load loads configuration from config.toml and environment variables.
// Environment variables use the BI_ prefix (e.g. BI_ANALYTICS_CACHE_TTL)
// and win over the file, which wins over built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
		},
		Mongo: MongoConfig{
			URI:                v.GetString("mongo.uri"),
			Database:           v.GetString("mongo.database"),
			OrdersCollection:   v.GetString("mongo.orders_collection"),
			ProductsCollection: v.GetString("mongo.products_collection"),
			ConnectTimeout:     v.GetDuration("mongo.connect_timeout"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
			RateLimit: RateLimitConfig{
				Enabled: v.GetBool("http.rate_limit.enabled"),
				RPS:     v.GetFloat64("http.rate_limit.rps"),
				Burst:   v.GetInt("http.rate_limit.burst"),
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			WarmInterval:      v.GetDuration("scheduler.warm_interval"),
			WarmWindowDays:    v.GetInt("scheduler.warm_window_days"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:     v.GetInt("scheduler.retry_attempts"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),

			LogsEnabled:            v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:       v.GetBool("telemetry.profiling_enabled"),
			ProfilingServerAddress: v.GetString("telemetry.profiling_server_address"),
			ProfilingTypes:         v.GetStringSlice("telemetry.profiling_types"),
			SpanProfilesEnabled:    v.GetBool("telemetry.span_profiles_enabled"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Analytics: AnalyticsConfig{
			StoreBackend:        v.GetString("analytics.store_backend"),
			CacheTTL:            v.GetDuration("analytics.cache_ttl"),
			DefaultCostRatio:    v.GetFloat64("analytics.default_cost_ratio"),
			LeadTimeDays:        v.GetInt("analytics.lead_time_days"),
			OrderCycleDays:      v.GetInt("analytics.order_cycle_days"),
			SafetyStockDays:     v.GetInt("analytics.safety_stock_days"),
			VelocityHistoryDays: v.GetInt("analytics.velocity_history_days"),
			ABCWindowDays:       v.GetInt("analytics.abc_window_days"),
			TrendThreshold:      v.GetFloat64("analytics.trend_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bi-analytics"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "commerce"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "analytics.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "commerce"
	}
	if cfg.Mongo.OrdersCollection == "" {
		cfg.Mongo.OrdersCollection = "orders"
	}
	if cfg.Mongo.ProductsCollection == "" {
		cfg.Mongo.ProductsCollection = "products"
	}
	if cfg.Mongo.ConnectTimeout == 0 {
		cfg.Mongo.ConnectTimeout = 10 * time.Second
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "analytics:result:"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.RateLimit.RPS == 0 {
		cfg.HTTP.RateLimit.RPS = 20
	}
	if cfg.HTTP.RateLimit.Burst == 0 {
		cfg.HTTP.RateLimit.Burst = 40
	}

	if cfg.Scheduler.WarmInterval == 0 {
		cfg.Scheduler.WarmInterval = 4 * time.Minute
	}
	if cfg.Scheduler.WarmWindowDays == 0 {
		cfg.Scheduler.WarmWindowDays = 30
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 2
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 2 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 2
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.ProfilingServerAddress == "" {
		cfg.Telemetry.ProfilingServerAddress = "http://localhost:4040"
	}

	if cfg.Analytics.StoreBackend == "" {
		cfg.Analytics.StoreBackend = "gorm"
	}
	if cfg.Analytics.CacheTTL == 0 {
		cfg.Analytics.CacheTTL = 5 * time.Minute
	}
	if cfg.Analytics.DefaultCostRatio == 0 {
		cfg.Analytics.DefaultCostRatio = 0.70
	}
	if cfg.Analytics.LeadTimeDays == 0 {
		cfg.Analytics.LeadTimeDays = 5
	}
	if cfg.Analytics.OrderCycleDays == 0 {
		cfg.Analytics.OrderCycleDays = 14
	}
	if cfg.Analytics.SafetyStockDays == 0 {
		cfg.Analytics.SafetyStockDays = 7
	}
	if cfg.Analytics.VelocityHistoryDays == 0 {
		cfg.Analytics.VelocityHistoryDays = 30
	}
	if cfg.Analytics.ABCWindowDays == 0 {
		cfg.Analytics.ABCWindowDays = 90
	}
	if cfg.Analytics.TrendThreshold == 0 {
		cfg.Analytics.TrendThreshold = 0.05
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Analytics.StoreBackend {
	case "gorm", "mongo":
	default:
		return fmt.Errorf("analytics.store_backend must be gorm or mongo, got %q", c.Analytics.StoreBackend)
	}
	if c.Analytics.DefaultCostRatio <= 0 || c.Analytics.DefaultCostRatio > 1 {
		return fmt.Errorf("analytics.default_cost_ratio must be in (0, 1], got %f", c.Analytics.DefaultCostRatio)
	}
	if c.Analytics.LeadTimeDays < 0 || c.Analytics.OrderCycleDays < 0 || c.Analytics.SafetyStockDays < 0 {
		return fmt.Errorf("analytics reorder day counts cannot be negative")
	}
	if c.Analytics.VelocityHistoryDays < 7 {
		return fmt.Errorf("analytics.velocity_history_days must be at least 7, got %d", c.Analytics.VelocityHistoryDays)
	}
	if c.Analytics.ABCWindowDays <= 0 {
		return fmt.Errorf("analytics.abc_window_days must be positive")
	}
	if c.Analytics.TrendThreshold < 0 {
		return fmt.Errorf("analytics.trend_threshold cannot be negative")
	}

	if c.HTTP.RateLimit.RPS < 0 || c.HTTP.RateLimit.Burst < 0 {
		return fmt.Errorf("http.rate_limit values cannot be negative")
	}

	if c.Scheduler.Enabled && c.Scheduler.WarmInterval >= c.Analytics.CacheTTL*10 {
		return fmt.Errorf("scheduler.warm_interval (%s) is far longer than analytics.cache_ttl (%s)",
			c.Scheduler.WarmInterval, c.Analytics.CacheTTL)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled or restricted by swagger.allowed_ips in production")
		}
	}

	if c.Telemetry.SpanProfilesEnabled && !(c.Telemetry.Enabled && c.Telemetry.ProfilingEnabled) {
		return fmt.Errorf("telemetry.span_profiles_enabled requires telemetry.enabled and telemetry.profiling_enabled")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the postgres connection string with escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
