package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CORETRACK_DATABASE_HOST
const EnvPrefix = "CORETRACK"

const defaultJWTSecret = "change-me-in-production"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
	Storage   StorageConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Xendit    XenditConfig
	Assistant AssistantConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Printing  PrintingConfig
	Swagger   SwaggerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name      string
	Env       string
	Port      string
	BaseURL   string // public URL used in checkout redirects
	TrialDays int
}

// IsProduction reports whether the service runs in production
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	MaxBodySize        int64
	WebhookBodyLimit   int64
	RateLimitEnabled   bool
	RateLimitRPS       float64
	RateLimitBurst     int
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	CORSAllowOrigins   []string
	TrustedProxies     []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	SlowQuery       time.Duration
	// Retry policy for the transaction runner
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// RedisConfig holds Redis connection settings; an empty Host disables Redis
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// Addr returns host:port
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", r.Host, r.Port) }

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	Issuer                 string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	MaxRefreshCount        int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	SamplingRatio     float64
	LogsEnabled       bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	ProfilingEnabled  bool
	PyroscopeAddress  string
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for MinIO and friends
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignExpiry   time.Duration
	MaxUploadSize   int64
}

// StripeConfig holds Stripe settings
type StripeConfig struct {
	Enabled       bool
	SecretKey     string
	WebhookSecret string
	// PriceIDs maps plan names (starter, pro, enterprise) to Stripe price ids
	PriceIDs   map[string]string
	SuccessURL string
	CancelURL  string
}

// PayPalConfig holds PayPal REST settings
type PayPalConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	WebhookID    string
	BaseURL      string
	// PlanIDs maps PayPal billing plan ids to CoreTrack plans
	PlanIDs map[string]string
}

// XenditConfig holds Xendit settings
type XenditConfig struct {
	Enabled       bool
	SecretKey     string
	CallbackToken string
	BaseURL       string
	InvoiceExpiry time.Duration
	// Currencies routed to Xendit for checkout instead of Stripe
	Currencies []string
	// Prices maps plan names to the monthly price in the invoice currency
	Prices map[string]string
}

// AssistantConfig holds the AI assistant settings
type AssistantConfig struct {
	Enabled         bool
	APIKey          string
	Model           string
	Timeout         time.Duration
	HistoryMessages int
	MaxOutputTokens int32
}

// SyncConfig holds real-time sync settings
type SyncConfig struct {
	OfflineAfter   time.Duration
	RetryBaseDelay time.Duration
	MaxAttempts    int
	PullLimit      int
	PingInterval   time.Duration
	Channel        string // redis pub/sub channel
	MaxClients     int    // concurrent streams per instance, 0 is unlimited
}

// SchedulerConfig holds background job intervals
type SchedulerConfig struct {
	Enabled             bool
	SyncRetryInterval   time.Duration
	IntegrityInterval   time.Duration
	TrialExpiryInterval time.Duration
	JobTimeout          time.Duration
}

// PrintingConfig holds receipt and report rendering settings
type PrintingConfig struct {
	PDFEnabled  bool
	ChromeURL   string // remote DevTools websocket; empty launches a local browser
	PDFTimeout  time.Duration
	PaperWidth  float64 // inches
	PaperHeight float64 // inches
}

// SwaggerConfig holds the API documentation endpoint settings
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // require a valid access token
	AllowedIPs  []string // IPs or CIDRs, empty allows all
}

// Load reads config.toml from the default search paths, then environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration with the following priority (highest first):
//  1. Environment variables with CORETRACK_ prefix (a .env file is loaded first)
//  2. The config file (path, or config.toml in the search paths when path is empty)
//  3. Built-in defaults
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/coretrack")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:      v.GetString("app.name"),
			Env:       v.GetString("app.env"),
			Port:      v.GetString("app.port"),
			BaseURL:   strings.TrimRight(v.GetString("app.base_url"), "/"),
			TrialDays: v.GetInt("app.trial_days"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:        v.GetDuration("http.read_timeout"),
			WriteTimeout:       v.GetDuration("http.write_timeout"),
			IdleTimeout:        v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:    v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:        v.GetInt64("http.max_body_size"),
			WebhookBodyLimit:   v.GetInt64("http.webhook_body_limit"),
			RateLimitEnabled:   v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:       v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:     v.GetInt("http.rate_limit_burst"),
			AuthRateLimitRPS:   v.GetFloat64("http.auth_rate_limit_rps"),
			AuthRateLimitBurst: v.GetInt("http.auth_rate_limit_burst"),
			CORSAllowOrigins:   v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:     v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			SlowQuery:       v.GetDuration("database.slow_query"),
			RetryAttempts:   v.GetInt("database.retry_attempts"),
			RetryBaseDelay:  v.GetDuration("database.retry_base_delay"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			Issuer:                 v.GetString("jwt.issuer"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			MaxRefreshCount:        v.GetInt("jwt.max_refresh_count"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ServiceName:       v.GetString("telemetry.service_name"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeAddress:  v.GetString("telemetry.pyroscope_address"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
			MaxUploadSize:   v.GetInt64("storage.max_upload_size"),
		},
		Stripe: StripeConfig{
			Enabled:       v.GetBool("stripe.enabled"),
			SecretKey:     v.GetString("stripe.secret_key"),
			WebhookSecret: v.GetString("stripe.webhook_secret"),
			PriceIDs:      v.GetStringMapString("stripe.price_ids"),
			SuccessURL:    v.GetString("stripe.success_url"),
			CancelURL:     v.GetString("stripe.cancel_url"),
		},
		PayPal: PayPalConfig{
			Enabled:      v.GetBool("paypal.enabled"),
			ClientID:     v.GetString("paypal.client_id"),
			ClientSecret: v.GetString("paypal.client_secret"),
			WebhookID:    v.GetString("paypal.webhook_id"),
			BaseURL:      strings.TrimRight(v.GetString("paypal.base_url"), "/"),
			PlanIDs:      v.GetStringMapString("paypal.plan_ids"),
		},
		Xendit: XenditConfig{
			Enabled:       v.GetBool("xendit.enabled"),
			SecretKey:     v.GetString("xendit.secret_key"),
			CallbackToken: v.GetString("xendit.callback_token"),
			BaseURL:       strings.TrimRight(v.GetString("xendit.base_url"), "/"),
			InvoiceExpiry: v.GetDuration("xendit.invoice_expiry"),
			Currencies:    v.GetStringSlice("xendit.currencies"),
			Prices:        v.GetStringMapString("xendit.prices"),
		},
		Assistant: AssistantConfig{
			Enabled:         v.GetBool("assistant.enabled"),
			APIKey:          v.GetString("assistant.api_key"),
			Model:           v.GetString("assistant.model"),
			Timeout:         v.GetDuration("assistant.timeout"),
			HistoryMessages: v.GetInt("assistant.history_messages"),
			MaxOutputTokens: v.GetInt32("assistant.max_output_tokens"),
		},
		Sync: SyncConfig{
			OfflineAfter:   v.GetDuration("sync.offline_after"),
			RetryBaseDelay: v.GetDuration("sync.retry_base_delay"),
			MaxAttempts:    v.GetInt("sync.max_attempts"),
			PullLimit:      v.GetInt("sync.pull_limit"),
			PingInterval:   v.GetDuration("sync.ping_interval"),
			Channel:        v.GetString("sync.channel"),
			MaxClients:     v.GetInt("sync.max_clients"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             v.GetBool("scheduler.enabled"),
			SyncRetryInterval:   v.GetDuration("scheduler.sync_retry_interval"),
			IntegrityInterval:   v.GetDuration("scheduler.integrity_interval"),
			TrialExpiryInterval: v.GetDuration("scheduler.trial_expiry_interval"),
			JobTimeout:          v.GetDuration("scheduler.job_timeout"),
		},
		Printing: PrintingConfig{
			PDFEnabled:  v.GetBool("printing.pdf_enabled"),
			ChromeURL:   v.GetString("printing.chrome_url"),
			PDFTimeout:  v.GetDuration("printing.pdf_timeout"),
			PaperWidth:  v.GetFloat64("printing.paper_width"),
			PaperHeight: v.GetFloat64("printing.paper_height"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coretrack")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("app.trial_days", 14)

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 20*time.Second)
	v.SetDefault("http.max_body_size", 10<<20)
	v.SetDefault("http.webhook_body_limit", 64<<10)
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.rate_limit_rps", 20.0)
	v.SetDefault("http.rate_limit_burst", 40)
	v.SetDefault("http.auth_rate_limit_rps", 0.2)
	v.SetDefault("http.auth_rate_limit_burst", 5)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "coretrack")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.slow_query", 200*time.Millisecond)
	v.SetDefault("database.retry_attempts", 5)
	v.SetDefault("database.retry_base_delay", 50*time.Millisecond)

	v.SetDefault("redis.port", 6379)

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.issuer", "coretrack")
	v.SetDefault("jwt.access_token_expiration", 15*time.Minute)
	v.SetDefault("jwt.refresh_token_expiration", 7*24*time.Hour)
	v.SetDefault("jwt.max_refresh_count", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.time_format", time.RFC3339)

	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", "coretrack")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.metrics_interval", time.Minute)
	v.SetDefault("telemetry.pyroscope_address", "http://localhost:4040")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presign_expiry", 15*time.Minute)
	v.SetDefault("storage.max_upload_size", 5<<20)

	v.SetDefault("paypal.base_url", "https://api-m.sandbox.paypal.com")

	v.SetDefault("xendit.base_url", "https://api.xendit.co")
	v.SetDefault("xendit.invoice_expiry", 24*time.Hour)
	v.SetDefault("xendit.currencies", []string{"IDR", "PHP"})

	v.SetDefault("assistant.model", "gemini-2.5-flash")
	v.SetDefault("assistant.timeout", 30*time.Second)
	v.SetDefault("assistant.history_messages", 20)
	v.SetDefault("assistant.max_output_tokens", 1024)

	v.SetDefault("sync.offline_after", 90*time.Second)
	v.SetDefault("sync.retry_base_delay", 5*time.Second)
	v.SetDefault("sync.max_attempts", 8)
	v.SetDefault("sync.pull_limit", 500)
	v.SetDefault("sync.ping_interval", 25*time.Second)
	v.SetDefault("sync.channel", "coretrack:sync")
	v.SetDefault("sync.max_clients", 5000)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sync_retry_interval", 30*time.Second)
	v.SetDefault("scheduler.integrity_interval", 24*time.Hour)
	v.SetDefault("scheduler.trial_expiry_interval", time.Hour)
	v.SetDefault("scheduler.job_timeout", 10*time.Minute)

	v.SetDefault("printing.pdf_timeout", 30*time.Second)
	v.SetDefault("printing.paper_width", 3.15)
	v.SetDefault("printing.paper_height", 11.0)

	v.SetDefault("swagger.enabled", false)
	v.SetDefault("swagger.require_auth", true)
}

// Validate rejects inconsistent settings and unsafe production settings
func (c *Config) Validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Database.RetryAttempts < 1 {
		return fmt.Errorf("database.retry_attempts must be at least 1")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Stripe.Enabled && (c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "") {
		return fmt.Errorf("stripe.secret_key and stripe.webhook_secret are required when stripe is enabled")
	}
	if c.PayPal.Enabled && (c.PayPal.ClientID == "" || c.PayPal.ClientSecret == "" || c.PayPal.WebhookID == "") {
		return fmt.Errorf("paypal.client_id, paypal.client_secret and paypal.webhook_id are required when paypal is enabled")
	}
	if c.Xendit.Enabled && (c.Xendit.SecretKey == "" || c.Xendit.CallbackToken == "") {
		return fmt.Errorf("xendit.secret_key and xendit.callback_token are required when xendit is enabled")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	if c.Assistant.Enabled && c.Assistant.APIKey == "" {
		return fmt.Errorf("assistant.api_key is required when the assistant is enabled")
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret || len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be set to at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Log.Level == "debug" {
			return fmt.Errorf("log.level=debug is not allowed in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_allow_origins cannot be '*' in production")
			}
		}
		if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
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

// Hostname is used to tag telemetry and pub/sub origins
func Hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
