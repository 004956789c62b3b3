package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration for cmd/server and cmd/audit-relay.
type Config struct {
	Debug     bool            `mapstructure:"debug"`
	SentryDSN string          `mapstructure:"sentry_dsn"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	S3        S3Config        `mapstructure:"s3"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// DevelopmentMode exposes internal error detail in responses.
	DevelopmentMode bool `mapstructure:"development_mode"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig is optional; an empty URL disables the revocation cache.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type AuthConfig struct {
	JWTSigningKey    string `mapstructure:"jwt_signing_key"`
	Issuer           string `mapstructure:"issuer"`
	GovernmentDomain string `mapstructure:"government_domain"`
}

// EthereumConfig configures the Sync Bridge. An empty RPCURL disables it.
type EthereumConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	PrivateKey     string        `mapstructure:"private_key"`
	AnchorAddress  string        `mapstructure:"anchor_address"`
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	GasLimit       uint64        `mapstructure:"gas_limit"`
}

type S3Config struct {
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	FilesBucket   string `mapstructure:"files_bucket"`
	ContentBucket string `mapstructure:"content_bucket"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type WorkflowConfig struct {
	TxTimeout time.Duration `mapstructure:"tx_timeout"`
}

// Load reads config for the named service from an optional YAML file, .env
// overlays and LANDREGISTRY_* environment variables.
func Load(service, configFile, envPath string) (*Config, error) {
	v := configureViper(service, configFile, envPath)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: database.dsn is required")
	}
	if c.Auth.JWTSigningKey == "" {
		return errors.New("config: auth.jwt_signing_key is required")
	}
	if !c.Debug && len(c.Auth.JWTSigningKey) < 32 {
		return errors.New("config: auth.jwt_signing_key must be at least 32 bytes outside debug mode")
	}
	if c.Auth.GovernmentDomain == "" {
		return errors.New("config: auth.government_domain is required")
	}
	if c.Ethereum.RPCURL != "" && c.Ethereum.PrivateKey == "" {
		return errors.New("config: ethereum.private_key is required when ethereum.rpc_url is set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.development_mode", false)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("kafka.audit_topic", "landregistry.audit")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.poll_interval", 2*time.Second)
	v.SetDefault("auth.issuer", "landregistry")
	v.SetDefault("ethereum.receipt_timeout", 2*time.Minute)
	v.SetDefault("ethereum.gas_limit", 60000)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.files_bucket", "landregistry-uploads")
	v.SetDefault("s3.content_bucket", "landregistry-documents")
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("workflow.tx_timeout", 5*time.Second)
}

func configureViper(service, configFile, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("LANDREGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about; without a
	// config file Unmarshal would miss env-only keys.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

var envKeys = []string{
	"debug",
	"sentry_dsn",
	"server.addr",
	"server.read_timeout",
	"server.write_timeout",
	"server.idle_timeout",
	"server.shutdown_timeout",
	"server.development_mode",
	"database.dsn",
	"database.max_open_conns",
	"database.max_idle_conns",
	"database.conn_max_lifetime",
	"redis.url",
	"redis.pool_size",
	"redis.min_idle_conns",
	"redis.dial_timeout",
	"redis.read_timeout",
	"redis.write_timeout",
	"kafka.brokers",
	"kafka.audit_topic",
	"kafka.batch_size",
	"kafka.poll_interval",
	"auth.jwt_signing_key",
	"auth.issuer",
	"auth.government_domain",
	"ethereum.rpc_url",
	"ethereum.private_key",
	"ethereum.anchor_address",
	"ethereum.receipt_timeout",
	"ethereum.gas_limit",
	"s3.endpoint",
	"s3.region",
	"s3.access_key",
	"s3.secret_key",
	"s3.files_bucket",
	"s3.content_bucket",
	"rate_limit.requests_per_second",
	"rate_limit.burst",
	"workflow.tx_timeout",
}

// loadEnv overlays .env, .env.local and .env.<service>.local from envPath.
func loadEnv(envPath, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}
	if envPath == "" {
		envPath = "config/"
	}
	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
