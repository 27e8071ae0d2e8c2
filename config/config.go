package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quetzal/utils"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	Uploads UploadsConfig `yaml:"uploads"`
	Search  SearchConfig  `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	Host          string `yaml:"host"`
	PublicBaseURL string `yaml:"public_base_url"`
	TLSCertFile   string `yaml:"tls_cert_file"`
	TLSKeyFile    string `yaml:"tls_key_file"`
	// Empty allows any origin.
	CORSOrigins []string `yaml:"cors_origins"`
	// Max body size for JSON routes; uploads are not limited.
	MaxJSONBytes int64         `yaml:"max_json_bytes"`
	ShutdownWait time.Duration `yaml:"shutdown_wait"`
}

type StoreConfig struct {
	Driver            string        `yaml:"driver"`
	MongoURI          string        `yaml:"mongo_uri"`
	MongoDB           string        `yaml:"mongo_db"`
	MaxPoolSize       uint64        `yaml:"max_pool_size"`
	MinPoolSize       uint64        `yaml:"min_pool_size"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time"`
	RetryWrites       bool          `yaml:"retry_writes"`
	CatalogCollection string        `yaml:"catalog_collection"`
	UsersCollection   string        `yaml:"users_collection"`
	SQLitePath        string        `yaml:"sqlite_path"`
	Timeout           time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	StaffEmail     string        `yaml:"staff_email"`
	StudentEmail   string        `yaml:"student_email"`
	BrowseRequires bool          `yaml:"browse_requires_auth"`
	Issuer         string        `yaml:"issuer"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default matches the legacy deployment: port 3000, download links on
// 127.0.0.1:3000, files under ./uploads.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:          3000,
			PublicBaseURL: "http://127.0.0.1:3000",
			MaxJSONBytes:  1 << 20,
			ShutdownWait:  10 * time.Second,
		},
		Store: StoreConfig{
			Driver:            DriverMongo,
			MongoURI:          "mongodb://localhost:27017",
			MongoDB:           "quetzal",
			MaxPoolSize:       100,
			MinPoolSize:       10,
			MaxConnIdleTime:   60 * time.Second,
			RetryWrites:       true,
			CatalogCollection: "quetzal",
			UsersCollection:   "quetzal_users",
			SQLitePath:        "quetzal.db",
			Timeout:           10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:       24 * time.Hour,
			BrowseRequires: true,
			Issuer:         "quetzal",
		},
		Uploads: UploadsConfig{Dir: "uploads"},
		Search:  SearchConfig{Debounce: 300 * time.Millisecond},
		Log:     LogConfig{Level: "info"},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file and the
// process environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("QUETZAL_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = utils.GetEnvAsInt("PORT", c.Server.Port)
	c.Server.Host = utils.GetEnvAsString("HOST", c.Server.Host)
	c.Server.PublicBaseURL = utils.GetEnvAsString("PUBLIC_BASE_URL", c.Server.PublicBaseURL)
	c.Server.TLSCertFile = utils.GetEnvAsString("TLS_CERT_FILE", c.Server.TLSCertFile)
	c.Server.TLSKeyFile = utils.GetEnvAsString("TLS_KEY_FILE", c.Server.TLSKeyFile)
	c.Server.ShutdownWait = utils.GetEnvAsDuration("SHUTDOWN_WAIT", c.Server.ShutdownWait)
	c.Server.CORSOrigins = utils.GetEnvAsSlice("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Store.Driver = utils.GetEnvAsString("STORE_DRIVER", c.Store.Driver)
	c.Store.MongoURI = utils.GetEnvAsString("MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDB = utils.GetEnvAsString("MONGO_DB", c.Store.MongoDB)
	c.Store.MaxPoolSize = utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", c.Store.MaxPoolSize)
	c.Store.MinPoolSize = utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", c.Store.MinPoolSize)
	c.Store.MaxConnIdleTime = utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", c.Store.MaxConnIdleTime)
	c.Store.RetryWrites = utils.GetEnvAsBool("MONGO_RETRY_WRITES", c.Store.RetryWrites)
	c.Store.CatalogCollection = utils.GetEnvAsString("CATALOG_COLLECTION", c.Store.CatalogCollection)
	c.Store.UsersCollection = utils.GetEnvAsString("USERS_COLLECTION", c.Store.UsersCollection)
	c.Store.SQLitePath = utils.GetEnvAsString("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.Timeout = utils.GetEnvAsDuration("STORE_TIMEOUT", c.Store.Timeout)

	c.Auth.JWTSecret = utils.GetEnvAsString("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.TokenTTL = utils.GetEnvAsDuration("JWT_EXPIRATION_TIME", c.Auth.TokenTTL)
	c.Auth.StaffEmail = utils.GetEnvAsString("STAFF_EMAIL", c.Auth.StaffEmail)
	c.Auth.StudentEmail = utils.GetEnvAsString("STUDENT_EMAIL", c.Auth.StudentEmail)
	c.Auth.BrowseRequires = utils.GetEnvAsBool("BROWSE_REQUIRES_AUTH", c.Auth.BrowseRequires)

	c.Redis.URL = utils.GetEnvAsString("REDIS_URL", c.Redis.URL)
	c.Uploads.Dir = utils.GetEnvAsString("UPLOAD_DIR", c.Uploads.Dir)
	c.Search.Debounce = utils.GetEnvAsDuration("SEARCH_DEBOUNCE", c.Search.Debounce)

	c.Log.Level = utils.GetEnvAsString("LOG_LEVEL", c.Log.Level)
	c.Log.Development = utils.GetEnvAsBool("LOG_DEVELOPMENT", c.Log.Development)
}

// Validate checks the settings every command depends on. Auth settings are
// checked separately by ValidateAuth.
func (c Config) Validate() error {
	var errs []error
	if c.Store.Driver != DriverMongo && c.Store.Driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// ValidateAuth checks the settings needed to issue and verify tokens.
func (c Config) ValidateAuth() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is not set"))
	}
	if c.Auth.StaffEmail == "" {
		errs = append(errs, errors.New("STAFF_EMAIL is not set"))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c Config) TLSEnabled() bool {
	return c.Server.TLSCertFile != "" && c.Server.TLSKeyFile != ""
}

// MongoOptions adapts the store settings to the client constructor.
func (s StoreConfig) MongoOptions() utils.MongoOptions {
	return utils.MongoOptions{
		URI:             s.MongoURI,
		MaxPoolSize:     s.MaxPoolSize,
		MinPoolSize:     s.MinPoolSize,
		MaxConnIdleTime: s.MaxConnIdleTime,
		RetryWrites:     s.RetryWrites,
	}
}
