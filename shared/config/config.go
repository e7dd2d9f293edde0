package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envPrefix = "ANNIV"

const defaultMaxRedirects = 3

// CompensationTimeout bounds the cleanup of a failed submission. It runs after
// the submission timeout, so the orphan sweeper must wait longer than both.
const CompensationTimeout = 30 * time.Second

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Server     Server     `yaml:"server"`
	Pool       Pool       `yaml:"pool"`
	Listing    Listing    `yaml:"listing"`
	Submission Submission `yaml:"submission"`
	Avatar     Avatar     `yaml:"avatar"`
	Assets     Assets     `yaml:"assets"`
	Security   Security   `yaml:"security"`
	GC         GC         `yaml:"gc"`
}

type Server struct {
	Port           int      `yaml:"port" envconfig:"PORT"`
	DevMode        bool     `yaml:"dev_mode" envconfig:"DEV"`
	LocalMode      bool     `yaml:"local_mode" envconfig:"LOCAL"`
	Verbose        bool     `yaml:"verbose" envconfig:"VERBOSE"`
	LogJSON        bool     `yaml:"log_json" split_words:"true"`
	TrustedProxy   bool     `yaml:"trusted_proxy" split_words:"true"` // honour X-Forwarded-For / X-Real-IP
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
}

type Pool struct {
	MaxOpenConns int           `yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns int           `yaml:"max_idle_conns" split_words:"true"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" split_words:"true"`
	AutoMigrate  bool          `yaml:"auto_migrate" split_words:"true"`
	QueryTimeout time.Duration `yaml:"query_timeout" split_words:"true"`
}

type Listing struct {
	DefaultPageSize int `yaml:"default_page_size" split_words:"true"`
	MaxPageSize     int `yaml:"max_page_size" split_words:"true"`
}

type Submission struct {
	MaxContentLength int           `yaml:"max_content_length" split_words:"true"`
	MaxNameLength    int           `yaml:"max_name_length" split_words:"true"`
	TestingMode      bool          `yaml:"testing_mode" split_words:"true"` // accept syntactically invalid emails
	Timeout          time.Duration `yaml:"timeout" split_words:"true"`
	RateLimitWindow  time.Duration `yaml:"rate_limit_window" split_words:"true"`
}

type Avatar struct {
	AllowedSchemes    []string      `yaml:"allowed_schemes" split_words:"true"`
	AllowedExtensions []string      `yaml:"allowed_extensions" split_words:"true"`
	MaxFrames         int           `yaml:"max_frames" split_words:"true"`
	Size              int           `yaml:"size"` // canonical square side in pixels
	MaxBytes          int64         `yaml:"max_bytes" split_words:"true"`
	MaxRedirects      *int          `yaml:"max_redirects" split_words:"true"` // nil means default, 0 disables redirects
	FetchTimeout      time.Duration `yaml:"fetch_timeout" split_words:"true"`
	Parallelism       int           `yaml:"parallelism"`
	MaxDecodedBytes   int64         `yaml:"max_decoded_bytes" split_words:"true"`
	AllowPrivateHosts bool          `yaml:"allow_private_hosts" split_words:"true"` // fetch from loopback and private ranges
}

// Redirects is the effective redirect limit.
func (a Avatar) Redirects() int {
	if a.MaxRedirects == nil {
		return defaultMaxRedirects
	}
	return *a.MaxRedirects
}

type Assets struct {
	Backend     string `yaml:"backend"` // "fs" or "s3"
	RootPath    string `yaml:"root_path" split_words:"true"`
	BaseURL     string `yaml:"base_url" split_words:"true"`
	ServeLocal  bool   `yaml:"serve_local" split_words:"true"`
	S3Bucket    string `yaml:"s3_bucket" envconfig:"S3_BUCKET"`
	S3Region    string `yaml:"s3_region" envconfig:"S3_REGION"`
	S3Endpoint  string `yaml:"s3_endpoint" envconfig:"S3_ENDPOINT"`
	S3Prefix    string `yaml:"s3_prefix" split_words:"true"`
	S3PathStyle bool   `yaml:"s3_path_style" split_words:"true"`
}

const (
	SecurityLocal  = "local"
	SecurityAPIKey = "apikey"
	SecurityJWT    = "jwt"
)

type Security struct {
	Mode          string `yaml:"mode"`
	ProtectSubmit bool   `yaml:"protect_submit" split_words:"true"`
}

type GC struct {
	Enabled         bool          `yaml:"enabled"`
	Interval        time.Duration `yaml:"interval"`
	SafetyThreshold time.Duration `yaml:"safety_threshold" split_words:"true"`
}

type Private struct {
	Pg           Pg     `yaml:"pg"`
	JwtSecret    string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	EmailHashKey string `yaml:"email_hash_key" envconfig:"EMAIL_HASH_KEY"` // base64, 32 bytes
	S3AccessKey  string `yaml:"s3_access_key" envconfig:"S3_ACCESS_KEY"`
	S3SecretKey  string `yaml:"s3_secret_key" envconfig:"S3_SECRET_KEY"`
}

type Pg struct {
	Host     string `yaml:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" envconfig:"DB_PORT"`
	User     string `yaml:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	Dbname   string `yaml:"dbname" envconfig:"DB_NAME"`
}

func (c *Config) DevMode() bool {
	return c.Public.Server.DevMode
}

// LogLevel mirrors the board's historical switches: dev mode logs debug,
// verbose logs debug, everything else logs info.
func (c *Config) LogLevel() string {
	if c.Public.Server.DevMode || c.Public.Server.Verbose {
		return "debug"
	}
	return "info"
}

// SecurityMode resolves the effective authorization mode. Local mode always
// disables authorization.
func (c *Config) SecurityMode() string {
	if c.Public.Server.LocalMode {
		return SecurityLocal
	}
	return c.Public.Security.Mode
}

func loadPath(configPath string, output interface{}, required bool) error {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml (required) and private.yaml (optional) from
// configFolder, applies environment overrides and fills defaults.
func Load(configFolder string) (*Config, error) {
	// .env is optional, real environment wins over it
	_ = godotenv.Load(path.Join(configFolder, ".env"))

	cfg := &Config{}
	if err := loadPath(path.Join(configFolder, "public.yaml"), &cfg.Public, true); err != nil {
		return nil, err
	}
	if err := loadPath(path.Join(configFolder, "private.yaml"), &cfg.Private, false); err != nil {
		return nil, err
	}

	if err := envconfig.Process(envPrefix, &cfg.Public); err != nil {
		return nil, fmt.Errorf("can't apply environment: %w", err)
	}
	if err := envconfig.Process(envPrefix, &cfg.Private); err != nil {
		return nil, fmt.Errorf("can't apply environment: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err)
	}
	return cfg
}

// ApplyDefaults fills every zero value with a working default.
func (c *Config) ApplyDefaults() {
	s := &c.Public.Server
	if s.Port == 0 {
		s.Port = 8855
	}

	p := &c.Public.Pool
	if p.MaxOpenConns == 0 {
		p.MaxOpenConns = 20
		if s.DevMode {
			p.MaxOpenConns = 4
		}
	}
	if p.MaxIdleConns == 0 {
		p.MaxIdleConns = p.MaxOpenConns
	}
	if p.ConnLifetime == 0 {
		p.ConnLifetime = 30 * time.Minute
	}
	if p.QueryTimeout == 0 {
		p.QueryTimeout = 5 * time.Second
	}

	l := &c.Public.Listing
	if l.DefaultPageSize == 0 {
		l.DefaultPageSize = 20
	}
	if l.MaxPageSize == 0 {
		l.MaxPageSize = 100
	}

	sub := &c.Public.Submission
	if sub.MaxContentLength == 0 {
		sub.MaxContentLength = 2000
	}
	if sub.MaxNameLength == 0 {
		sub.MaxNameLength = 64
	}
	if sub.Timeout == 0 {
		sub.Timeout = 60 * time.Second
	}
	if sub.RateLimitWindow == 0 {
		sub.RateLimitWindow = 10 * time.Minute
	}

	a := &c.Public.Avatar
	if len(a.AllowedSchemes) == 0 {
		a.AllowedSchemes = []string{"http", "https"}
	}
	if len(a.AllowedExtensions) == 0 {
		a.AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	}
	if a.MaxFrames == 0 {
		a.MaxFrames = 16
	}
	if a.Size == 0 {
		a.Size = 256
	}
	if a.MaxBytes == 0 {
		a.MaxBytes = 5 << 20
	}
	if a.MaxRedirects == nil {
		n := defaultMaxRedirects
		a.MaxRedirects = &n
	}
	if a.FetchTimeout == 0 {
		a.FetchTimeout = 10 * time.Second
	}
	if a.Parallelism == 0 {
		a.Parallelism = 8
	}
	if a.MaxDecodedBytes == 0 {
		a.MaxDecodedBytes = 64 << 20
	}

	as := &c.Public.Assets
	if as.Backend == "" {
		as.Backend = "fs"
	}
	if as.RootPath == "" {
		as.RootPath = "assets"
	}
	if as.BaseURL == "" {
		as.BaseURL = "/assets"
	}

	if c.Public.Security.Mode == "" {
		c.Public.Security.Mode = SecurityLocal
	}

	g := &c.Public.GC
	if g.Interval == 0 {
		g.Interval = time.Hour
	}
	if g.SafetyThreshold == 0 {
		g.SafetyThreshold = 2 * (c.Public.Submission.Timeout + CompensationTimeout)
	}

	pg := &c.Private.Pg
	if pg.Host == "" {
		pg.Host = "localhost"
	}
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if pg.Dbname == "" {
		pg.Dbname = "anniv"
	}
}

func (c *Config) Validate() error {
	switch c.Public.Security.Mode {
	case SecurityLocal, SecurityAPIKey:
	case SecurityJWT:
		if c.Private.JwtSecret == "" && !c.Public.Server.LocalMode {
			return errors.New("security mode jwt requires jwt_secret")
		}
	default:
		return fmt.Errorf("unknown security mode %q", c.Public.Security.Mode)
	}
	switch c.Public.Assets.Backend {
	case "fs":
	case "s3":
		if c.Public.Assets.S3Bucket == "" {
			return errors.New("assets backend s3 requires s3_bucket")
		}
	default:
		return fmt.Errorf("unknown assets backend %q", c.Public.Assets.Backend)
	}
	if c.Public.Listing.DefaultPageSize > c.Public.Listing.MaxPageSize {
		return errors.New("listing default_page_size exceeds max_page_size")
	}
	if r := c.Public.Avatar.MaxRedirects; r != nil && *r < 0 {
		return errors.New("avatar max_redirects must not be negative")
	}
	// a younger directory may belong to a submission that is still running
	if limit := c.Public.Submission.Timeout + CompensationTimeout; c.Public.GC.SafetyThreshold <= limit {
		return fmt.Errorf("gc safety_threshold must exceed %s (submission timeout + compensation timeout)", limit)
	}
	// unkeyed hashes can be reversed with a dictionary of addresses
	if c.Private.EmailHashKey == "" && !c.Public.Server.LocalMode && !c.Public.Server.DevMode {
		return errors.New("email_hash_key is required outside local and dev mode")
	}
	return nil
}
