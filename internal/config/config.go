package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const DriverMemory = "memory"

// Config is embedded in the serve command. Every field can come from a flag
// or from the environment; .env is read before parsing.
type Config struct {
	Port            int           `help:"HTTP listen port." env:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." env:"SHUTDOWN_TIMEOUT" default:"5s"`

	DB    DatabaseConfig `embed:"" prefix:"db-" envprefix:"DB_"`
	Redis RedisConfig    `embed:"" prefix:"redis-" envprefix:"REDIS_"`
	Auth  AuthConfig     `embed:"" prefix:"auth-" envprefix:"AUTH_"`
	Log   LogConfig      `embed:"" prefix:"log-" envprefix:"LOG_"`

	RateLimit        int           `help:"Requests per client per window, 0 disables. Needs Redis." env:"RATE_LIMIT" default:"100"`
	RateLimitWindow  time.Duration `help:"Rate limiter window." env:"RATE_LIMIT_WINDOW" default:"1m"`
	DayCheckInterval time.Duration `help:"How often the board checks for a new calendar day." env:"DAY_CHECK_INTERVAL" default:"1m"`
	QueueSize        int           `help:"Pending jobs the core loop buffers." env:"QUEUE_SIZE" default:"64"`
}

type DatabaseConfig struct {
	Driver   string `help:"Store backend." enum:"memory,sqlite,pgx,postgres" env:"DRIVER" default:"sqlite"`
	URL      string `help:"Connection string. Built from the host fields for Postgres when empty." env:"URL"`
	Path     string `help:"SQLite database file." env:"PATH" default:"kanso.db"`
	Host     string `help:"Postgres host." env:"HOST" default:"localhost"`
	Port     int    `help:"Postgres port." env:"PORT" default:"5432"`
	User     string `help:"Postgres user." env:"USER"`
	Password string `help:"Postgres password." env:"PASSWORD"`
	Name     string `help:"Postgres database." env:"NAME"`
}

type RedisConfig struct {
	Addr     string        `help:"Redis address, empty disables caching and rate limiting." env:"ADDR"`
	Password string        `help:"Redis password." env:"PASSWORD"`
	DB       int           `help:"Redis logical database." env:"DB" default:"0"`
	CacheTTL time.Duration `help:"Lifetime of cached tracker lists." env:"CACHE_TTL" default:"5m"`
}

type AuthConfig struct {
	JWTSecret    string        `help:"Token signing secret, empty leaves the API open." env:"JWT_SECRET"`
	Issuer       string        `help:"Token issuer." env:"ISSUER" default:"kanso-tracker"`
	TokenTTL     time.Duration `help:"Token lifetime." env:"TOKEN_TTL" default:"24h"`
	PasscodeHash string        `help:"bcrypt hash of the owner passcode (see hash-passcode)." env:"PASSCODE_HASH"`
}

type LogConfig struct {
	Level string `help:"Minimum log level." enum:"debug,info,warn,error" env:"LEVEL" default:"info"`
	File  string `help:"Also write JSON logs to this rotating file." env:"FILE"`
}

// LoadDotEnv reads the first .env file found in paths. Variables already in
// the environment win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			return nil
		}
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// AuthEnabled reports whether the API requires bearer tokens.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Validate reports settings that parse fine but cannot work together.
func (c *Config) Validate() error {
	if c.AuthEnabled() && c.Auth.PasscodeHash == "" {
		return errors.New("auth-passcode-hash is required when a JWT secret is set")
	}
	if c.DB.Driver == "pgx" || c.DB.Driver == "postgres" {
		if c.DB.URL == "" && (c.DB.User == "" || c.DB.Name == "") {
			return errors.New("postgres needs db-url or db-user and db-name")
		}
	}
	if c.DayCheckInterval <= 0 {
		return errors.New("day-check-interval must be positive")
	}
	return nil
}

// DSN is the data source name handed to the SQL driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	switch d.Driver {
	case "pgx", "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:     "/" + d.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	default:
		return d.Path
	}
}
