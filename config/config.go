// Package config assembles the service settings from defaults, an optional .env file and the process environment,
// in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cameronmore/session-gate/auth"
	"github.com/cameronmore/session-gate/env"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	envPrefix = "SESSIONS_"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	// DefaultSecret is only suitable for local development.
	DefaultSecret = "dev-only-session-secret"
)

var (
	ErrInvalidValue    = errors.New("invalid value")
	ErrDuplicateUser   = errors.New("user listed more than once")
	ErrMalformedUser   = errors.New("user entries must look like name:password")
	ErrNoUsers         = errors.New("at least one user is required")
	ErrUnknownStore    = errors.New("unknown session store")
	ErrSecretTooShort  = errors.New("secret must be at least 16 bytes outside DEV")
	ErrDefaultSecret   = errors.New("the development secret cannot be used outside DEV")
	ErrNonPositiveTime = errors.New("duration must be positive")
)

type Config struct {
	AppName string
	Env     string
	Addr    string

	Secret          string
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	CookieSecure    bool
	RememberUser    bool

	// take the client address from X-Forwarded-For/X-Real-IP; only safe behind a proxy that sets them
	TrustProxy bool

	Store     string
	SQLiteDSN string

	Users      map[string]string
	BcryptCost int

	// login attempts allowed per minute per client address; 0 disables throttling
	LoginRate  float64
	LoginBurst int

	LogLevel zerolog.Level
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.AppName = "session-gate"
	c.Env = "DEV"
	c.Addr = ":8080"
	c.Secret = DefaultSecret
	c.SessionTTL = 30 * time.Minute
	c.CleanupInterval = time.Minute
	c.CookieSecure = false
	c.RememberUser = true
	c.TrustProxy = false
	c.Store = StoreMemory
	c.SQLiteDSN = auth.DefaultSQLiteDSN
	c.Users = map[string]string{"alice": "1234", "bob": "abcd"}
	c.BcryptCost = 10
	c.LoginRate = 0
	c.LoginBurst = 5
	c.LogLevel = zerolog.InfoLevel
}

func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "DEV")
}

// Load applies defaults, then the .env file at envFile (a missing file is ignored), then the SESSIONS_*
// process environment variables.
func Load(envFile string) (Config, error) {
	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := env.ProcessEnv(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, envPrefix) {
			vars[k] = v
		}
	}
	return FromMap(vars)
}

// FromMap builds a Config from defaults overlaid with vars, keyed by the full SESSIONS_* name.
func FromMap(vars map[string]string) (Config, error) {
	var c Config
	c.LoadDefaults()

	o := overlay{vars: vars}
	o.str("APP_NAME", &c.AppName)
	o.str("ENV", &c.Env)
	o.str("ADDR", &c.Addr)
	o.str("SECRET", &c.Secret)
	o.duration("SESSION_TTL", &c.SessionTTL)
	o.duration("CLEANUP_INTERVAL", &c.CleanupInterval)
	o.boolean("COOKIE_SECURE", &c.CookieSecure)
	o.boolean("REMEMBER_USER", &c.RememberUser)
	o.boolean("TRUST_PROXY", &c.TrustProxy)
	o.str("STORE", &c.Store)
	o.str("SQLITE_DSN", &c.SQLiteDSN)
	o.integer("BCRYPT_COST", &c.BcryptCost)
	o.float("LOGIN_RATE", &c.LoginRate)
	o.integer("LOGIN_BURST", &c.LoginBurst)
	if v, ok := o.lookup("USERS"); ok {
		users, err := ParseUsers(v)
		if err != nil {
			o.fail("USERS", err)
		} else {
			c.Users = users
		}
	}
	if v, ok := o.lookup("LOG_LEVEL"); ok {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			o.fail("LOG_LEVEL", err)
		} else {
			c.LogLevel = level
		}
	}
	if o.err != nil {
		return Config{}, o.err
	}

	c.Addr = normalizeAddr(c.Addr)
	c.Store = strings.ToLower(c.Store)
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		return fmt.Errorf("%sSTORE=%q: %w", envPrefix, c.Store, ErrUnknownStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%sSESSION_TTL: %w", envPrefix, ErrNonPositiveTime)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("%sCLEANUP_INTERVAL: %w", envPrefix, ErrNonPositiveTime)
	}
	if len(c.Users) == 0 {
		return ErrNoUsers
	}
	if !c.IsDev() {
		if c.Secret == DefaultSecret {
			return ErrDefaultSecret
		}
		if len(c.Secret) < 16 {
			return ErrSecretTooShort
		}
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%sBCRYPT_COST=%d: %w", envPrefix, c.BcryptCost, ErrInvalidValue)
	}
	if c.LoginRate < 0 || c.LoginBurst < 1 {
		return fmt.Errorf("%sLOGIN_RATE/LOGIN_BURST: %w", envPrefix, ErrInvalidValue)
	}
	return nil
}

// ParseUsers reads "alice:1234,bob:abcd" into a username -> password map.
func ParseUsers(s string) (map[string]string, error) {
	users := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, password, ok := strings.Cut(entry, ":")
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("%q: %w", entry, ErrMalformedUser)
		}
		if _, dup := users[name]; dup {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateUser)
		}
		users[name] = password
	}
	if len(users) == 0 {
		return nil, ErrNoUsers
	}
	return users, nil
}

// Usernames returns the configured usernames in sorted order.
func (c Config) Usernames() []string {
	names := make([]string, 0, len(c.Users))
	for name := range c.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeAddr(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// overlay records the first conversion failure and ignores the rest.
type overlay struct {
	vars map[string]string
	err  error
}

func (o *overlay) lookup(key string) (string, bool) {
	v, ok := o.vars[envPrefix+key]
	return v, ok && v != ""
}

func (o *overlay) fail(key string, err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
}

func (o *overlay) str(key string, dst *string) {
	if v, ok := o.lookup(key); ok {
		*dst = v
	}
}

func (o *overlay) boolean(key string, dst *bool) {
	if v, ok := o.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			o.fail(key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
			return
		}
		*dst = b
	}
}

func (o *overlay) integer(key string, dst *int) {
	if v, ok := o.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			o.fail(key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
			return
		}
		*dst = n
	}
}

func (o *overlay) float(key string, dst *float64) {
	if v, ok := o.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			o.fail(key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
			return
		}
		*dst = f
	}
}

func (o *overlay) duration(key string, dst *time.Duration) {
	if v, ok := o.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			o.fail(key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
			return
		}
		*dst = d
	}
}
