package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "utlaan"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "UTLAAN_DB_DSN"
	EnvDBHost = "UTLAAN_DB_HOST"
	EnvDBUser = "UTLAAN_DB_USER"
	EnvDBName = "UTLAAN_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Locale        LocaleConfig
	Bootstrap     BootstrapConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UTLAAN_APP_ENV" required:"true"`
	Port         string `envconfig:"UTLAAN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"UTLAAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UTLAAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"UTLAAN_DB_DSN"`

	LegacyHost     string `envconfig:"UTLAAN_DB_HOST"`
	LegacyPort     int    `envconfig:"UTLAAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UTLAAN_DB_USER"`
	LegacyPassword string `envconfig:"UTLAAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"UTLAAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"UTLAAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UTLAAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UTLAAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UTLAAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UTLAAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UTLAAN_REDIS_URL"`
	Address      string        `envconfig:"UTLAAN_REDIS_ADDR"`
	Password     string        `envconfig:"UTLAAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"UTLAAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UTLAAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UTLAAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UTLAAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UTLAAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UTLAAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"UTLAAN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"UTLAAN_JWT_ISSUER" default:"utlaan-backend"`
	ExpirationMinutes int    `envconfig:"UTLAAN_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"UTLAAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"UTLAAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"UTLAAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"UTLAAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"UTLAAN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"UTLAAN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"UTLAAN_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"UTLAAN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// LocaleConfig pins the calendar used for "today" when deriving overdue state.
type LocaleConfig struct {
	Timezone string `envconfig:"UTLAAN_TIMEZONE" default:"Europe/Oslo"`
}

// BootstrapConfig seeds the first admin account when the users table is empty.
type BootstrapConfig struct {
	AdminUsername string `envconfig:"UTLAAN_BOOTSTRAP_ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"UTLAAN_BOOTSTRAP_ADMIN_PASSWORD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"UTLAAN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
