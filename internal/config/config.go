package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"water-app-go/pkg/logger"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPPort      string        `yaml:"http_port"`
	Env           string        `yaml:"env"`
	StorageDriver string        `yaml:"storage_driver"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	DB            DBConfig      `yaml:"db"`
	Redis         RedisConfig   `yaml:"redis"`
	NATS          NATSConfig    `yaml:"nats"`
	Auth          AuthConfig    `yaml:"auth"`
	CORS          CORSConfig    `yaml:"cors"`
	Supply        SupplyConfig  `yaml:"supply"`
}

type DBConfig struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	TimeZone        string        `yaml:"timezone"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig is optional; without a URL locks stay in-process.
type RedisConfig struct {
	URL         string        `yaml:"url"`
	PoolSize    int           `yaml:"pool_size"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	SkipAuth   bool   `yaml:"skip"`
	MockUserID string `yaml:"mock_user_id"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SupplyConfig struct {
	TimeZone          string  `yaml:"timezone"`
	TariffRate        float64 `yaml:"tariff_rate"`
	WeekStart         string  `yaml:"week_start"`
	StrictInvitations bool    `yaml:"strict_invitations"`
}

func Defaults() Config {
	return Config{
		HTTPPort:      "8080",
		Env:           "development",
		StorageDriver: StoragePostgres,
		LockTTL:       10 * time.Second,
		DB: DBConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "water_app",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{PoolSize: 10, DialTimeout: 5 * time.Second},
		Auth:  AuthConfig{MockUserID: "dev-user"},
		CORS:  CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Supply: SupplyConfig{
			TimeZone:   "Asia/Kolkata",
			TariffRate: 0.05,
			WeekStart:  "sunday",
		},
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE, a .env
// file and finally the process environment, later layers winning.
func Load(log logger.Logger) (Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
		log.Info("config: loaded env file", "path", envFile)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("config: loaded config file", "path", path)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.LockTTL = getEnvDuration("LOCK_TTL", cfg.LockTTL)

	cfg.DB.DSN = getEnv("DB_DSN", cfg.DB.DSN)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.TimeZone = getEnv("DB_TIMEZONE", cfg.DB.TimeZone)
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.DB.ConnMaxLifetime)

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", cfg.Redis.DialTimeout)

	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.SkipAuth = getEnvBool("AUTH_SKIP", cfg.Auth.SkipAuth)
	cfg.Auth.MockUserID = getEnv("AUTH_MOCK_USER_ID", cfg.Auth.MockUserID)

	cfg.CORS.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.Supply.TimeZone = getEnv("SUPPLY_TIMEZONE", cfg.Supply.TimeZone)
	cfg.Supply.TariffRate = getEnvFloat("SUPPLY_TARIFF_RATE", cfg.Supply.TariffRate)
	cfg.Supply.WeekStart = getEnv("SUPPLY_WEEK_START", cfg.Supply.WeekStart)
	cfg.Supply.StrictInvitations = getEnvBool("INVITATION_STRICT_TRANSITIONS", cfg.Supply.StrictInvitations)
}

func (c Config) Validate() error {
	var errs []error
	if c.StorageDriver != StorageMemory && c.StorageDriver != StoragePostgres {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver))
	}
	if !c.Auth.SkipAuth && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required unless AUTH_SKIP is set"))
	}
	if c.Supply.TariffRate < 0 {
		errs = append(errs, errors.New("SUPPLY_TARIFF_RATE must not be negative"))
	}
	if _, err := c.Supply.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Supply.Weekday(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c SupplyConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("SUPPLY_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c SupplyConfig) Weekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.WeekStart))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == name {
			return day, nil
		}
	}
	return time.Sunday, fmt.Errorf("SUPPLY_WEEK_START %q is not a weekday", c.WeekStart)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
