package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	RateLimitRPS    int           `yaml:"rateLimitRPS"` // 0: без лимита
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type WS struct {
	PingEvery       time.Duration `yaml:"pingEvery"`
	WriteWait       time.Duration `yaml:"writeWait"`
	ReadLimit       int64         `yaml:"readLimit"`
	EventTimeout    time.Duration `yaml:"eventTimeout"`
	EventsPerSecond float64       `yaml:"eventsPerSecond"`
	EventBurst      int           `yaml:"eventBurst"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // messenger
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
}

// Redis: пустой addr отключает кэш.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r Redis) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type Password struct {
	MinLength      int     `yaml:"minLength"`
	BcryptCost     int     `yaml:"bcryptCost"`
	MinEntropyBits float64 `yaml:"minEntropyBits"` // 0: проверка энтропии выключена
}

type JWT struct {
	Secret    string        `yaml:"secret"`
	Issuer    string        `yaml:"issuer"`
	AccessTTL time.Duration `yaml:"accessTTL"`
	ClockSkew time.Duration `yaml:"clockSkew"`
}

type Security struct {
	Password Password `yaml:"password"`
	JWT      JWT      `yaml:"jwt"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	WS       WS       `yaml:"ws"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Security Security `yaml:"security"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// секреты удобнее передавать через окружение, а не через файл
func (c *Config) applyEnv() {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Security.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if len(c.Security.JWT.Secret) < 16 {
		return errors.New("security.jwt.secret must be at least 16 bytes")
	}
	if c.Security.JWT.ClockSkew < 0 || c.Security.JWT.ClockSkew > time.Minute {
		return errors.New("security.jwt.clockSkew must be in [0..1m]")
	}
	if p := c.Security.Password; p.BcryptCost != 0 && (p.BcryptCost < 4 || p.BcryptCost > 18) {
		return errors.New("security.password.bcryptCost must be in [4..18]")
	}

	// дефолты
	c.HTTP.ReadTimeout = durationOr(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = durationOr(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.IdleTimeout = durationOr(c.HTTP.IdleTimeout, 60*time.Second)
	c.HTTP.ShutdownTimeout = durationOr(c.HTTP.ShutdownTimeout, 10*time.Second)
	c.HTTP.RequestTimeout = durationOr(c.HTTP.RequestTimeout, 30*time.Second)

	c.WS.PingEvery = durationOr(c.WS.PingEvery, 15*time.Second)
	c.WS.WriteWait = durationOr(c.WS.WriteWait, 5*time.Second)
	c.WS.EventTimeout = durationOr(c.WS.EventTimeout, 5*time.Second)
	if c.WS.ReadLimit <= 0 {
		c.WS.ReadLimit = 1 << 20
	}
	if c.WS.EventsPerSecond <= 0 {
		c.WS.EventsPerSecond = 20
	}
	if c.WS.EventBurst <= 0 {
		c.WS.EventBurst = 40
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "messenger"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	if c.Security.Password.MinLength <= 0 {
		c.Security.Password.MinLength = 6
	}
	if c.Security.JWT.Issuer == "" {
		c.Security.JWT.Issuer = "messenger"
	}
	c.Security.JWT.AccessTTL = durationOr(c.Security.JWT.AccessTTL, 24*time.Hour)

	if c.Postgres.ApplicationName == "" {
		c.Postgres.ApplicationName = c.Logging.Service
	}
	return nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
