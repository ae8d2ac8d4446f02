package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env         string        `mapstructure:"env"          json:"env"`
	Host        string        `mapstructure:"host"         json:"host"`
	SecretKey   string        `mapstructure:"secret_key"   json:"-"`
	SessionName string        `mapstructure:"session_name" json:"session_name"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"    json:"token_ttl"`
	Port        int           `mapstructure:"port"         json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	SslMode        string `mapstructure:"sslmode"         json:"sslmode"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

func (d Database) URL() string {
	sslMode := d.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		sslMode,
	)
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

func (o Otel) Endpoint() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

type Payment struct {
	Provider      string `mapstructure:"provider"       json:"provider"`
	Currency      string `mapstructure:"currency"       json:"currency"`
	SecretKey     string `mapstructure:"secret_key"     json:"-"`
	PaymentMethod string `mapstructure:"payment_method" json:"payment_method"`
}

type Mail struct {
	Host     string `mapstructure:"host"     json:"host"`
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"-"`
	From     string `mapstructure:"from"     json:"from"`
	Port     int    `mapstructure:"port"     json:"port"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Payment     `mapstructure:"payment"     json:"payment"`
	Mail        `mapstructure:"mail"        json:"mail"`
}

var (
	once   sync.Once
	config *Config
)

// InitConfig loads ./env/<filename>.yaml once. Values can be overridden by
// environment variables such as APPLICATION_SECRET_KEY or DB_HOST, optionally
// declared in a .env file.
func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str("filename", filename).
			Logger()

		logger = logger.With().Str(log.KeyProcess, "loading dotenv").Logger()
		logger.Info().Msg("loading dotenv")
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("failed loading dotenv with error=%w", err)
			logger.Warn().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("loaded dotenv")

		v := viper.New()
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err = v.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.session_name", "storefront-session")
	v.SetDefault("application.token_ttl", "30m")
	v.SetDefault("db.migration_path", "file://migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("payment.provider", "simulator")
	v.SetDefault("payment.currency", "eur")
	v.SetDefault("otel.enabled", false)
}
