package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultCountriesURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	DefaultExchangeURL  = "https://open.er-api.com/v6/latest/USD"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Upstream UpstreamConfig
	GDP      GDPConfig
	Storage  StorageConfig
	LogLevel string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the country repository: postgres, mongo or memory.
type StoreConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
}

// DSN returns a lib/pq keyword/value connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	HistorySize int
}

type UpstreamConfig struct {
	CountriesURL string
	ExchangeURL  string
	Timeout      time.Duration
	FlagTimeout  time.Duration
}

// GDPConfig bounds the multiplier drawn for every estimated GDP figure.
type GDPConfig struct {
	MinMultiplier float64
	MaxMultiplier float64
}

type StorageConfig struct {
	Driver    string
	CacheDir  string
	ImageName string
	MinIO     MinIOConfig
}

// ImagePath is the fixed location of the summary image for the file driver.
func (s StorageConfig) ImagePath() string {
	return filepath.Join(s.CacheDir, s.ImageName)
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_DB", "countries")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_OPEN_CONNS", 10)
	viper.SetDefault("MONGODB_DATABASE", "countries")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REFRESH_HISTORY_SIZE", 20)
	viper.SetDefault("COUNTRIES_API_URL", DefaultCountriesURL)
	viper.SetDefault("EXCHANGE_API_URL", DefaultExchangeURL)
	viper.SetDefault("UPSTREAM_TIMEOUT", 15)
	viper.SetDefault("FLAG_TIMEOUT", 5)
	viper.SetDefault("GDP_MULTIPLIER_MIN", 1000.0)
	viper.SetDefault("GDP_MULTIPLIER_MAX", 2000.0)
	viper.SetDefault("STORAGE_DRIVER", "file")
	viper.SetDefault("CACHE_DIR", "cache")
	viper.SetDefault("SUMMARY_IMAGE_NAME", "summary.png")
	viper.SetDefault("MINIO_BUCKET", "country-service")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Store: StoreConfig{
			Driver: strings.ToLower(viper.GetString("STORE_DRIVER")),
		},
		Postgres: PostgresConfig{
			Host:         viper.GetString("POSTGRES_HOST"),
			Port:         viper.GetString("POSTGRES_PORT"),
			User:         viper.GetString("POSTGRES_USER"),
			Password:     os.Getenv("POSTGRES_PASSWORD"),
			Database:     viper.GetString("POSTGRES_DB"),
			SSLMode:      viper.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns: viper.GetInt("POSTGRES_MAX_OPEN_CONNS"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:        viper.GetString("REDIS_HOST"),
			Port:        viper.GetString("REDIS_PORT"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          viper.GetInt("REDIS_DB"),
			HistorySize: viper.GetInt("REFRESH_HISTORY_SIZE"),
		},
		Upstream: UpstreamConfig{
			CountriesURL: viper.GetString("COUNTRIES_API_URL"),
			ExchangeURL:  viper.GetString("EXCHANGE_API_URL"),
			Timeout:      time.Duration(viper.GetInt("UPSTREAM_TIMEOUT")) * time.Second,
			FlagTimeout:  time.Duration(viper.GetInt("FLAG_TIMEOUT")) * time.Second,
		},
		GDP: GDPConfig{
			MinMultiplier: viper.GetFloat64("GDP_MULTIPLIER_MIN"),
			MaxMultiplier: viper.GetFloat64("GDP_MULTIPLIER_MAX"),
		},
		Storage: StorageConfig{
			Driver:    strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			CacheDir:  viper.GetString("CACHE_DIR"),
			ImageName: viper.GetString("SUMMARY_IMAGE_NAME"),
			MinIO: MinIOConfig{
				Endpoint:  viper.GetString("MINIO_ENDPOINT"),
				AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				UseSSL:    viper.GetBool("MINIO_USE_SSL"),
				Bucket:    viper.GetString("MINIO_BUCKET"),
			},
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GDP.MinMultiplier <= 0 || c.GDP.MaxMultiplier < c.GDP.MinMultiplier {
		return fmt.Errorf("invalid GDP multiplier bounds [%v, %v]", c.GDP.MinMultiplier, c.GDP.MaxMultiplier)
	}
	switch c.Store.Driver {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Driver == "mongo" && c.MongoDB.URI == "" {
		return fmt.Errorf("STORE_DRIVER=mongo requires MONGODB_URI")
	}
	switch c.Storage.Driver {
	case "file", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Upstream.Timeout <= 0 || c.Upstream.FlagTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}
	return nil
}
