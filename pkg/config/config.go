package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "oculent"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	StoreDriverMemory = "memory"
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OCULENT_APP_ENV" default:"development"`
	Port         string `envconfig:"OCULENT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"OCULENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OCULENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects the durable key-value backend behind the cart and
// order ledger.
type StoreConfig struct {
	Driver     string `envconfig:"OCULENT_STORE_DRIVER" default:"file"`
	FileDir    string `envconfig:"OCULENT_STORE_FILE_DIR" default:"./data"`
	SQLitePath string `envconfig:"OCULENT_STORE_SQLITE_PATH" default:"./data/storefront.db"`
	CartKey    string `envconfig:"OCULENT_STORE_CART_KEY" default:"oculentCart"`
	OrdersKey  string `envconfig:"OCULENT_STORE_ORDERS_KEY" default:"oculentOrders"`
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverMemory, StoreDriverFile, StoreDriverSQLite, StoreDriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", s.Driver)
	}
	if s.Driver == StoreDriverFile && s.FileDir == "" {
		return fmt.Errorf("file store requires OCULENT_STORE_FILE_DIR")
	}
	if s.Driver == StoreDriverSQLite && s.SQLitePath == "" {
		return fmt.Errorf("sqlite store requires OCULENT_STORE_SQLITE_PATH")
	}
	if s.CartKey == "" || s.OrdersKey == "" {
		return fmt.Errorf("store keys must not be empty")
	}
	return nil
}

type RedisConfig struct {
	URL      string `envconfig:"OCULENT_REDIS_URL"`
	Address  string `envconfig:"OCULENT_REDIS_ADDR"`
	Password string `envconfig:"OCULENT_REDIS_PASSWORD"`
	DB       int    `envconfig:"OCULENT_REDIS_DB" default:"0"`
}

// CheckoutConfig carries the fixed tax policy applied at checkout.
type CheckoutConfig struct {
	TaxRate string `envconfig:"OCULENT_TAX_RATE" default:"0.08"`

	rate decimal.Decimal
}

func (c *CheckoutConfig) validate() error {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return fmt.Errorf("parsing tax rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("tax rate must be non-negative, got %s", rate)
	}
	c.rate = rate
	return nil
}

// Rate returns the parsed tax rate. Zero value until Load has run.
func (c CheckoutConfig) Rate() decimal.Decimal {
	return c.rate
}
