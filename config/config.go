package config

import (
	"os"
	"strconv"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port     string
	LogLevel string

	DbHost     string
	DbPort     string
	DbUser     string
	DbName     string
	DbPassword string

	RedisAddr string
	NatsURL   string

	WorkerNumber       int
	WorkerInterval     time.Duration
	ReconcileBatchSize int

	VATRate             decimal.Decimal
	ProviderTimeout     time.Duration
	DispatchConcurrency int
	AgentSelector       string
	LockExpiry          time.Duration
	ProviderTablesPath  string

	Wallet  WalletConfig
	ACH     ACHConfig
	OneLink OneLinkConfig
	Aman    AmanConfig
}

type WalletConfig struct {
	URL         string
	Login       string
	Password    string
	GatewayCode string
	GatewayType string
}

type ACHConfig struct {
	SendURL        string
	InquiryURL     string
	CorporateCode  string
	DebtorAccount  string
	PrivateKeyPath string
}

type OneLinkConfig struct {
	TokenURL          string
	TitleFetchURL     string
	PushURL           string
	StatusURL         string
	ClientID          string
	ClientSecret      string
	Username          string
	Password          string
	MerchantType      string
	FromBankIMD       string
	AccountNumberFrom string
	TokenTTL          time.Duration
}

type AmanConfig struct {
	AuthURL       string
	OrderURL      string
	PaymentKeyURL string
	PayURL        string
	InquiryURL    string
	APIKey        string
	IntegrationID string
}

// Load reads the configuration from environment variables, falling back to defaults.
func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DbHost:     getEnv("DB_HOST", "localhost"),
		DbPort:     getEnv("DB_PORT", "5432"),
		DbUser:     getEnv("DB_USER", "postgres"),
		DbName:     getEnv("DB_NAME", "payout"),
		DbPassword: getEnv("DB_PASSWORD", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		NatsURL:   getEnv("NATS_URL", ""),

		WorkerNumber:       getEnvInt("WORKER_NUMBER", consts.DefaultWorkerNumber),
		WorkerInterval:     time.Duration(getEnvInt("WORKER_INTERVAL_SEC", consts.DefaultIntervalInSec)) * time.Second,
		ReconcileBatchSize: getEnvInt("RECONCILE_BATCH_SIZE", consts.DefaultBatchSize),

		VATRate:             getEnvDecimal("VAT_RATE", consts.DefaultVATRate),
		ProviderTimeout:     time.Duration(getEnvInt("PROVIDER_TIMEOUT_SEC", consts.DefaultProviderTimeoutSec)) * time.Second,
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", consts.DefaultDispatchConcurrency),
		AgentSelector:       getEnv("AGENT_SELECTOR", consts.DefaultAgentSelectorPolicy),
		LockExpiry:          time.Duration(getEnvInt("LOCK_EXPIRY_SEC", consts.DefaultLockExpiryInSec)) * time.Second,
		ProviderTablesPath:  getEnv("PROVIDER_TABLES_PATH", ""),

		Wallet: WalletConfig{
			URL:         getEnv("WALLET_API_URL", ""),
			Login:       getEnv("WALLET_LOGIN", ""),
			Password:    getEnv("WALLET_PASSWORD", ""),
			GatewayCode: getEnv("WALLET_GATEWAY_CODE", ""),
			GatewayType: getEnv("WALLET_GATEWAY_TYPE", ""),
		},
		ACH: ACHConfig{
			SendURL:        getEnv("ACH_API_URL", ""),
			InquiryURL:     getEnv("ACH_INQUIRY_URL", ""),
			CorporateCode:  getEnv("ACH_CORPORATE_CODE", ""),
			DebtorAccount:  getEnv("ACH_DEBTOR_ACCOUNT", ""),
			PrivateKeyPath: getEnv("ACH_PRIVATE_KEY_PATH", ""),
		},
		OneLink: OneLinkConfig{
			TokenURL:          getEnv("ONE_LINK_TOKEN_URL", ""),
			TitleFetchURL:     getEnv("ONE_LINK_TITLE_FETCH_URL", ""),
			PushURL:           getEnv("ONE_LINK_PUSH_URL", ""),
			StatusURL:         getEnv("ONE_LINK_STATUS_URL", ""),
			ClientID:          getEnv("ONE_LINK_CLIENT_ID", ""),
			ClientSecret:      getEnv("ONE_LINK_CLIENT_SECRET", ""),
			Username:          getEnv("ONE_LINK_USERNAME", ""),
			Password:          getEnv("ONE_LINK_PASSWORD", ""),
			MerchantType:      getEnv("ONE_LINK_MERCHANT_TYPE", ""),
			FromBankIMD:       getEnv("ONE_LINK_FROM_BANK_IMD", ""),
			AccountNumberFrom: getEnv("ONE_LINK_ACCOUNT_NUMBER_FROM", ""),
			TokenTTL:          time.Duration(getEnvInt("ONE_LINK_TOKEN_TTL_SEC", consts.DefaultOneLinkTokenTTLInSec)) * time.Second,
		},
		Aman: AmanConfig{
			AuthURL:       getEnv("ACCEPT_AUTH_URL", ""),
			OrderURL:      getEnv("ACCEPT_ORDER_URL", ""),
			PaymentKeyURL: getEnv("ACCEPT_PAYMENT_KEY_URL", ""),
			PayURL:        getEnv("ACCEPT_PAY_URL", ""),
			InquiryURL:    getEnv("ACCEPT_INQUIRY_URL", ""),
			APIKey:        getEnv("ACCEPT_API_KEY", ""),
			IntegrationID: getEnv("ACCEPT_INTEGRATION_ID", ""),
		},
	}

	if cfg.WorkerNumber < 1 {
		cfg.WorkerNumber = consts.DefaultWorkerNumber
	}
	if cfg.DispatchConcurrency < 1 {
		cfg.DispatchConcurrency = consts.DefaultDispatchConcurrency
	}

	return cfg
}

// SetupLogger applies the configured level to the package-level gommon logger.
func (c *Config) SetupLogger() {
	switch c.LogLevel {
	case "debug":
		log.SetLevel(log.DEBUG)
	case "warn":
		log.SetLevel(log.WARN)
	case "error":
		log.SetLevel(log.ERROR)
	default:
		log.SetLevel(log.INFO)
	}
	log.SetHeader(`${time_rfc3339} ${level} ${short_file}:${line}`)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("[Config] invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	value := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(value)
	if err != nil {
		log.Warnf("[Config] invalid %s=%q, using %s", key, value, defaultValue)
		return decimal.RequireFromString(defaultValue)
	}
	return d
}
