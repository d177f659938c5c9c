package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит всю конфигурацию приложения
//
// Загружается один раз при старте процесса и далее не изменяется.
type Config struct {
	Server   ServerConfig
	Relay    RelayConfig
	Exchange ExchangeConfig
	Notify   NotifyConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// RelayConfig - настройки обработки алертов
type RelayConfig struct {
	WebhookSecret string  // общий секрет, сверяется с полем secret алерта
	DefaultSymbol string  // пара по умолчанию, если алерт не указал symbol
	Leverage      int     // плечо для расчёта объёма ордера
	MinBalance    float64 // баланс на уровне или ниже - торговля не ведётся
}

// ExchangeConfig - доступ к бирже
type ExchangeConfig struct {
	PrivateKey    string        // hex-ключ API-кошелька (подпись ордеров)
	WalletAddress string        // 0x-адрес основного аккаунта
	APIURL        string        // базовый URL REST API
	OrderTimeout  time.Duration // таймаут одного вызова биржи
	SlippagePct   float64       // допуск цены для IOC "рыночных" ордеров
}

// NotifyConfig - настройки исходящих уведомлений
type NotifyConfig struct {
	DiscordWebhookURL string
	Timeout           time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Relay: RelayConfig{
			WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
			DefaultSymbol: getEnv("DEFAULT_SYMBOL", "BTC/USDC:USDC"),
			Leverage:      getEnvAsInt("LEVERAGE", 5),
			MinBalance:    getEnvAsFloat("MIN_BALANCE", 0),
		},
		Exchange: ExchangeConfig{
			PrivateKey:    getEnv("EXCHANGE_PRIVATE_KEY", ""),
			WalletAddress: getEnv("WALLET_ADDRESS", ""),
			APIURL:        getEnv("EXCHANGE_API_URL", "https://api.hyperliquid.xyz"),
			OrderTimeout:  getEnvAsDuration("ORDER_TIMEOUT", 10*time.Second),
			SlippagePct:   getEnvAsFloat("SLIPPAGE_PCT", 5.0),
		},
		Notify: NotifyConfig{
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			Timeout:           getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация обязательных параметров
	if err := cfg.validateRequired(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRequired проверяет обязательные параметры.
// Без любого из них процесс не должен принимать трафик.
func (c *Config) validateRequired() error {
	missing := make([]string, 0, 4)

	if c.Relay.WebhookSecret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if c.Exchange.PrivateKey == "" {
		missing = append(missing, "EXCHANGE_PRIVATE_KEY")
	}
	if c.Exchange.WalletAddress == "" {
		missing = append(missing, "WALLET_ADDRESS")
	}
	if c.Notify.DiscordWebhookURL == "" {
		missing = append(missing, "DISCORD_WEBHOOK_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Relay.Leverage < 1 || c.Relay.Leverage > 100 {
		return fmt.Errorf("LEVERAGE must be between 1 and 100, got %d", c.Relay.Leverage)
	}

	if c.Relay.MinBalance < 0 {
		return fmt.Errorf("MIN_BALANCE cannot be negative, got %v", c.Relay.MinBalance)
	}

	if c.Exchange.SlippagePct <= 0 || c.Exchange.SlippagePct > 50 {
		return fmt.Errorf("SLIPPAGE_PCT must be in (0, 50], got %v", c.Exchange.SlippagePct)
	}

	if c.Exchange.OrderTimeout <= 0 {
		return fmt.Errorf("ORDER_TIMEOUT must be positive, got %v", c.Exchange.OrderTimeout)
	}

	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %v", c.Notify.Timeout)
	}

	return nil
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
