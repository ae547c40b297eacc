package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	Channel     string `mapstructure:"CHANNEL"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`

	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`

	WhatsAppToken         string `mapstructure:"WHATSAPP_TOKEN"`
	WhatsAppPhoneNumberID string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppVerifyToken   string `mapstructure:"WHATSAPP_VERIFY_TOKEN"`
	WhatsAppAppSecret     string `mapstructure:"WHATSAPP_APP_SECRET"`
	WhatsAppAPIURL        string `mapstructure:"WHATSAPP_API_URL"`

	// Пустой DSN: записи хранятся в памяти
	DBDSN string `mapstructure:"DB_DSN"`

	// Пустой адрес: состояния диалогов хранятся в памяти
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	TypingDelay           time.Duration
	MaxConcurrentHandlers int
	StateTTL              time.Duration

	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	Business *Business
}

// Load читает .env (если есть), переменные окружения и файл бизнеса
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:           getEnv("ENV", "development"),
		Channel:               strings.ToLower(getEnv("CHANNEL", ChannelWhatsApp)),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		WhatsAppToken:         os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppVerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		WhatsAppAppSecret:     os.Getenv("WHATSAPP_APP_SECRET"),
		WhatsAppAPIURL:        os.Getenv("WHATSAPP_API_URL"),
		DBDSN:                 os.Getenv("DB_DSN"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		TypingDelay:           time.Duration(getEnvAsInt("TYPING_DELAY_MS", 1500)) * time.Millisecond,
		MaxConcurrentHandlers: getEnvAsInt("MAX_CONCURRENT_HANDLERS", 32),
		StateTTL:              time.Duration(getEnvAsInt("STATE_TTL_MINUTES", 60)) * time.Minute,
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           os.Getenv("GEMINI_MODEL"),
	}

	business, err := LoadBusiness(getEnv("BUSINESS_CONFIG", "business.toml"))
	if err != nil {
		return nil, err
	}
	applyBusinessEnv(business)
	if err := business.Validate(); err != nil {
		return nil, err
	}
	cfg.Business = business

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Channel {
	case ChannelWhatsApp:
		if c.WhatsAppToken == "" || c.WhatsAppPhoneNumberID == "" {
			return fmt.Errorf("WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID are required for channel %q", c.Channel)
		}
		if c.WhatsAppVerifyToken == "" {
			return fmt.Errorf("WHATSAPP_VERIFY_TOKEN is required for channel %q", c.Channel)
		}
	case ChannelTelegram:
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required for channel %q", c.Channel)
		}
	default:
		return fmt.Errorf("unknown CHANNEL %q", c.Channel)
	}
	if c.TypingDelay < 0 {
		return fmt.Errorf("TYPING_DELAY_MS must not be negative")
	}
	if c.MaxConcurrentHandlers <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_HANDLERS must be positive")
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("STATE_TTL_MINUTES must be positive")
	}
	return nil
}

// applyBusinessEnv: переменные окружения важнее файла
func applyBusinessEnv(b *Business) {
	if v := os.Getenv("PROVIDER_NAME"); v != "" {
		b.ProviderName = v
	}
	if v := os.Getenv("PIX_KEY"); v != "" {
		b.PixKey = v
	}
	if v := os.Getenv("SERVICES"); v != "" {
		b.Services = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				b.Services = append(b.Services, ServiceConfig{Name: name})
			}
		}
	}
	b.DefaultDurationMinutes = getEnvAsInt("DEFAULT_DURATION_MINUTES", b.DefaultDurationMinutes)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return value
	}
	return defaultValue
}
