// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"DATABASE_URL"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	ClientURL               string `yaml:"client_url" env:"CLIENT_URL" env-default:"http://localhost:5173"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwt"`
	RateLimit               `yaml:"rate_limit"`
	Stripe                  Stripe    `yaml:"stripe"`
	Razorpay                Razorpay  `yaml:"razorpay"`
	GCS                     GCS       `yaml:"gcs"`
	SMTP                    SMTP      `yaml:"smtp"`
	Scheduler               Scheduler `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" env-default:"10240"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env-default:"104857600"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeout"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
	CookieName   string        `yaml:"cookie_name" env-default:"token"`
}

// RateLimit ограничение числа запросов с одного адреса за окно.
type RateLimit struct {
	Window time.Duration `yaml:"window" env-default:"15m"`
	Max    int           `yaml:"max" env-default:"100"`
}

// Stripe настройки платёжного шлюза Stripe.
type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env-default:"inr"`
}

// Razorpay настройки платёжного шлюза Razorpay.
type Razorpay struct {
	KeyID     string `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
	KeySecret string `yaml:"key_secret" env:"RAZORPAY_KEY_SECRET"`
	Currency  string `yaml:"currency" env-default:"INR"`
}

// GCS настройки хранилища медиафайлов.
type GCS struct {
	Bucket          string `yaml:"bucket" env:"GCS_BUCKET"`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	SMTPHost      string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort      string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser      string `yaml:"user" env:"SMTP_USER"`
	SMTPPass      string `yaml:"pass" env:"SMTP_PASS"`
	From          string `yaml:"from" env:"SMTP_FROM"`
	AllowInsecure bool   `yaml:"allow_insecure" env:"SMTP_ALLOW_INSECURE"`
}

// Scheduler настройки фоновой очистки ожидающих покупок.
type Scheduler struct {
	Interval   time.Duration `yaml:"interval" env-default:"1h"`
	PendingTTL time.Duration `yaml:"pending_ttl" env-default:"48h"`
}

// IsDev сообщает, запущено ли приложение в режиме разработки.
func (c *Config) IsDev() bool {
	return c.Env == "local" || c.Env == "dev"
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
