package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	DatabaseDSN     string
	JWTSecret       string
	CORSOrigins     string
	KafkaBrokers    string // Boş ise uyarılar yayınlanmaz (noop notifier)
	KafkaAlertTopic string
	AlertInterval   int // Periyodik uyarı taraması (saniye), 0 = kapalı
}

func Load() *Config {
	// .env varsa yükle (yoksa sessizce devam et, production'da env'den gelir)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=restopos port=5432 sslmode=disable"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		KafkaAlertTopic: getEnv("KAFKA_ALERT_TOPIC", "stock-alerts"),
		AlertInterval:   getEnvInt("ALERT_INTERVAL_SECONDS", 0),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=restopos port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.KafkaBrokers == "" {
		log.Println("[WARN] KAFKA_BROKERS tanımlı değil, stok uyarıları yayınlanmayacak.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
