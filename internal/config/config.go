package config

import (
	"os"
	"strings"
)

type Config struct {
	ShopAddr       string
	AdminAddr      string
	RedisAddr      string
	JWTSecret      string
	AdminEmails    []string
	WhatsAppNumber string
	KafkaBrokers   []string
	ServiceName    string
	Production     bool
}

func Load() Config {
	return Config{
		ShopAddr:       getenv("SHOP_ADDR", ":8080"),
		AdminAddr:      getenv("ADMIN_ADDR", ":8081"),
		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-please-change"),
		AdminEmails:    splitCSV(getenv("ADMIN_EMAILS", "")),
		WhatsAppNumber: getenv("WHATSAPP_NUMBER", "56936380348"),
		KafkaBrokers:   splitCSV(getenv("KAFKA_BROKERS", "")),
		ServiceName:    getenv("SERVICE_NAME", "heladoswilson"),
		Production:     getenv("APP_ENV", "development") == "production",
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
