package connection

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBDriver        string
	DBDSN           string
	FirebaseProject string
	Credentials     string
	AllowedOrigins  []string
	ReminderCron    string
	CleanupCron     string
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}
	cfg := Config{
		Port:            getenv("PORT", "8080"),
		DBDriver:        getenv("DB_DRIVER", "mysql"),
		DBDSN:           os.Getenv("DB_DSN"),
		FirebaseProject: os.Getenv("FIREBASE_PROJECT_ID"),
		Credentials:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ReminderCron:    getenv("REMINDER_CRON", "0 */15 * * * *"),
		CleanupCron:     getenv("CLEANUP_CRON", "0 0 3 * * *"),
	}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}
	if os.Getenv("JWT_SECRET_KEY") == "" {
		log.Println("Warning: JWT_SECRET_KEY is not set")
	}
	return cfg
}
