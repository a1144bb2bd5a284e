package config

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// dotEnvFiles are loaded in order; earlier files win and real environment
// variables win over both.
var dotEnvFiles = []string{".env.local", ".env"}

func loadDotEnv() {
	for _, name := range dotEnvFiles {
		_ = godotenv.Load(name)
	}
}

func applyEnvOverrides(cfg *AppConfig, getenv func(string) string) {
	get := func(keys ...string) string {
		for _, key := range keys {
			if v := strings.TrimSpace(getenv(key)); v != "" {
				return v
			}
		}
		return ""
	}

	if v := get("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := get("APP_ENV", "NODE_ENV"); v != "" {
		cfg.Env = v
	}
	if v := get("APP_URL", "NEXT_PUBLIC_APP_URL", "NEXTAUTH_URL"); v != "" {
		cfg.AppURL = v
	}
	if v := get("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := get("MONGODB_URI"); v != "" {
		cfg.Database.MongoURI = v
	}
	if v := get("MONGODB_DB"); v != "" {
		cfg.Database.MongoDB = v
	}
	if v := get("MYSQL_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := get("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		cfg.Redis.Enable = true
	}
	if v := get("JWT_SECRET", "NEXTAUTH_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := get("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := get("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := get("GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		cfg.AI.GeminiAPIKey = v
	}
	if v := get("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIAPIKey = v
	}
	if v := get("ANTHROPIC_API_KEY"); v != "" {
		cfg.AI.AnthropicAPIKey = v
	}
	if v := get("AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := get("TOKEN_ENCRYPTION_KEY"); v != "" {
		cfg.TokenEncryptionKey = v
	}
	if v := get("ADMIN_EMAILS"); v != "" {
		cfg.AdminEmails = strings.Split(v, ",")
	}
	if v := get("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := get("TZ"); v != "" {
		cfg.Timezone = v
	}
}
