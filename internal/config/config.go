package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	Env                string            `yaml:"env"`
	NodeEnv            string            `yaml:"node_env"`
	AppURL             string            `yaml:"app_url"`
	PublicAppURL       string            `yaml:"public_app_url"`
	Database           rawDatabaseConfig `yaml:"database"`
	DSN                string            `yaml:"dsn"`
	MongoURI           string            `yaml:"mongodb_uri"`
	MongoDB            string            `yaml:"mongodb_db"`
	Redis              rawRedisConfig    `yaml:"redis"`
	RedisURL           string            `yaml:"redis_url"`
	Paths              rawPathsConfig    `yaml:"paths"`
	LogDir             string            `yaml:"log_dir"`
	UploadDir          string            `yaml:"upload_dir"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	JWTSecret          string            `yaml:"jwt_secret"`
	SessionDays        int               `yaml:"session_days"`
	Timezone           string            `yaml:"timezone"`
	TZ                 string            `yaml:"tz"`
	TokenEncryptionKey string            `yaml:"token_encryption_key"`
	AdminEmails        []string          `yaml:"admin_emails"`
	RateLimitPerSecond *int              `yaml:"rate_limit_per_second"`
	Google             GoogleConfig      `yaml:"google"`
	AI                 AIConfig          `yaml:"ai"`
	Storage            rawStorageConfig  `yaml:"storage"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	MongoURI  string            `yaml:"mongo_uri"`
	URI       string            `yaml:"uri"`
	MongoDB   string            `yaml:"mongo_db"`
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable   *bool             `yaml:"enable"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawPathsConfig struct {
	Logs    string `yaml:"logs"`
	Uploads string `yaml:"uploads"`
}

type rawStorageConfig struct {
	Driver   string   `yaml:"driver"`
	LocalDir string   `yaml:"local_dir"`
	S3       S3Config `yaml:"s3"`
}

// Load reads the YAML file at configPath, then applies .env files and
// environment overrides. A missing file at the default path is allowed.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != "" && path != DefaultConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	loadDotEnv()

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		raw := rawAppConfig{}
		if err := decodeRaw(content, &raw); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		applyRawAppConfig(&cfg, raw)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg, os.Getenv)
	finalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func decodeRaw(content []byte, raw *rawAppConfig) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	return decoder.Decode(raw)
}

// Validate checks ranges and driver combinations.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.Database.Driver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("invalid database.driver %q, expected mongo, mysql or memory", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageGridFS:
		if c.Database.Driver != DriverMongo {
			return fmt.Errorf("storage.driver gridfs requires database.driver mongo")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for storage.driver s3")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q, expected local, gridfs or s3", c.Storage.Driver)
	}
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOpenAICompatible, ProviderAnthropic:
	default:
		return fmt.Errorf("invalid ai.provider %q", c.AI.Provider)
	}
	if c.AI.Provider == ProviderOpenAICompatible && c.AI.OpenAIBaseURL == "" {
		return fmt.Errorf("ai.openai_base_url is required for provider openai-compatible")
	}
	if c.SessionDays < 1 {
		return fmt.Errorf("invalid session_days %d, expected >= 1", c.SessionDays)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port:               defaultPort,
		Env:                defaultEnv,
		Timezone:           defaultTimezone,
		SessionDays:        defaultSessionDays,
		RateLimitPerSecond: defaultRateLimit,
		Database: DatabaseRuntimeConfig{
			Driver:    DriverMongo,
			MongoURI:  defaultMongoURI,
			MongoDB:   defaultMongoDB,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		AI:      AIConfig{Provider: ProviderGemini},
		Storage: StorageConfig{Driver: StorageLocal},
	}
	finalize(&cfg)
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.AppURL); v != "" {
		cfg.AppURL = v
	}
	if v := strings.TrimSpace(raw.PublicAppURL); v != "" && cfg.AppURL == "" {
		cfg.AppURL = v
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Uploads); v != "" {
		cfg.Paths.Uploads = v
	}
	if v := strings.TrimSpace(raw.UploadDir); v != "" {
		cfg.Paths.Uploads = v
	}

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = raw.AllowedOrigins
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = raw.CORSAllowedOrigins
	}

	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if raw.SessionDays != 0 {
		cfg.SessionDays = raw.SessionDays
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TZ); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TokenEncryptionKey); v != "" {
		cfg.TokenEncryptionKey = v
	}
	if raw.AdminEmails != nil {
		cfg.AdminEmails = raw.AdminEmails
	}
	if raw.RateLimitPerSecond != nil {
		cfg.RateLimitPerSecond = *raw.RateLimitPerSecond
	}

	cfg.Google = mergeGoogle(cfg.Google, raw.Google)
	cfg.AI = mergeAI(cfg.AI, raw.AI)

	if v := strings.TrimSpace(raw.Storage.Driver); v != "" {
		cfg.Storage.Driver = v
	}
	if v := strings.TrimSpace(raw.Storage.LocalDir); v != "" {
		cfg.Storage.LocalDir = v
	}
	if raw.Storage.S3 != (S3Config{}) {
		cfg.Storage.S3 = raw.Storage.S3
	}
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Database.Driver); v != "" {
		cfg.Driver = v
	}
	if v := strings.TrimSpace(raw.Database.MongoURI); v != "" {
		cfg.MongoURI = v
	}
	if v := strings.TrimSpace(raw.Database.URI); v != "" {
		cfg.MongoURI = v
	}
	if v := strings.TrimSpace(raw.MongoURI); v != "" {
		cfg.MongoURI = v
	}
	if v := strings.TrimSpace(raw.Database.MongoDB); v != "" {
		cfg.MongoDB = v
	}
	if v := strings.TrimSpace(raw.MongoDB); v != "" {
		cfg.MongoDB = v
	}
	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.URL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Username); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime != nil {
		cfg.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Database.Params != nil {
		cfg.Params = copyStringMap(raw.Database.Params)
	}
	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if raw.Redis.Enable != nil {
		cfg.Enable = *raw.Redis.Enable
	}
	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
		cfg.Enable = true
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
		cfg.Enable = true
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	if v := strings.TrimSpace(raw.Redis.Scheme); v != "" {
		cfg.Scheme = v
	}
	if raw.Redis.Params != nil {
		cfg.Params = copyStringMap(raw.Redis.Params)
	}
	return cfg
}

func mergeGoogle(cfg, raw GoogleConfig) GoogleConfig {
	if v := strings.TrimSpace(raw.ClientID); v != "" {
		cfg.ClientID = v
	}
	if v := strings.TrimSpace(raw.ClientSecret); v != "" {
		cfg.ClientSecret = v
	}
	if v := strings.TrimSpace(raw.RedirectURL); v != "" {
		cfg.RedirectURL = v
	}
	return cfg
}

func mergeAI(cfg, raw AIConfig) AIConfig {
	if v := strings.TrimSpace(raw.Provider); v != "" {
		cfg.Provider = v
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(raw.GeminiAPIKey); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := strings.TrimSpace(raw.OpenAIAPIKey); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(raw.OpenAIBaseURL); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := strings.TrimSpace(raw.AnthropicAPIKey); v != "" {
		cfg.AnthropicAPIKey = v
	}
	return cfg
}

// finalize normalizes every section after all sources were applied.
func finalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AppURL = strings.TrimRight(strings.TrimSpace(cfg.AppURL), "/")
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.RedisURL = ""
	if cfg.Redis.Enable {
		cfg.RedisURL = cfg.Redis.URLValue()
	}
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.AdminEmails = normalizeEmails(cfg.AdminEmails)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	cfg.AI = normalizeAIConfig(cfg.AI)
	cfg.Storage = normalizeStorageConfig(cfg.Storage)
	if cfg.Google.RedirectURL == "" && cfg.AppURL != "" {
		cfg.Google.RedirectURL = cfg.AppURL + "/api/auth/callback/google"
	}
}
