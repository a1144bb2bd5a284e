package config

// AppConfig holds runtime startup configuration loaded from YAML and the
// environment.
type AppConfig struct {
	Port               int                   `yaml:"port"`
	Env                string                `yaml:"env"` // "development" | "production"
	AppURL             string                `yaml:"app_url"`
	Database           DatabaseRuntimeConfig `yaml:"database"`
	Redis              RedisRuntimeConfig    `yaml:"redis"`
	RedisURL           string                `yaml:"redis_url"`
	Paths              RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins     []string              `yaml:"allowed_origins"`
	JWTSecret          string                `yaml:"jwt_secret"`
	SessionDays        int                   `yaml:"session_days"`
	Timezone           string                `yaml:"timezone"`
	TokenEncryptionKey string                `yaml:"token_encryption_key"`
	AdminEmails        []string              `yaml:"admin_emails"`
	RateLimitPerSecond int                   `yaml:"rate_limit_per_second"`
	Google             GoogleConfig          `yaml:"google"`
	AI                 AIConfig              `yaml:"ai"`
	Storage            StorageConfig         `yaml:"storage"`
}

type DatabaseRuntimeConfig struct {
	Driver    string            `yaml:"driver"`
	MongoURI  string            `yaml:"mongo_uri"`
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
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Enable   bool              `yaml:"enable"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs    string `yaml:"logs"`
	Uploads string `yaml:"uploads"`
}

// GoogleConfig is the OAuth client used for sign-in, Calendar and Drive.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// AIConfig selects the text generation backend.
type AIConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
}

type StorageConfig struct {
	Driver   string   `yaml:"driver"`
	LocalDir string   `yaml:"local_dir"`
	S3       S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) UploadDir() string {
	if c.Storage.LocalDir != "" {
		return ResolveRuntimePath(c.Storage.LocalDir, "uploads")
	}
	return ResolveRuntimePath(c.Paths.Uploads, "uploads")
}

// IsAdmin reports whether email is listed in admin_emails.
func (c *AppConfig) IsAdmin(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// Enabled reports whether an OAuth client is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}
