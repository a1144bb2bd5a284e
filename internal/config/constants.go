package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// EnvHome anchors relative log and upload directories.
	EnvHome           = "SW_HOME"
	defaultPort       = 3000
	defaultEnv        = "development"
	defaultTimezone   = "Asia/Seoul"

	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"

	StorageLocal  = "local"
	StorageGridFS = "gridfs"
	StorageS3     = "s3"

	ProviderGemini           = "gemini"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
	ProviderAnthropic        = "anthropic"

	defaultMongoURI    = "mongodb://localhost:27017"
	defaultMongoDB     = "smart-work-assistant"
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultDBUser      = "root"
	defaultDBName      = "smart_work"
	defaultDBCharset   = "utf8mb4"
	defaultDBLoc       = "Local"
	defaultRedisHost   = "localhost"
	defaultRedisPort   = 6379
	defaultRedisDB     = 0
	defaultGeminiModel = "gemini-2.5-flash"
	defaultSessionDays = 30
	defaultRateLimit   = 50
)
