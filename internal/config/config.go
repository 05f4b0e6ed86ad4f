package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Port           string
	LogDir         string
	AllowedOrigins []string
	PostgresCfg    PostgresConfig
	RabbitMQCfg    RabbitMQConfig
	RedisCfg       RedisConfig
	MinioCfg       MinioConfig
	GeminiAPICfg   GeminiAPIConfig
	JWTCfg         JWTConfig
}

type NotifierConfig struct {
	LogDir      string
	Workers     int
	MetricsPort string
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	FirebaseCfg FirebaseConfig
	EmailCfg    EmailConfig
}

type MinioConfig struct {
	MinioURL         string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioLocation    string
	MinioSecure      string
	MinioResourceURL string
	ImageBucket      string
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type GeminiAPIConfig struct {
	// APIKeys holds one or more keys; the client selector fails over between them.
	APIKeys        []string
	FlashName      string
	ProName        string
	RequestsPerMin int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

type FirebaseConfig struct {
	CredentialsFile string
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func New() *APIConfig {
	return &APIConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		LogDir:         getEnvOrDefault("LOG_DIR", "/bantayani/log"),
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		PostgresCfg:    newPostgresConfig(),
		RabbitMQCfg:    newRabbitMQConfig(),
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		MinioCfg: MinioConfig{
			MinioURL:         getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey:   getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey:   getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:    getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:      getEnvOrDefault("MINIO_SECURE", "false"),
			MinioResourceURL: getEnvOrDefault("MINIO_RESOURCE_URL", "http://localhost:9000/"),
			ImageBucket:      getEnvOrDefault("MINIO_IMAGE_BUCKET", "detection-images"),
		},
		GeminiAPICfg: GeminiAPIConfig{
			APIKeys:        splitList(getEnvOrDefault("GEMINI_KEYS", getEnvOrDefault("GEMINI_KEY", ""))),
			FlashName:      getEnvOrDefault("GEMINI_FLASH_MODEL", "gemini-2.5-flash"),
			ProName:        getEnvOrDefault("GEMINI_PRO_MODEL", "gemini-2.5-pro"),
			RequestsPerMin: getEnvIntOrDefault("GEMINI_REQUESTS_PER_MIN", 30),
		},
		JWTCfg: JWTConfig{
			Secret:     getEnvOrDefault("JWT_SECRET", "change-me"),
			Issuer:     getEnvOrDefault("JWT_ISSUER", "bantayani"),
			SessionTTL: getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		},
	}
}

func NewNotifier() *NotifierConfig {
	return &NotifierConfig{
		LogDir:      getEnvOrDefault("LOG_DIR", "/bantayani/log"),
		Workers:     getEnvIntOrDefault("NOTIFIER_WORKERS", 4),
		MetricsPort: getEnvOrDefault("NOTIFIER_METRICS_PORT", "9091"),
		PostgresCfg: newPostgresConfig(),
		RabbitMQCfg: newRabbitMQConfig(),
		FirebaseCfg: FirebaseConfig{
			CredentialsFile: getEnvOrDefault("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json"),
		},
		EmailCfg: EmailConfig{
			Host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvIntOrDefault("SMTP_PORT", 587),
			Username: getEnvOrDefault("SMTP_USERNAME", ""),
			Password: getEnvOrDefault("SMTP_PASSWORD", ""),
			From:     getEnvOrDefault("SMTP_FROM", "BantayAni <no-reply@bantayani.ph>"),
		},
	}
}

func newPostgresConfig() PostgresConfig {
	return PostgresConfig{
		DBname:   getEnvOrDefault("POSTGRES_DB", "bantayani"),
		Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
		Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
		Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
	}
}

func newRabbitMQConfig() RabbitMQConfig {
	return RabbitMQConfig{
		Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
		Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
		Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
		Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
