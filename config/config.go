package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort      string
	PublicURL       string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	DatabaseDriver string
	DatabaseURL    string
	DatabaseDebug  bool

	JWTSecret           string
	JWTExpiration       time.Duration
	InviteExpiration    time.Duration
	LoginLinkExpiration time.Duration

	ScanLockWindow   time.Duration
	RecentScanLimit  int
	DeletedRetention time.Duration
	PurgeInterval    time.Duration
	DraftTTL         time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Storage StorageConfig
	Mail    MailConfig
	Log     LogConfig
}

type StorageConfig struct {
	Backend   string
	LocalDir  string
	Bucket    string
	PublicURL string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
}

type MailConfig struct {
	ResendAPIKey string
	From         string
	BaseURL      string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env if present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return &Config{
		ServerPort:      v.GetString("SERVER_PORT"),
		PublicURL:       strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		ReadTimeout:     v.GetDuration("READ_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DatabaseDebug:  v.GetBool("DATABASE_DEBUG"),

		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTExpiration:       v.GetDuration("JWT_EXPIRATION"),
		InviteExpiration:    v.GetDuration("INVITE_EXPIRATION"),
		LoginLinkExpiration: v.GetDuration("LOGIN_LINK_EXPIRATION"),

		ScanLockWindow:   v.GetDuration("SCAN_LOCK_WINDOW"),
		RecentScanLimit:  v.GetInt("RECENT_SCAN_LIMIT"),
		DeletedRetention: v.GetDuration("DELETED_RETENTION"),
		PurgeInterval:    v.GetDuration("PURGE_INTERVAL"),
		DraftTTL:         v.GetDuration("DRAFT_TTL"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		Storage: StorageConfig{
			Backend:        v.GetString("STORAGE_BACKEND"),
			LocalDir:       v.GetString("STORAGE_LOCAL_DIR"),
			Bucket:         v.GetString("STORAGE_BUCKET"),
			PublicURL:      strings.TrimRight(v.GetString("STORAGE_PUBLIC_URL"), "/"),
			MinIOEndpoint:  v.GetString("MINIO_ENDPOINT"),
			MinIOAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinIOSecretKey: v.GetString("MINIO_SECRET_KEY"),
			MinIOUseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Mail: MailConfig{
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("RESEND_FROM"),
			BaseURL:      strings.TrimRight(v.GetString("RESEND_BASE_URL"), "/"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "postgresql://postgres@localhost:5432/qrtrack")
	v.SetDefault("DATABASE_DEBUG", false)

	v.SetDefault("JWT_SECRET", "your-super-secret-key-change-in-production")
	v.SetDefault("JWT_EXPIRATION", 24*time.Hour)
	v.SetDefault("INVITE_EXPIRATION", 30*24*time.Hour)
	v.SetDefault("LOGIN_LINK_EXPIRATION", 15*time.Minute)

	v.SetDefault("SCAN_LOCK_WINDOW", 10*time.Second)
	v.SetDefault("RECENT_SCAN_LIMIT", 10)
	v.SetDefault("DELETED_RETENTION", 8*24*time.Hour)
	v.SetDefault("PURGE_INTERVAL", time.Hour)
	v.SetDefault("DRAFT_TTL", 7*24*time.Hour)

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_BUCKET", "report_photos")

	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}
