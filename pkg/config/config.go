package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	NATS       NATSConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	Storage    StorageConfig
	FFmpeg     FFmpegConfig
	Gemini     GeminiConfig
	ElevenLabs ElevenLabsConfig
	Runway     RunwayConfig
	Pipeline   PipelineConfig
	Telegram   TelegramConfig
	StaleRun   StaleRunConfig
}

// RedisConfig สำหรับ status cache และ trigger debounce
type RedisConfig struct {
	URL      string // redis://localhost:6379
	Password string
	DB       int
	Enabled  bool
}

type AppConfig struct {
	Name        string
	Port        string
	Env         string
	CORSOrigins string // comma separated
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NATSConfig configuration สำหรับ NATS JetStream
type NATSConfig struct {
	URL string // nats://localhost:4222
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string // logs/app.log
	MaxSize    int    // MB
	MaxBackups int    // จำนวน backup files
	MaxAge     int    // วัน
	Compress   bool   // บีบอัด backup
}

type StorageConfig struct {
	Type     string // local, s3, r2
	BasePath string // สำหรับ local: ./uploads
	BaseURL  string // URL สำหรับเข้าถึงไฟล์ (เช่น http://localhost:8080/files)
	TempPath string // workspace ของ assembler

	// S3-Compatible Storage (MinIO)
	S3 S3Config

	// Cloudflare R2 ผ่าน aws-sdk-go-v2
	R2 R2Config
}

type S3Config struct {
	Endpoint  string // minio:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string // URL สำหรับเข้าถึงไฟล์ public (optional)
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type FFmpegConfig struct {
	FFmpegPath  string
	FFprobePath string
	MinFreeGB   float64 // พื้นที่ว่างขั้นต่ำก่อน assemble
}

// GeminiConfig สำหรับ stage executors (understanding, perspective, blueprint, narration script)
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	TopP        float32
	TopK        int32
	MaxRetries  int
}

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
}

// RunwayConfig สำหรับ External Task Client
type RunwayConfig struct {
	APIKey          string
	BaseURL         string
	APIVersion      string
	Model           string
	AspectRatio     string
	DurationSeconds int
	Audio           bool
	PromptLimit     int // ความยาว prompt สูงสุดที่ provider รับได้
	DescriptionKeep int // จำนวนตัวอักษรของ scene description ที่เก็บไว้ก่อนต่อ template
}

// PipelineConfig policy constants ของ orchestrator และ scene scheduler
type PipelineConfig struct {
	MinReadyFraction    float64
	MaxConcurrentScenes int
	SubmitAttempts      int
	PollAttempts        int
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	PollInterval        time.Duration
	MaxPollDuration     time.Duration
	StageTimeout        time.Duration
	AssemblyAttempts    int
	LeaseTTL            time.Duration
	LeaseHeartbeat      time.Duration
	MaxScenes           int
	PromptStyleFile     string
	StatusCacheTTL      time.Duration
	TriggerDebounce     time.Duration
}

type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatID   string
}

// StaleRunConfig สำหรับ stale run detector
type StaleRunConfig struct {
	Enabled       bool
	CheckInterval string // gocron expression เช่น "@every 30s"
	AutoResume    bool   // true = trigger ใหม่แทนการ mark failed
	WorkspaceTTL  time.Duration
}

func LoadConfig() (*Config, error) {
	// ไม่ error ถ้าไม่มี .env file (ใช้ environment variables แทน)
	_ = godotenv.Load()

	logMaxSize, _ := strconv.Atoi(getEnv("LOG_MAX_SIZE", "100"))
	logMaxBackups, _ := strconv.Atoi(getEnv("LOG_MAX_BACKUPS", "5"))
	logMaxAge, _ := strconv.Atoi(getEnv("LOG_MAX_AGE", "30"))
	logCompress := getEnv("LOG_COMPRESS", "true") == "true"

	s3UseSSL := getEnv("S3_USE_SSL", "false") == "true"
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "AI Creative Director"),
			Port:        getEnv("APP_PORT", "8080"),
			Env:         getEnv("APP_ENV", "development"),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "creative_director"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Enabled:  getEnv("REDIS_ENABLED", "true") == "true",
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "both"),
			FilePath:   getEnv("LOG_FILE", "logs/app.log"),
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
			Compress:   logCompress,
		},
		Storage: StorageConfig{
			Type:     getEnv("STORAGE_TYPE", "local"),
			BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
			BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
			TempPath: getEnv("STORAGE_TEMP_PATH", "./temp"),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
				SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
				Bucket:    getEnv("S3_BUCKET", "runs"),
				UseSSL:    s3UseSSL,
				Region:    getEnv("S3_REGION", "auto"),
				PublicURL: getEnv("S3_PUBLIC_URL", ""),
			},
			R2: R2Config{
				AccountID:       getEnv("R2_ACCOUNT_ID", ""),
				AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnv("R2_BUCKET_NAME", ""),
				PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			},
		},
		FFmpeg: FFmpegConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
			MinFreeGB:   getEnvFloat("FFMPEG_MIN_FREE_GB", 2),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature: float32(getEnvFloat("GEMINI_TEMPERATURE", 0.7)),
			TopP:        float32(getEnvFloat("GEMINI_TOP_P", 0.95)),
			TopK:        int32(getEnvInt("GEMINI_TOP_K", 40)),
			MaxRetries:  getEnvInt("GEMINI_MAX_RETRIES", 3),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			BaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
			ModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		},
		Runway: RunwayConfig{
			APIKey:          getEnv("RUNWAY_API_KEY", ""),
			BaseURL:         getEnv("RUNWAY_BASE_URL", "https://api.dev.runwayml.com"),
			APIVersion:      getEnv("RUNWAY_API_VERSION", "2024-11-06"),
			Model:           getEnv("RUNWAY_MODEL", "veo3.1_fast"),
			AspectRatio:     getEnv("RUNWAY_RATIO", "1280:720"),
			DurationSeconds: getEnvInt("RUNWAY_DURATION", 8),
			Audio:           getEnv("RUNWAY_AUDIO", "false") == "true",
			PromptLimit:     getEnvInt("RUNWAY_PROMPT_LIMIT", 1000),
			DescriptionKeep: getEnvInt("RUNWAY_DESCRIPTION_KEEP", 600),
		},
		Pipeline: PipelineConfig{
			MinReadyFraction:    getEnvFloat("PIPELINE_MIN_READY_FRACTION", 0.6),
			MaxConcurrentScenes: getEnvInt("PIPELINE_MAX_CONCURRENT_SCENES", 3),
			SubmitAttempts:      getEnvInt("PIPELINE_SUBMIT_ATTEMPTS", 3),
			PollAttempts:        getEnvInt("PIPELINE_POLL_ATTEMPTS", 5),
			RetryBaseDelay:      getEnvDuration("PIPELINE_RETRY_BASE_DELAY", 2*time.Second),
			RetryMaxDelay:       getEnvDuration("PIPELINE_RETRY_MAX_DELAY", 30*time.Second),
			PollInterval:        getEnvDuration("PIPELINE_POLL_INTERVAL", 10*time.Second),
			MaxPollDuration:     getEnvDuration("PIPELINE_MAX_POLL_DURATION", 10*time.Minute),
			StageTimeout:        getEnvDuration("PIPELINE_STAGE_TIMEOUT", 90*time.Second),
			AssemblyAttempts:    getEnvInt("PIPELINE_ASSEMBLY_ATTEMPTS", 2),
			LeaseTTL:            getEnvDuration("PIPELINE_LEASE_TTL", 2*time.Minute),
			LeaseHeartbeat:      getEnvDuration("PIPELINE_LEASE_HEARTBEAT", 30*time.Second),
			MaxScenes:           getEnvInt("PIPELINE_MAX_SCENES", 8),
			PromptStyleFile:     getEnv("PROMPT_STYLE_FILE", ""),
			StatusCacheTTL:      getEnvDuration("PIPELINE_STATUS_CACHE_TTL", 2*time.Second),
			TriggerDebounce:     getEnvDuration("PIPELINE_TRIGGER_DEBOUNCE", 3*time.Second),
		},
		Telegram: TelegramConfig{
			Enabled:  getEnv("TELEGRAM_ENABLED", "false") == "true",
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		StaleRun: StaleRunConfig{
			Enabled:       getEnv("STALE_RUN_ENABLED", "true") == "true",
			CheckInterval: getEnv("STALE_RUN_CHECK_INTERVAL", "@every 30s"),
			AutoResume:    getEnv("STALE_RUN_AUTO_RESUME", "false") == "true",
			WorkspaceTTL:  getEnvDuration("STALE_RUN_WORKSPACE_TTL", 24*time.Hour),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(getEnv(key, "")), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvDuration รับทั้ง "30s" และตัวเลขล้วน (วินาที)
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// IsDevelopment ตรวจสอบว่าเป็น development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction ตรวจสอบว่าเป็น production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
