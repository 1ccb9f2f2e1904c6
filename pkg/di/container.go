package di

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/siddiqueakber/ai-creative-director-sub001/application/serviceimpl"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/ai"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/assembler"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/messaging"
	natspkg "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/nats"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/postgres"
	redispkg "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/redis"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/runway"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/storage"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/telegram"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/tts"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/websocket"
	"github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/handlers"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/progress"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/promptstyle"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/scheduler"
)

type Container struct {
	Config *config.Config
	DB     *gorm.DB

	// Infrastructure (optional ตัวไหนเป็น nil = ปิด feature นั้น)
	RedisClient     *redispkg.Client
	NATSClient      *natspkg.Client
	NATSPublisher   *natspkg.Publisher
	NATSSubscriber  *natspkg.Subscriber
	ProgressTracker *progress.Tracker // แทน NATS เมื่อ NATS ไม่พร้อม
	EventScheduler  scheduler.EventScheduler

	// Repositories
	ThoughtRepository   repositories.ThoughtRepository
	RunRepository       repositories.RunRepository
	SceneRepository     repositories.SceneRepository
	NarrationRepository repositories.NarrationRepository
	StepRepository      repositories.PipelineStepRepository

	// Ports
	Storage            ports.StoragePort
	StageAI            *ai.GeminiClient
	TTS                ports.TTSPort
	Video              ports.VideoGenerationPort
	Assembler          ports.AssemblerPort
	ProgressPublisher  ports.ProgressPublisherPort
	ProgressSubscriber ports.ProgressSubscriberPort
	RunEventPublisher  ports.RunEventPublisherPort
	Notifier           ports.NotifierPort

	// Services
	PipelineService  *serviceimpl.PipelineServiceImpl
	ThoughtService   services.ThoughtService
	StaleRunDetector *serviceimpl.StaleRunDetectorService
	WorkspaceCleanup *serviceimpl.WorkspaceCleanupService

	// Realtime
	WebSocketManager    *websocket.Manager
	ProgressBroadcaster *websocket.ProgressBroadcaster
	AlertConsumer       *natspkg.AlertConsumer
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	c.initRepositories()

	if err := c.initProviders(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	if err := c.initProgressBroadcaster(); err != nil {
		return err
	}

	c.initNotifications()

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Info("Configuration loaded")
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
		Debug:    c.Config.IsDevelopment() && c.Config.Log.Level == "debug",
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")

	// Redis (optional - graceful degradation)
	if c.Config.Redis.Enabled && c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis client initialization failed (status cache and trigger debounce disabled)", "error", err)
		} else {
			c.RedisClient = redisClient
		}
	}

	// NATS + JetStream (optional)
	natsClient, err := natspkg.NewClient(natspkg.ClientConfig{URL: c.Config.NATS.URL, Name: c.Config.App.Name})
	if err != nil {
		logger.Warn("NATS client initialization failed (in-process progress, run events disabled)", "error", err)
		c.initLocalProgress()
	} else {
		c.NATSClient = natsClient
		c.NATSPublisher = natspkg.NewPublisher(natsClient)
		logger.Info("NATS client initialized", "url", c.Config.NATS.URL)
		c.initMessagingPorts()
	}

	return c.initStorage()
}

// initStorage สร้าง storage adapter ตาม config
func (c *Container) initStorage() error {
	sc := c.Config.Storage

	switch sc.Type {
	case "s3":
		s3Storage, err := storage.NewS3Storage(storage.S3StorageConfig{
			Endpoint:  sc.S3.Endpoint,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			Bucket:    sc.S3.Bucket,
			UseSSL:    sc.S3.UseSSL,
			Region:    sc.S3.Region,
			PublicURL: sc.S3.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		c.Storage = s3Storage
		logger.Info("S3 Storage initialized", "endpoint", sc.S3.Endpoint, "bucket", sc.S3.Bucket)

	case "r2":
		r2Storage, err := storage.NewR2Storage(storage.R2StorageConfig{
			AccountID:       sc.R2.AccountID,
			AccessKeyID:     sc.R2.AccessKeyID,
			SecretAccessKey: sc.R2.SecretAccessKey,
			Bucket:          sc.R2.BucketName,
			PublicURL:       sc.R2.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize R2 storage: %w", err)
		}
		c.Storage = r2Storage
		logger.Info("R2 Storage initialized", "bucket", sc.R2.BucketName)

	default:
		localStorage, err := storage.NewLocalStorage(storage.LocalStorageConfig{
			BasePath: sc.BasePath,
			BaseURL:  sc.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		c.Storage = localStorage
		logger.Info("Local Storage initialized", "path", sc.BasePath)
	}

	return nil
}

// initMessagingPorts สร้าง messaging adapters บน NATS
func (c *Container) initMessagingPorts() {
	c.ProgressPublisher = messaging.NewNATSProgressPublisher(c.NATSClient.Conn())

	c.NATSSubscriber = natspkg.NewSubscriber(c.NATSClient.Conn())
	c.ProgressSubscriber = messaging.NewNATSProgressSubscriber(c.NATSSubscriber)

	c.RunEventPublisher = messaging.NewNATSRunEventPublisher(c.NATSPublisher)

	logger.Info("Messaging ports initialized (NATS)")
}

// initLocalProgress progress bus ใน process เดียว (ไม่มี NATS)
func (c *Container) initLocalProgress() {
	c.ProgressTracker = progress.NewTracker()
	c.ProgressPublisher = c.ProgressTracker
	c.ProgressSubscriber = c.ProgressTracker.Subscriber()
}

func (c *Container) initRepositories() {
	c.ThoughtRepository = postgres.NewThoughtRepository(c.DB)
	c.RunRepository = postgres.NewRunRepository(c.DB)
	c.SceneRepository = postgres.NewSceneRepository(c.DB)
	c.NarrationRepository = postgres.NewNarrationRepository(c.DB)
	c.StepRepository = postgres.NewPipelineStepRepository(c.DB)
	logger.Info("Repositories initialized")
}

// initProviders external AI providers + assembler
func (c *Container) initProviders() error {
	geminiClient, err := ai.NewGeminiClient(c.Config.Gemini)
	if err != nil {
		return err
	}
	c.StageAI = geminiClient
	logger.Info("Gemini client initialized", "model", c.Config.Gemini.Model)

	if c.Config.Runway.APIKey == "" {
		logger.Warn("RUNWAY_API_KEY not configured (scene submissions will fail)")
	}
	c.Video = runway.NewClient(c.Config.Runway)
	logger.Info("Runway client initialized", "model", c.Config.Runway.Model)

	// narration เป็น optional ไม่มี key = video เงียบ
	if c.Config.ElevenLabs.APIKey != "" {
		c.TTS = tts.NewElevenLabsClient(c.Config.ElevenLabs)
		logger.Info("ElevenLabs client initialized", "voice", c.Config.ElevenLabs.VoiceID)
	} else {
		logger.Warn("ElevenLabs disabled (ELEVENLABS_API_KEY not configured)")
	}

	ffmpegAssembler, err := assembler.NewFFmpegAssembler(assembler.Config{
		FFmpegPath:  c.Config.FFmpeg.FFmpegPath,
		FFprobePath: c.Config.FFmpeg.FFprobePath,
		TempPath:    c.Config.Storage.TempPath,
		MinFreeGB:   c.Config.FFmpeg.MinFreeGB,
	}, c.Storage)
	if err != nil {
		return err
	}
	c.Assembler = ffmpegAssembler
	logger.Info("FFmpeg assembler initialized", "temp", c.Config.Storage.TempPath)

	return nil
}

func (c *Container) initServices() error {
	style := promptstyle.Default()
	if path := c.Config.Pipeline.PromptStyleFile; path != "" {
		loaded, err := promptstyle.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load prompt style: %w", err)
		}
		style = loaded
		logger.Info("Prompt style loaded", "file", path)
	}

	deps := serviceimpl.PipelineDeps{
		Thoughts:  c.ThoughtRepository,
		Runs:      c.RunRepository,
		Scenes:    c.SceneRepository,
		Narration: c.NarrationRepository,
		Steps:     c.StepRepository,
		AI:        c.StageAI,
		Video:     c.Video,
		TTS:       c.TTS,
		Assembler: c.Assembler,
		Storage:   c.Storage,
		Progress:  c.ProgressPublisher,
		Events:    c.RunEventPublisher,
		Composer: serviceimpl.NewScenePromptComposer(
			c.Config.Runway.PromptLimit,
			c.Config.Runway.DescriptionKeep,
			style,
		),
	}
	// interface ที่เป็น nil pointer ไม่ใช่ nil ต้องใส่เฉพาะตอนมี client
	if c.RedisClient != nil {
		deps.Cache = c.RedisClient
		deps.Guard = c.RedisClient
	}

	c.PipelineService = serviceimpl.NewPipelineService(
		serviceimpl.NewPipelineConfig(c.Config.Pipeline, c.Config.Runway),
		deps,
	)
	c.ThoughtService = serviceimpl.NewThoughtService(c.ThoughtRepository)

	logger.Info("Services initialized")
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()

	if c.Config.StaleRun.Enabled {
		c.StaleRunDetector = serviceimpl.NewStaleRunDetectorService(
			serviceimpl.StaleRunDetectorConfig{
				CheckInterval: c.Config.StaleRun.CheckInterval,
				AutoResume:    c.Config.StaleRun.AutoResume,
			},
			c.RunRepository,
			c.PipelineService,
			c.EventScheduler,
		)
		if err := c.StaleRunDetector.RegisterDetectorJob(); err != nil {
			return fmt.Errorf("failed to register stale run detector: %w", err)
		}
		logger.Info("Stale run detector registered",
			"interval", c.Config.StaleRun.CheckInterval,
			"auto_resume", c.Config.StaleRun.AutoResume,
		)
	}

	c.WorkspaceCleanup = serviceimpl.NewWorkspaceCleanupService(
		c.Config.Storage.TempPath,
		c.Config.StaleRun.WorkspaceTTL,
		c.EventScheduler,
	)
	if err := c.WorkspaceCleanup.RegisterCleanupJob(); err != nil {
		return fmt.Errorf("failed to register workspace cleanup: %w", err)
	}

	c.EventScheduler.Start()
	logger.Info("Event scheduler started", "jobs", len(c.EventScheduler.ListJobs()))
	return nil
}

// initProgressBroadcaster NATS progress → WebSocket rooms
func (c *Container) initProgressBroadcaster() error {
	c.WebSocketManager = websocket.NewManager()

	if c.ProgressSubscriber == nil {
		logger.Warn("Progress broadcaster disabled (no progress subscriber)")
		return nil
	}

	c.ProgressBroadcaster = websocket.NewProgressBroadcaster(c.ProgressSubscriber, c.WebSocketManager)
	if err := c.ProgressBroadcaster.Start(); err != nil {
		logger.Warn("Failed to start progress broadcaster", "error", err)
		c.ProgressBroadcaster = nil
		return nil
	}
	return nil
}

// initNotifications Telegram alerts ผ่าน durable consumer ของ RUN_EVENTS
func (c *Container) initNotifications() {
	notifier := telegram.NewTelegramNotifier(c.Config.Telegram)
	c.Notifier = notifier
	if !notifier.IsEnabled() {
		logger.Info("Telegram notifier disabled")
		return
	}

	if c.NATSClient == nil {
		logger.Warn("Run alerts disabled (NATS not available)")
		return
	}

	c.AlertConsumer = natspkg.NewAlertConsumer(c.NATSClient, c.Notifier)
	if err := c.AlertConsumer.Start(context.Background()); err != nil {
		logger.Warn("Failed to start alert consumer", "error", err)
		c.AlertConsumer = nil
		return
	}
	logger.Info("Alert consumer started (sends Telegram alerts)")
}

// Shutdown หยุด pipeline ที่กำลังทำงาน (run ที่ค้างจะถูก mark failed) ก่อน Cleanup
func (c *Container) Shutdown(ctx context.Context) error {
	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
		logger.Info("Event scheduler stopped")
	}
	if c.PipelineService == nil {
		return nil
	}
	if err := c.PipelineService.Shutdown(ctx); err != nil {
		logger.Warn("Pipelines did not finish before shutdown deadline", "error", err)
		return err
	}
	logger.Info("Pipelines stopped")
	return nil
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	if c.AlertConsumer != nil {
		c.AlertConsumer.Stop()
		logger.Info("Alert consumer stopped")
	}

	if c.ProgressBroadcaster != nil {
		c.ProgressBroadcaster.Stop()
		logger.Info("Progress broadcaster stopped")
	}

	if c.WebSocketManager != nil {
		c.WebSocketManager.Close()
	}

	if c.NATSSubscriber != nil {
		if err := c.NATSSubscriber.Stop(); err != nil {
			logger.Warn("Failed to stop NATS subscriber", "error", err)
		}
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		} else {
			logger.Info("NATS connection closed")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.StageAI != nil {
		if err := c.StageAI.Close(); err != nil {
			logger.Warn("Failed to close Gemini client", "error", err)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database connection", "error", err)
			} else {
				logger.Info("Database connection closed")
			}
		}
	}

	logger.Info("Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetHandlerServices services + dependency checks สำหรับ HTTP handlers
func (c *Container) GetHandlerServices() *handlers.Services {
	checks := []handlers.HealthCheck{
		{
			Name:     "postgres",
			Required: true,
			Ping: func(ctx context.Context) error {
				sqlDB, err := c.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
	}
	if c.RedisClient != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Ping: c.RedisClient.Ping})
	}
	if c.NATSClient != nil {
		checks = append(checks, handlers.HealthCheck{
			Name: "nats",
			Ping: c.NATSClient.Ping,
		})
	}

	var jetStream handlers.JetStreamStatusFunc
	if c.NATSPublisher != nil {
		jetStream = func(ctx context.Context) (interface{}, error) {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return c.NATSPublisher.GetJetStreamStatus(ctx)
		}
	}

	return &handlers.Services{
		PipelineService: c.PipelineService,
		ThoughtService:  c.ThoughtService,
		Health:          checks,
		JetStream:       jetStream,
	}
}

// FilesRoot คืน base path ถ้าเป็น local storage (serve /files)
func (c *Container) FilesRoot() string {
	if c.Storage != nil && c.Storage.GetProviderName() == "local" {
		return c.Config.Storage.BasePath
	}
	return ""
}
