package serviceimpl

import (
	"context"
	"time"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/scheduler"
)

// StaleRunDetectorConfig การตั้งค่าสำหรับ stale run detector
type StaleRunDetectorConfig struct {
	CheckInterval string // gocron expression (default: "@every 30s")
	AutoResume    bool   // true = trigger ใหม่ (resume rule) แทนการ mark failed
	BatchSize     int    // default: 50
}

// StaleRunDetectorService หา run ที่ process ตายระหว่างทำงาน (lease หมดอายุแต่ยังไม่ถูก release)
type StaleRunDetectorService struct {
	config    StaleRunDetectorConfig
	runRepo   repositories.RunRepository
	pipeline  services.PipelineService
	scheduler scheduler.EventScheduler
	now       func() time.Time
}

func NewStaleRunDetectorService(
	config StaleRunDetectorConfig,
	runRepo repositories.RunRepository,
	pipeline services.PipelineService,
	eventScheduler scheduler.EventScheduler,
) *StaleRunDetectorService {
	service := &StaleRunDetectorService{
		config:    config,
		runRepo:   runRepo,
		pipeline:  pipeline,
		scheduler: eventScheduler,
		now:       time.Now,
	}

	if service.config.CheckInterval == "" {
		service.config.CheckInterval = "@every 30s"
	}
	if service.config.BatchSize <= 0 {
		service.config.BatchSize = 50
	}
	return service
}

// RegisterDetectorJob ลงทะเบียน detector job กับ scheduler
func (s *StaleRunDetectorService) RegisterDetectorJob() error {
	return s.scheduler.AddJob("stale_run_detector", s.config.CheckInterval, func() {
		s.RunDetection(context.Background())
	})
}

// RunDetection คืนจำนวน run ที่จัดการ
func (s *StaleRunDetectorService) RunDetection(ctx context.Context) int {
	stale, err := s.runRepo.GetStale(ctx, s.now(), s.config.BatchSize)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to get stale runs", "error", err)
		return 0
	}

	handled := 0
	for _, run := range stale {
		if run.LeaseToken == nil {
			continue
		}

		layer := run.CurrentLayer
		if !layer.Valid() {
			layer = models.LayerForStatus(run.Status)
		}

		logger.WarnContext(ctx, "Detected stale run",
			"run_id", run.ID,
			"status", run.Status,
			"layer", layer,
			"lease_expires_at", run.LeaseExpiresAt,
		)

		msg := "interrupted: executor stopped renewing its lease during " + layer.StageName()
		ok, err := s.runRepo.MarkInterrupted(ctx, run.ID, *run.LeaseToken, layer, msg)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to mark stale run", "run_id", run.ID, "error", err)
			continue
		}
		if !ok {
			// มี executor ใหม่ claim ไปก่อนแล้ว
			continue
		}
		handled++

		if s.config.AutoResume {
			result, err := s.pipeline.Trigger(ctx, run.ThoughtID, false)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to auto-resume stale run", "run_id", run.ID, "error", err)
				continue
			}
			logger.InfoContext(ctx, "Auto-resumed stale run",
				"run_id", run.ID,
				"started", result.Started,
				"start_layer", result.StartLayer,
			)
		}
	}

	if handled > 0 {
		logger.InfoContext(ctx, "Stale run detection completed", "handled", handled, "auto_resume", s.config.AutoResume)
	}
	return handled
}
