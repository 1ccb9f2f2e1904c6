package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// PipelineDeps dependencies ของ orchestrator
// Progress, Events, Cache, Guard, TTS เป็น optional (nil = ปิด)
type PipelineDeps struct {
	Thoughts  repositories.ThoughtRepository
	Runs      repositories.RunRepository
	Scenes    repositories.SceneRepository
	Narration repositories.NarrationRepository
	Steps     repositories.PipelineStepRepository

	AI        ports.StageAIPort
	Video     ports.VideoGenerationPort
	TTS       ports.TTSPort
	Assembler ports.AssemblerPort
	Storage   ports.StoragePort

	Progress ports.ProgressPublisherPort
	Events   ports.RunEventPublisherPort
	Cache    ports.StatusCachePort
	Guard    ports.TriggerGuardPort

	Composer *ScenePromptComposer
}

type PipelineServiceImpl struct {
	config    PipelineConfig
	deps      PipelineDeps
	scheduler *SceneScheduler

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPipelineService สร้าง orchestrator
func NewPipelineService(config PipelineConfig, deps PipelineDeps) *PipelineServiceImpl {
	config = config.withDefaults()
	if deps.Composer == nil {
		deps.Composer = NewScenePromptComposer(0, 0, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PipelineServiceImpl{
		config:    config,
		deps:      deps,
		scheduler: NewSceneScheduler(config.Scheduler, deps.Scenes, deps.Video),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

var _ services.PipelineService = (*PipelineServiceImpl)(nil)

// ═══════════════════════════════════════════════════════════════════════════════
// Trigger / RunPipeline
// ═══════════════════════════════════════════════════════════════════════════════

func (s *PipelineServiceImpl) Trigger(ctx context.Context, thoughtID uuid.UUID, regenerate bool) (*services.TriggerResult, error) {
	if _, err := s.deps.Thoughts.GetByID(ctx, thoughtID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrThoughtNotFound
		}
		return nil, fmt.Errorf("load thought: %w", err)
	}

	run, err := s.deps.Runs.GetOrCreateForThought(ctx, thoughtID)
	if err != nil {
		return nil, fmt.Errorf("upsert run: %w", err)
	}

	if run.IsReady() && !regenerate {
		return &services.TriggerResult{Run: run, Attempt: run.Attempt}, nil
	}
	if run.HasLiveLease(time.Now()) {
		return &services.TriggerResult{Run: run, Attempt: run.Attempt}, nil
	}

	if s.deps.Guard != nil && s.config.TriggerDebounce > 0 {
		ok, err := s.deps.Guard.TryAcquire(ctx, "trigger:"+run.ID.String(), s.config.TriggerDebounce)
		if err != nil {
			logger.WarnContext(ctx, "Trigger debounce unavailable", "run_id", run.ID, "error", err)
		} else if !ok {
			return &services.TriggerResult{Run: run, Attempt: run.Attempt}, nil
		}
	}

	lease, start, claimed, err := s.claim(ctx, run, regenerate)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &services.TriggerResult{Run: run, Attempt: run.Attempt}, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(s.baseCtx, lease, start)
	}()

	logger.InfoContext(ctx, "Pipeline triggered",
		"run_id", run.ID,
		"attempt", lease.Attempt,
		"start_layer", start,
		"regenerate", regenerate,
	)

	current, err := s.deps.Runs.GetByID(ctx, run.ID)
	if err != nil {
		current = run
	}
	return &services.TriggerResult{Run: current, Started: true, StartLayer: start, Attempt: lease.Attempt}, nil
}

func (s *PipelineServiceImpl) RunPipeline(ctx context.Context, runID uuid.UUID) (*services.TriggerResult, error) {
	run, err := s.deps.Runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrRunNotFound
		}
		return nil, err
	}

	lease, start, claimed, err := s.claim(ctx, run, false)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &services.TriggerResult{Run: run, Attempt: run.Attempt}, nil
	}

	s.execute(ctx, lease, start)

	final, err := s.deps.Runs.GetByID(context.WithoutCancel(ctx), runID)
	if err != nil {
		return nil, err
	}
	return &services.TriggerResult{Run: final, Started: true, StartLayer: start, Attempt: lease.Attempt}, nil
}

// claim จอง lease แล้วหา layer เริ่มต้นตาม resume rule
func (s *PipelineServiceImpl) claim(ctx context.Context, run *models.Run, regenerate bool) (*models.RunLease, models.Layer, bool, error) {
	lease, claimed, err := s.deps.Runs.ClaimLease(ctx, run.ID, s.config.LeaseTTL, regenerate)
	if err != nil {
		return nil, models.LayerNone, false, fmt.Errorf("claim run lease: %w", err)
	}
	if !claimed {
		logger.InfoContext(ctx, "Run already in flight, trigger ignored", "run_id", run.ID)
		return nil, models.LayerNone, false, nil
	}

	if regenerate {
		if err := s.deps.Runs.ResetForRegenerate(ctx, lease); err != nil {
			s.release(ctx, lease)
			return nil, models.LayerNone, false, fmt.Errorf("reset run for regenerate: %w", err)
		}
		// ไฟล์ของ attempt เก่าไม่มีใครอ้างถึงแล้ว
		if err := s.deps.Storage.DeleteFolder(fmt.Sprintf("runs/%s/", run.ID)); err != nil {
			logger.WarnContext(ctx, "Failed to delete previous run outputs", "run_id", run.ID, "error", err)
		}
	}

	scenes, err := s.deps.Scenes.ListByRun(ctx, run.ID)
	if err != nil {
		s.release(ctx, lease)
		return nil, models.LayerNone, false, fmt.Errorf("load scenes: %w", err)
	}

	// หลัง claim status ถูก reset เป็น pending แล้ว ResumeLayer ตัดสินจาก scenes
	claimedRun := *run
	claimedRun.Status = models.RunStatusPending
	s.invalidate(ctx, run.ID)
	return lease, claimedRun.ResumeLayer(scenes), true, nil
}

func (s *PipelineServiceImpl) release(ctx context.Context, lease *models.RunLease) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.deps.Runs.ReleaseLease(rctx, lease); err != nil && !errors.Is(err, repositories.ErrLeaseLost) {
		logger.WarnContext(ctx, "Failed to release run lease", "run_id", lease.RunID, "error", err)
	}
}

// Wait รอ background pipelines
func (s *PipelineServiceImpl) Wait() {
	s.wg.Wait()
}

// Shutdown cancel pipelines ที่กำลังทำงานแล้วรอให้บันทึกสถานะเสร็จ
func (s *PipelineServiceImpl) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Read side (ไม่มี side effect)
// ═══════════════════════════════════════════════════════════════════════════════

func statusCacheKey(runID uuid.UUID) string {
	return "run:status:" + runID.String()
}

func (s *PipelineServiceImpl) GetRunStatus(ctx context.Context, runID uuid.UUID) (*dto.RunStatusResponse, error) {
	if s.deps.Cache == nil {
		return s.loadStatus(ctx, runID)
	}

	var resp dto.RunStatusResponse
	err := s.deps.Cache.GetOrLoad(ctx, statusCacheKey(runID), &resp, s.config.StatusCacheTTL, func() (interface{}, error) {
		return s.loadStatus(ctx, runID)
	})
	if err != nil {
		if errors.Is(err, services.ErrRunNotFound) {
			return nil, err
		}
		logger.WarnContext(ctx, "Status cache failed, reading store directly", "run_id", runID, "error", err)
		return s.loadStatus(ctx, runID)
	}
	return &resp, nil
}

func (s *PipelineServiceImpl) loadStatus(ctx context.Context, runID uuid.UUID) (*dto.RunStatusResponse, error) {
	run, err := s.deps.Runs.GetWithDetails(ctx, runID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrRunNotFound
		}
		return nil, err
	}
	return dto.RunToStatusResponse(run, run.Scenes, run.NarrationSegments), nil
}

func (s *PipelineServiceImpl) GetRunHistory(ctx context.Context, runID uuid.UUID) (*dto.RunHistoryResponse, error) {
	status, err := s.loadStatus(ctx, runID)
	if err != nil {
		return nil, err
	}

	steps, err := s.deps.Steps.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load pipeline steps: %w", err)
	}

	resp := &dto.RunHistoryResponse{Run: status, Steps: make([]dto.PipelineStepResponse, 0, len(steps))}
	for _, step := range steps {
		resp.Steps = append(resp.Steps, dto.PipelineStepToResponse(step))
	}
	return resp, nil
}

func (s *PipelineServiceImpl) ListRuns(ctx context.Context, status models.RunStatus, offset, limit int) ([]*models.Run, int64, error) {
	return s.deps.Runs.List(ctx, status, offset, limit)
}

func (s *PipelineServiceImpl) invalidate(ctx context.Context, runID uuid.UUID) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Invalidate(context.WithoutCancel(ctx), statusCacheKey(runID)); err != nil {
		logger.DebugContext(ctx, "Failed to invalidate status cache", "run_id", runID, "error", err)
	}
}
