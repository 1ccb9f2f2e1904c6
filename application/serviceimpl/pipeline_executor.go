package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// runState context สะสมระหว่าง stages ของหนึ่ง attempt
type runState struct {
	run       *models.Run
	thought   *models.Thought
	scenes    []*models.Scene
	narration []*models.NarrationSegment
}

type stageFunc func(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error)

func (s *PipelineServiceImpl) stages() map[models.Layer]stageFunc {
	return map[models.Layer]stageFunc{
		models.LayerUnderstanding:   s.stageUnderstanding,
		models.LayerPerspective:     s.stagePerspective,
		models.LayerBlueprint:       s.stageBlueprint,
		models.LayerNarrationScript: s.stageNarrationScript,
		models.LayerNarrationAudio:  s.stageNarrationAudio,
		models.LayerGeneration:      s.stageGeneration,
		models.LayerAssembly:        s.stageAssembly,
	}
}

// execute รัน stages ตั้งแต่ start จนจบ ; ทุก error ถูกบันทึกลง run state ไม่หลุดออกไป
func (s *PipelineServiceImpl) execute(parent context.Context, lease *models.RunLease, start models.Layer) {
	ctx, cancel := context.WithCancel(logger.ContextWithRunID(parent, lease.RunID.String()))
	defer cancel()
	defer s.release(ctx, lease)

	log := logger.FromContext(ctx).With("attempt", lease.Attempt)

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		s.heartbeat(ctx, cancel, lease)
	}()
	defer func() {
		cancel()
		<-heartbeatDone
	}()

	current := models.LayerNone
	defer func() {
		if r := recover(); r != nil {
			log.Error("Pipeline panic", "layer", current, "panic", r, "stack", string(debug.Stack()))
			s.fail(ctx, lease, nil, current, fmt.Errorf("panic: %v", r))
		}
	}()

	st, err := s.loadRunState(ctx, lease)
	if err != nil {
		s.fail(ctx, lease, nil, start, fmt.Errorf("load run state: %w", err))
		return
	}

	log.Info("Pipeline started", "start_layer", start, "scenes", len(st.scenes))
	started := time.Now()
	stages := s.stages()

	for _, layer := range models.AllLayers {
		if layer < start {
			continue
		}
		current = layer
		if err := s.runStage(ctx, lease, st, layer, stages[layer]); err != nil {
			s.fail(ctx, lease, st, layer, err)
			return
		}
	}

	log.Info("Pipeline completed",
		"duration", time.Since(started).String(),
		"video_url", st.run.FinalVideoURL,
	)
	s.publishTerminal(ctx, st.run)
}

func (s *PipelineServiceImpl) loadRunState(ctx context.Context, lease *models.RunLease) (*runState, error) {
	run, err := s.deps.Runs.GetByID(ctx, lease.RunID)
	if err != nil {
		return nil, err
	}
	thought, err := s.deps.Thoughts.GetByID(ctx, run.ThoughtID)
	if err != nil {
		return nil, fmt.Errorf("load thought: %w", err)
	}
	scenes, err := s.deps.Scenes.ListByRun(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("load scenes: %w", err)
	}
	narration, err := s.deps.Narration.ListByRun(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("load narration: %w", err)
	}
	return &runState{run: run, thought: thought, scenes: scenes, narration: narration}, nil
}

// runStage persist status ก่อนเรียก executor แล้วบันทึก step log หลังจบ
func (s *PipelineServiceImpl) runStage(ctx context.Context, lease *models.RunLease, st *runState, layer models.Layer, fn stageFunc) error {
	status := models.StatusForLayer(layer)
	if err := s.deps.Runs.UpdateStatus(ctx, lease, status, layer); err != nil {
		return fmt.Errorf("persist stage status: %w", err)
	}
	st.run.Status = status
	st.run.CurrentLayer = layer
	s.invalidate(ctx, lease.RunID)
	s.publish(ctx, &ports.RunProgress{
		RunID:    lease.RunID.String(),
		Type:     ports.ProgressStage,
		Status:   string(status),
		Layer:    int(layer),
		Stage:    layer.StageName(),
		Progress: stageProgress(layer),
		Message:  "stage started",
	})

	logger.InfoContext(ctx, "Stage started", "layer", layer, "stage", layer.StageName())
	started := time.Now()

	payload, stageErr := fn(ctx, lease, st)
	if payload == nil {
		payload = models.StepPayload{}
	}

	duration := time.Since(started)
	if stageErr != nil {
		payload["outcome"] = "failed"
		payload["error"] = stageErr.Error()
	} else {
		payload["outcome"] = "ok"
	}

	if errors.Is(stageErr, repositories.ErrLeaseLost) {
		return stageErr
	}

	step := &models.PipelineStep{
		RunID:      lease.RunID,
		Attempt:    lease.Attempt,
		Layer:      layer,
		Step:       layer.StageName(),
		DurationMs: duration.Milliseconds(),
		Payload:    payload,
	}
	// step log เป็น audit trail ไม่ทำให้ stage ล้ม ยกเว้น lease หลุด
	if err := s.deps.Steps.Append(ctx, lease, step); err != nil {
		if errors.Is(err, repositories.ErrLeaseLost) {
			return err
		}
		logger.WarnContext(ctx, "Failed to append pipeline step",
			"layer", layer,
			"stage", layer.StageName(),
			"error", err,
		)
	}

	if stageErr != nil {
		return stageErr
	}

	logger.InfoContext(ctx, "Stage completed",
		"layer", layer,
		"stage", layer.StageName(),
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// fail บันทึก failed พร้อม error layer
// lease lost = มี attempt ใหม่ถือ run อยู่ ไม่เขียนอะไรทับ
func (s *PipelineServiceImpl) fail(ctx context.Context, lease *models.RunLease, st *runState, layer models.Layer, cause error) {
	if errors.Is(cause, repositories.ErrLeaseLost) {
		logger.WarnContext(ctx, "Run lease lost, stopping without writing", "layer", layer)
		return
	}

	reason := cause.Error()
	if ctx.Err() != nil && (errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded)) {
		reason = "interrupted: " + reason
	}
	message := reason
	if layer.Valid() {
		message = fmt.Sprintf("%s: %s", layer.StageName(), reason)
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.deps.Runs.MarkFailed(wctx, lease, layer, message); err != nil {
		if errors.Is(err, repositories.ErrLeaseLost) {
			logger.WarnContext(ctx, "Run lease lost before failure could be recorded", "layer", layer, "cause", cause)
			return
		}
		logger.ErrorContext(ctx, "Failed to mark run failed", "layer", layer, "error", err, "cause", cause)
		return
	}
	logger.ErrorContext(ctx, "Pipeline failed", "layer", layer, "stage", layer.StageName(), "error", message)

	run := &models.Run{ID: lease.RunID, Status: models.RunStatusFailed, Attempt: lease.Attempt, ErrorMessage: message}
	if st != nil {
		copied := *st.run
		run = &copied
		run.Status = models.RunStatusFailed
		run.ErrorMessage = message
	}
	if layer != models.LayerNone {
		l := layer
		run.ErrorLayer = &l
	}
	s.invalidate(wctx, lease.RunID)
	s.publishTerminal(wctx, run)
}

// heartbeat ต่ออายุ lease ; ถ้า lease หาย cancel pipeline ทันที
func (s *PipelineServiceImpl) heartbeat(ctx context.Context, cancel context.CancelFunc, lease *models.RunLease) {
	ticker := time.NewTicker(s.config.LeaseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.deps.Runs.RenewLease(ctx, lease, s.config.LeaseTTL)
			if err == nil {
				continue
			}
			if errors.Is(err, repositories.ErrLeaseLost) {
				logger.WarnContext(ctx, "Run lease lost during heartbeat, cancelling pipeline")
				cancel()
				return
			}
			if ctx.Err() == nil {
				logger.WarnContext(ctx, "Failed to renew run lease", "error", err)
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Progress / terminal events
// ═══════════════════════════════════════════════════════════════════════════════

func stageProgress(layer models.Layer) float64 {
	if !layer.Valid() {
		return 0
	}
	return float64(int(float64(layer-1)*1000/7)) / 10
}

func (s *PipelineServiceImpl) publish(ctx context.Context, progress *ports.RunProgress) {
	if s.deps.Progress == nil {
		return
	}
	if err := s.deps.Progress.PublishProgress(ctx, progress); err != nil {
		logger.DebugContext(ctx, "Failed to publish run progress", "error", err)
	}
}

func (s *PipelineServiceImpl) sceneObserver(ctx context.Context, lease *models.RunLease) SceneObserver {
	return func(scene *models.Scene, status models.SceneStatus, detail string) {
		s.invalidate(ctx, lease.RunID)
		index := scene.SceneIndex
		p := &ports.RunProgress{
			RunID:       lease.RunID.String(),
			Type:        ports.ProgressScene,
			Status:      string(models.RunStatusGenerating),
			Layer:       int(models.LayerGeneration),
			Stage:       models.LayerGeneration.StageName(),
			SceneIndex:  &index,
			SceneStatus: string(status),
			Progress:    stageProgress(models.LayerGeneration),
		}
		switch status {
		case models.SceneStatusReady:
			p.VideoURL = detail
		case models.SceneStatusFailed:
			p.Error = detail
		default:
			p.Message = detail
		}
		s.publish(ctx, p)
	}
}

// publishTerminal แจ้ง ready/failed ทั้ง progress (websocket, telegram) และ durable event stream
func (s *PipelineServiceImpl) publishTerminal(ctx context.Context, run *models.Run) {
	progress := &ports.RunProgress{
		RunID:  run.ID.String(),
		Type:   ports.ProgressTerminal,
		Status: string(run.Status),
	}
	event := &ports.RunEvent{
		RunID:      run.ID.String(),
		ThoughtID:  run.ThoughtID.String(),
		Status:     string(run.Status),
		Attempt:    run.Attempt,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}

	if run.Status == models.RunStatusReady {
		progress.Layer = int(models.LayerAssembly)
		progress.Progress = 100
		progress.VideoURL = run.FinalVideoURL
		progress.ThumbnailURL = run.ThumbnailURL
		event.FinalVideoURL = run.FinalVideoURL
		event.TotalDuration = run.TotalDuration
	} else {
		progress.Error = run.ErrorMessage
		event.ErrorMessage = run.ErrorMessage
		if run.ErrorLayer != nil {
			progress.Layer = int(*run.ErrorLayer)
			event.ErrorLayer = int(*run.ErrorLayer)
		}
	}

	s.publish(ctx, progress)
	if s.deps.Events != nil {
		if err := s.deps.Events.PublishRunEvent(ctx, event); err != nil {
			logger.WarnContext(ctx, "Failed to publish run event", "status", run.Status, "error", err)
		}
	}
}
