package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// SceneOutcome ผลของ scene หนึ่งตัวหลัง scheduler ทำงานเสร็จ
type SceneOutcome struct {
	SceneID  uuid.UUID
	Index    int
	Status   models.SceneStatus
	VideoURL string
	Reason   string
	Reused   bool // ready อยู่แล้วก่อนเริ่ม ไม่ได้ submit
	Resumed  bool // poll job เดิมต่อจาก attempt ก่อน
}

// SceneSummary ผลรวมที่ orchestrator ใช้ตัดสินใจ
type SceneSummary struct {
	Total     int
	Ready     int
	Failed    int
	Reused    int
	Submitted int
	Resumed   int
	Outcomes  []SceneOutcome // เรียงตาม scene index
}

// ReadyFraction สัดส่วน scene ที่ ready
func (s *SceneSummary) ReadyFraction() float64 {
	if s == nil || s.Total == 0 {
		return 0
	}
	return float64(s.Ready) / float64(s.Total)
}

// SceneObserver รับแจ้งทุกครั้งที่ scene เปลี่ยนสถานะ
type SceneObserver func(scene *models.Scene, status models.SceneStatus, detail string)

// SceneScheduler fan-out scene jobs แบบจำกัดจำนวน in-flight
// scene ที่ล้มเหลวไม่กระทบ scene อื่น ; error ที่คืนมีแค่ lease lost / ctx cancel / persistence error
type SceneScheduler struct {
	config SceneSchedulerConfig
	scenes repositories.SceneRepository
	video  ports.VideoGenerationPort
}

func NewSceneScheduler(config SceneSchedulerConfig, sceneRepo repositories.SceneRepository, video ports.VideoGenerationPort) *SceneScheduler {
	return &SceneScheduler{
		config: config.withDefaults(),
		scenes: sceneRepo,
		video:  video,
	}
}

// Run ประมวลผลทุก scene ที่ยังไม่ ready จนถึง terminal state
func (s *SceneScheduler) Run(ctx context.Context, lease *models.RunLease, scenes []*models.Scene, observe SceneObserver) (*SceneSummary, error) {
	if observe == nil {
		observe = func(*models.Scene, models.SceneStatus, string) {}
	}

	ordered := make([]*models.Scene, len(scenes))
	copy(ordered, scenes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SceneIndex < ordered[j].SceneIndex })

	outcomes := make([]SceneOutcome, len(ordered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrent)

	for i, scene := range ordered {
		if scene.IsReusable() {
			outcomes[i] = SceneOutcome{
				SceneID:  scene.ID,
				Index:    scene.SceneIndex,
				Status:   models.SceneStatusReady,
				VideoURL: scene.RunwayVideoURL,
				Reused:   true,
			}
			continue
		}

		g.Go(func() error {
			out, err := s.process(gctx, lease, scene, observe)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &SceneSummary{Total: len(ordered), Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case models.SceneStatusReady:
			summary.Ready++
		case models.SceneStatusFailed:
			summary.Failed++
		}
		switch {
		case o.Reused:
			summary.Reused++
		case o.Resumed:
			summary.Resumed++
		default:
			summary.Submitted++
		}
	}
	return summary, nil
}

// process submit (หรือใช้ job เดิม) แล้ว poll จน terminal
func (s *SceneScheduler) process(ctx context.Context, lease *models.RunLease, scene *models.Scene, observe SceneObserver) (SceneOutcome, error) {
	log := logger.FromContext(ctx).With("scene_index", scene.SceneIndex)
	out := SceneOutcome{SceneID: scene.ID, Index: scene.SceneIndex}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	jobID := ""
	if scene.IsInFlight() {
		// submit ไปแล้วใน attempt ก่อน poll ต่อจาก job id เดิม
		jobID = scene.ExternalJobID
		out.Resumed = true
		log.Info("Resuming scene job", "job_id", jobID)
	} else {
		var err error
		jobID, err = s.submitWithRetry(ctx, scene)
		if err != nil {
			if fatal := fatalSceneError(ctx, err); fatal != nil {
				return out, fatal
			}
			return s.fail(ctx, lease, scene, out, "submit: "+err.Error(), observe)
		}
		if err := s.scenes.MarkProcessing(ctx, lease, scene.ID, jobID); err != nil {
			return out, fmt.Errorf("persist scene %d processing: %w", scene.SceneIndex, err)
		}
		scene.Status = models.SceneStatusProcessing
		scene.ExternalJobID = jobID
		observe(scene, models.SceneStatusProcessing, jobID)
		log.Info("Scene job submitted", "job_id", jobID)
	}

	status, err := s.pollUntilDone(ctx, jobID)
	if err != nil {
		return out, err
	}

	if status.State != ports.JobStateDone {
		return s.fail(ctx, lease, scene, out, status.Reason, observe)
	}

	if err := s.scenes.MarkReady(ctx, lease, scene.ID, status.VideoURL); err != nil {
		return out, fmt.Errorf("persist scene %d ready: %w", scene.SceneIndex, err)
	}
	scene.Status = models.SceneStatusReady
	scene.RunwayVideoURL = status.VideoURL
	observe(scene, models.SceneStatusReady, status.VideoURL)
	log.Info("Scene ready", "job_id", jobID)

	out.Status = models.SceneStatusReady
	out.VideoURL = status.VideoURL
	return out, nil
}

func (s *SceneScheduler) fail(ctx context.Context, lease *models.RunLease, scene *models.Scene, out SceneOutcome, reason string, observe SceneObserver) (SceneOutcome, error) {
	if err := s.scenes.MarkFailed(ctx, lease, scene.ID, reason); err != nil {
		return out, fmt.Errorf("persist scene %d failed: %w", scene.SceneIndex, err)
	}
	scene.Status = models.SceneStatusFailed
	scene.FailureReason = reason
	observe(scene, models.SceneStatusFailed, reason)
	logger.WarnContext(ctx, "Scene failed", "scene_index", scene.SceneIndex, "reason", reason)

	out.Status = models.SceneStatusFailed
	out.Reason = reason
	return out, nil
}

func (s *SceneScheduler) submitWithRetry(ctx context.Context, scene *models.Scene) (string, error) {
	gen := s.config.Generation
	req := &ports.GenerationRequest{
		Prompt:          scene.RunwayPrompt,
		AspectRatio:     gen.AspectRatio,
		Model:           gen.Model,
		Audio:           gen.Audio,
		DurationSeconds: gen.DurationSeconds,
	}

	for attempt := 1; ; attempt++ {
		jobID, err := s.video.Submit(ctx, req)
		if err == nil {
			if jobID == "" {
				return "", ports.NewPermanentError("video", "provider returned empty job id")
			}
			return jobID, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !ports.IsTransient(err) || attempt >= s.config.SubmitAttempts {
			return "", err
		}

		delay := retryDelay(s.config.RetryBaseDelay, s.config.RetryMaxDelay, attempt)
		logger.WarnContext(ctx, "Scene submit failed, retrying",
			"scene_index", scene.SceneIndex,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := sleepCtx(ctx, delay); err != nil {
			return "", err
		}
	}
}

// pollUntilDone คืน terminal JobStatus ; error เฉพาะ ctx cancel
// timeout / transient เกินจำนวน / permanent error แปลงเป็น JobStateFailed
func (s *SceneScheduler) pollUntilDone(ctx context.Context, jobID string) (*ports.JobStatus, error) {
	deadline := time.Now().Add(s.config.MaxPollDuration)
	transientErrs := 0

	for {
		wait := s.config.PollInterval
		if transientErrs > 0 {
			wait = retryDelay(s.config.RetryBaseDelay, s.config.RetryMaxDelay, transientErrs)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}

		status, err := s.video.Poll(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !ports.IsTransient(err) {
				return &ports.JobStatus{State: ports.JobStateFailed, Reason: "poll: " + err.Error()}, nil
			}
			transientErrs++
			if transientErrs >= s.config.PollAttempts {
				return &ports.JobStatus{
					State:  ports.JobStateFailed,
					Reason: fmt.Sprintf("poll: gave up after %d transient errors: %v", transientErrs, err),
				}, nil
			}
			continue
		}
		transientErrs = 0

		switch status.State {
		case ports.JobStateDone:
			if status.VideoURL == "" {
				return &ports.JobStatus{State: ports.JobStateFailed, Reason: "provider reported success without a video url"}, nil
			}
			return status, nil
		case ports.JobStateFailed:
			if status.Reason == "" {
				status.Reason = "provider reported failure"
			}
			return status, nil
		}

		if time.Now().After(deadline) {
			return &ports.JobStatus{
				State:  ports.JobStateFailed,
				Reason: fmt.Sprintf("timed out after %s waiting for job %s", s.config.MaxPollDuration, jobID),
			}, nil
		}
	}
}

// fatalSceneError error ที่ต้องหยุดทั้ง scheduler ไม่ใช่แค่ scene เดียว
func fatalSceneError(ctx context.Context, err error) error {
	if errors.Is(err, repositories.ErrLeaseLost) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
