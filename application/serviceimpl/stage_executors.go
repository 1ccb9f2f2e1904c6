package serviceimpl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// ErrNoBlueprint blueprint ใช้ไม่ได้ pipeline ต้อง fail (ไม่มี default)
var ErrNoBlueprint = errors.New("blueprint has no usable scenes")

// ErrInsufficientScenes scene ที่ ready ไม่ถึง threshold
var ErrInsufficientScenes = errors.New("not enough scenes ready")

func (s *PipelineServiceImpl) stageInput(st *runState) *ports.StageInput {
	return &ports.StageInput{
		Thought:       st.thought.Content,
		Understanding: st.run.Understanding,
		Perspective:   st.run.Perspective,
		Blueprint:     st.run.Blueprint,
		MaxScenes:     s.config.MaxScenes,
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Layer 1-2: understanding, perspective (มี fallback)
// ═══════════════════════════════════════════════════════════════════════════════

func (s *PipelineServiceImpl) stageUnderstanding(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	sctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	u, err := s.deps.AI.Understand(sctx, s.stageInput(st))
	cancel()

	payload := models.StepPayload{}
	if err != nil || u == nil || strings.TrimSpace(u.CoreTheme) == "" {
		if ctx.Err() != nil {
			return payload, ctx.Err()
		}
		logger.WarnContext(ctx, "Understanding failed, using fallback", "error", err)
		u = FallbackUnderstanding(st.thought.Content)
		payload["fallback_reason"] = fallbackReason(err, "empty understanding")
	}

	if err := s.deps.Runs.SaveArtifacts(ctx, lease, repositories.RunArtifacts{Understanding: u}); err != nil {
		return payload, err
	}
	st.run.Understanding = u

	payload["core_theme"] = u.CoreTheme
	payload["emotion"] = u.Emotion
	payload["fallback"] = u.Fallback
	return payload, nil
}

func (s *PipelineServiceImpl) stagePerspective(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	sctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	p, err := s.deps.AI.Perspective(sctx, s.stageInput(st))
	cancel()

	payload := models.StepPayload{}
	if err != nil || p == nil || strings.TrimSpace(p.Essay) == "" {
		if ctx.Err() != nil {
			return payload, ctx.Err()
		}
		logger.WarnContext(ctx, "Perspective failed, using fallback", "error", err)
		p = FallbackPerspective(st.thought.Content, st.run.Understanding)
		payload["fallback_reason"] = fallbackReason(err, "empty essay")
	}

	if err := s.deps.Runs.SaveArtifacts(ctx, lease, repositories.RunArtifacts{Perspective: p}); err != nil {
		return payload, err
	}
	st.run.Perspective = p

	payload["title"] = p.Title
	payload["essay_chars"] = len([]rune(p.Essay))
	payload["fallback"] = p.Fallback
	return payload, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Layer 3: blueprint (load-bearing)
// ═══════════════════════════════════════════════════════════════════════════════

func (s *PipelineServiceImpl) stageBlueprint(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	sctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	bp, err := s.deps.AI.Blueprint(sctx, s.stageInput(st))
	cancel()

	payload := models.StepPayload{}
	if err != nil {
		return payload, fmt.Errorf("generate blueprint: %w", err)
	}

	bp, err = NormalizeBlueprint(bp, s.config.MaxScenes)
	if err != nil {
		return payload, err
	}

	scenes := make([]*models.Scene, 0, len(bp.Scenes))
	for _, bs := range bp.Scenes {
		scenes = append(scenes, &models.Scene{
			ID:           uuid.New(),
			RunID:        lease.RunID,
			SceneIndex:   bs.Index,
			Description:  bs.Description,
			Status:       models.SceneStatusPending,
			RunwayPrompt: s.deps.Composer.Compose(bs.Description, bs.Mood),
		})
	}

	if err := s.deps.Runs.SaveArtifacts(ctx, lease, repositories.RunArtifacts{Blueprint: bp}); err != nil {
		return payload, err
	}
	if err := s.deps.Scenes.ReplaceForRun(ctx, lease, scenes); err != nil {
		return payload, fmt.Errorf("persist scenes: %w", err)
	}
	st.run.Blueprint = bp
	st.scenes = scenes

	payload["title"] = bp.Title
	payload["scene_count"] = len(scenes)
	return payload, nil
}

// NormalizeBlueprint ตัด scene ว่าง จำกัดจำนวน และเรียง index ใหม่ 0..n-1
func NormalizeBlueprint(bp *models.Blueprint, maxScenes int) (*models.Blueprint, error) {
	if bp == nil {
		return nil, ErrNoBlueprint
	}
	usable := bp.UsableScenes()
	if len(usable) == 0 {
		return nil, ErrNoBlueprint
	}
	sort.SliceStable(usable, func(i, j int) bool { return usable[i].Index < usable[j].Index })
	if maxScenes > 0 && len(usable) > maxScenes {
		usable = usable[:maxScenes]
	}
	for i := range usable {
		usable[i].Index = i
		usable[i].Description = normalizeWhitespace(usable[i].Description)
	}

	out := *bp
	out.Title = strings.TrimSpace(out.Title)
	out.Scenes = usable
	return &out, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Layer 4-5: narration script (มี fallback), narration audio (ไม่ fatal)
// ═══════════════════════════════════════════════════════════════════════════════

func (s *PipelineServiceImpl) stageNarrationScript(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	sctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	script, err := s.deps.AI.NarrationScript(sctx, s.stageInput(st))
	cancel()

	payload := models.StepPayload{}
	if err != nil || script == nil || len(script.Lines) == 0 {
		if ctx.Err() != nil {
			return payload, ctx.Err()
		}
		logger.WarnContext(ctx, "Narration script failed, using fallback", "error", err)
		script = FallbackNarrationScript(st.run.Understanding, st.run.Perspective)
		payload["fallback_reason"] = fallbackReason(err, "empty script")
	}

	segments := make([]*models.NarrationSegment, 0, len(models.SegmentTypes))
	for _, segmentType := range models.SegmentTypes {
		text, ok := script.Line(segmentType)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, &models.NarrationSegment{
			ID:          uuid.New(),
			RunID:       lease.RunID,
			SegmentType: segmentType,
			Text:        strings.TrimSpace(text),
			Status:      models.SegmentStatusPending,
		})
	}

	if err := s.deps.Runs.SaveArtifacts(ctx, lease, repositories.RunArtifacts{NarrationScript: script}); err != nil {
		return payload, err
	}
	if err := s.deps.Narration.ReplaceForRun(ctx, lease, segments); err != nil {
		return payload, fmt.Errorf("persist narration segments: %w", err)
	}
	st.run.NarrationScript = script
	st.narration = segments

	payload["segments"] = len(segments)
	payload["fallback"] = script.Fallback
	return payload, nil
}

func (s *PipelineServiceImpl) stageNarrationAudio(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	payload := models.StepPayload{}
	if s.deps.TTS == nil || s.deps.Storage == nil {
		payload["skipped"] = "text-to-speech disabled"
		return payload, nil
	}

	ready, failed := 0, 0
	for _, seg := range st.narration {
		if seg.IsReady() {
			ready++
			continue
		}
		if err := s.synthesizeSegment(ctx, lease, seg); err != nil {
			if errors.Is(err, repositories.ErrLeaseLost) || ctx.Err() != nil {
				return payload, err
			}
			failed++
			logger.WarnContext(ctx, "Narration segment failed", "segment_type", seg.SegmentType, "error", err)
			if ferr := s.deps.Narration.MarkFailed(ctx, lease, seg.ID, err.Error()); ferr != nil {
				return payload, ferr
			}
			seg.Status = models.SegmentStatusFailed
			seg.FailureReason = err.Error()
			continue
		}
		ready++
	}

	payload["ready"] = ready
	payload["failed"] = failed
	return payload, nil
}

func (s *PipelineServiceImpl) synthesizeSegment(ctx context.Context, lease *models.RunLease, seg *models.NarrationSegment) error {
	if err := s.deps.Narration.MarkProcessing(ctx, lease, seg.ID); err != nil {
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	speech, err := s.deps.TTS.Synthesize(sctx, seg.Text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	contentType := speech.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	path := fmt.Sprintf("runs/%s/narration/%s.mp3", lease.RunID, seg.SegmentType)
	url, err := s.deps.Storage.UploadFile(bytes.NewReader(speech.Audio), path, contentType)
	if err != nil {
		return fmt.Errorf("upload narration: %w", err)
	}

	if err := s.deps.Narration.MarkReady(ctx, lease, seg.ID, url, speech.DurationSeconds); err != nil {
		return err
	}
	seg.Status = models.SegmentStatusReady
	seg.AudioURL = url
	seg.DurationSeconds = speech.DurationSeconds
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Layer 6: scene generation
// ═══════════════════════════════════════════════════════════════════════════════

func (s *PipelineServiceImpl) stageGeneration(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	payload := models.StepPayload{}
	if st.run.Blueprint == nil || len(st.scenes) == 0 {
		return payload, fmt.Errorf("%w: no persisted scenes to generate", ErrNoBlueprint)
	}

	summary, err := s.scheduler.Run(ctx, lease, st.scenes, s.sceneObserver(ctx, lease))
	if err != nil {
		return payload, err
	}

	payload["total"] = summary.Total
	payload["ready"] = summary.Ready
	payload["failed"] = summary.Failed
	payload["reused"] = summary.Reused
	payload["submitted"] = summary.Submitted
	payload["resumed"] = summary.Resumed
	payload["ready_fraction"] = summary.ReadyFraction()

	if failed := failedSceneIndexes(summary); len(failed) > 0 {
		payload["failed_scenes"] = failed
	}

	if summary.ReadyFraction() < s.config.MinReadyFraction {
		return payload, fmt.Errorf("%w: %d of %d scenes ready, need %.0f%%",
			ErrInsufficientScenes, summary.Ready, summary.Total, s.config.MinReadyFraction*100)
	}
	return payload, nil
}

func failedSceneIndexes(summary *SceneSummary) []int {
	var out []int
	for _, o := range summary.Outcomes {
		if o.Status == models.SceneStatusFailed {
			out = append(out, o.Index)
		}
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════
// Layer 7: assembly
// ═══════════════════════════════════════════════════════════════════════════════

// readyClips scene ที่ ready เรียงตาม scene_index (scene ที่ failed ถูกข้าม)
func readyClips(scenes []*models.Scene) []ports.Clip {
	clips := make([]ports.Clip, 0, len(scenes))
	for _, sc := range scenes {
		if sc.IsReusable() {
			clips = append(clips, ports.Clip{Index: sc.SceneIndex, URL: sc.RunwayVideoURL})
		}
	}
	sort.SliceStable(clips, func(i, j int) bool { return clips[i].Index < clips[j].Index })
	return clips
}

func readyNarration(segments []*models.NarrationSegment) []ports.NarrationClip {
	out := make([]ports.NarrationClip, 0, len(segments))
	for _, seg := range segments {
		if seg.IsReady() {
			out = append(out, ports.NarrationClip{SegmentType: seg.SegmentType, URL: seg.AudioURL})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return models.SegmentOrder(out[i].SegmentType) < models.SegmentOrder(out[j].SegmentType)
	})
	return out
}

func (s *PipelineServiceImpl) outputKey(st *runState) string {
	name := "video"
	if st.run.Blueprint != nil {
		if sl := slug.Make(st.run.Blueprint.Title); sl != "" {
			name = sl
		}
	}
	return fmt.Sprintf("runs/%s/%s", st.run.ID, name)
}

func (s *PipelineServiceImpl) stageAssembly(ctx context.Context, lease *models.RunLease, st *runState) (models.StepPayload, error) {
	payload := models.StepPayload{}

	clips := readyClips(st.scenes)
	order := make([]int, 0, len(clips))
	for _, c := range clips {
		order = append(order, c.Index)
	}
	payload["clip_order"] = order

	in := &ports.AssembleInput{
		RunID:     st.run.ID.String(),
		OutputKey: s.outputKey(st),
		Clips:     clips,
		Narration: readyNarration(st.narration),
	}
	payload["narration_segments"] = len(in.Narration)

	var (
		result *ports.AssembleResult
		err    error
	)
	attempts := 0
	for attempts < s.config.AssemblyAttempts {
		attempts++
		result, err = s.deps.Assembler.Assemble(ctx, in)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return payload, ctx.Err()
		}
		if errors.Is(err, ports.ErrNoClips) || !ports.IsTransient(err) {
			break
		}
		if attempts < s.config.AssemblyAttempts {
			delay := retryDelay(s.config.RetryBaseDelay, s.config.RetryMaxDelay, attempts)
			logger.WarnContext(ctx, "Assembly failed, retrying", "attempt", attempts, "delay", delay, "error", err)
			if serr := sleepCtx(ctx, delay); serr != nil {
				return payload, serr
			}
		}
	}
	payload["attempts"] = attempts
	if err != nil {
		return payload, fmt.Errorf("assembly failed after %d attempt(s): %w", attempts, err)
	}

	res := repositories.RunResult{
		FinalVideoURL: result.VideoURL,
		ThumbnailURL:  result.ThumbnailURL,
		TotalDuration: result.DurationSeconds,
	}
	if err := s.deps.Runs.MarkReady(ctx, lease, res); err != nil {
		return payload, err
	}
	st.run.Status = models.RunStatusReady
	st.run.FinalVideoURL = res.FinalVideoURL
	st.run.ThumbnailURL = res.ThumbnailURL
	st.run.TotalDuration = res.TotalDuration
	s.invalidate(ctx, lease.RunID)

	payload["video_url"] = result.VideoURL
	payload["duration_seconds"] = result.DurationSeconds
	return payload, nil
}
