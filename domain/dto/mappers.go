package dto

import (
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

func ThoughtToThoughtResponse(thought *models.Thought) *ThoughtResponse {
	if thought == nil {
		return nil
	}
	return &ThoughtResponse{
		ID:        thought.ID,
		UserID:    thought.UserID,
		Content:   thought.Content,
		CreatedAt: thought.CreatedAt,
	}
}

// RunToStatusResponse รวม run + scenes + narration เป็น shape ของ status poll
func RunToStatusResponse(run *models.Run, scenes []*models.Scene, segments []*models.NarrationSegment) *RunStatusResponse {
	if run == nil {
		return nil
	}

	resp := &RunStatusResponse{
		ID:           run.ID,
		ThoughtID:    run.ThoughtID,
		Status:       string(run.Status),
		CurrentLayer: int(reportedLayer(run)),
		Attempt:      run.Attempt,
		Scenes:       make([]SceneStatusResponse, 0, len(scenes)),
		Narration:    make(map[string]NarrationStatusResponse, len(segments)),
		UpdatedAt:    run.UpdatedAt,
	}
	if run.Status == models.RunStatusFailed {
		resp.ErrorMessage = run.ErrorMessage
		if run.ErrorLayer != nil {
			l := int(*run.ErrorLayer)
			resp.ErrorLayer = &l
		}
	}
	if run.Status == models.RunStatusReady {
		resp.FinalVideoURL = run.FinalVideoURL
		resp.ThumbnailURL = run.ThumbnailURL
		resp.TotalDuration = run.TotalDuration
	}

	ready := 0
	for _, s := range scenes {
		item := SceneStatusResponse{Index: s.SceneIndex, Status: string(s.Status)}
		if s.Status == models.SceneStatusReady {
			item.VideoURL = s.RunwayVideoURL
			ready++
		}
		resp.Scenes = append(resp.Scenes, item)
	}
	for _, seg := range segments {
		item := NarrationStatusResponse{Status: string(seg.Status)}
		if seg.Status == models.SegmentStatusReady {
			item.AudioURL = seg.AudioURL
		}
		resp.Narration[seg.SegmentType] = item
	}

	resp.Progress = ProgressPercent(run.Status, reportedLayer(run), ready, len(scenes))
	return resp
}

// reportedLayer layer ที่ client เห็น
// failed ค้างไว้ที่ layer สุดท้ายที่ไปถึง ที่เหลือคำนวณจาก status
func reportedLayer(run *models.Run) models.Layer {
	if run.Status != models.RunStatusFailed {
		return models.LayerForStatus(run.Status)
	}
	if run.CurrentLayer.Valid() {
		return run.CurrentLayer
	}
	if run.ErrorLayer != nil && run.ErrorLayer.Valid() {
		return *run.ErrorLayer
	}
	return models.LayerNone
}

// ProgressPercent progress 0-100 สำหรับแสดงผล
// ระหว่าง generating ใช้สัดส่วน scene ที่ ready
// failed = progress ก่อนเริ่ม layer ที่ล้ม
func ProgressPercent(status models.RunStatus, layer models.Layer, readyScenes, totalScenes int) float64 {
	switch status {
	case models.RunStatusReady:
		return 100
	case models.RunStatusPending:
		return 0
	case models.RunStatusFailed:
		if !layer.Valid() {
			return 0
		}
		return float64(int(float64(layer-1)*100/7*10)) / 10
	}
	if !layer.Valid() {
		layer = models.LayerForStatus(status)
	}
	const perLayer = 100.0 / 7
	base := float64(layer-1) * perLayer
	if layer == models.LayerGeneration && totalScenes > 0 {
		base += perLayer * float64(readyScenes) / float64(totalScenes)
	}
	return float64(int(base*10)) / 10
}

func RunToSummaryResponse(run *models.Run) RunSummaryResponse {
	return RunSummaryResponse{
		ID:            run.ID,
		ThoughtID:     run.ThoughtID,
		Status:        string(run.Status),
		CurrentLayer:  int(reportedLayer(run)),
		Attempt:       run.Attempt,
		FinalVideoURL: run.FinalVideoURL,
		CreatedAt:     run.CreatedAt,
		UpdatedAt:     run.UpdatedAt,
	}
}

func PipelineStepToResponse(step *models.PipelineStep) PipelineStepResponse {
	payload := map[string]interface{}(step.Payload)
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return PipelineStepResponse{
		Layer:      int(step.Layer),
		Step:       step.Step,
		Attempt:    step.Attempt,
		DurationMs: step.DurationMs,
		Payload:    payload,
		CreatedAt:  step.CreatedAt,
	}
}
