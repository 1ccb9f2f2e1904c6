package serviceimpl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

// ═══════════════════════════════════════════════════════════════════════════════
// In-memory Run State Store (same fencing semantics as the postgres repositories)
// ═══════════════════════════════════════════════════════════════════════════════

type memStore struct {
	mu        sync.Mutex
	thoughts  map[uuid.UUID]*models.Thought
	runs      map[uuid.UUID]*models.Run
	scenes    map[uuid.UUID]*models.Scene
	narration map[uuid.UUID]*models.NarrationSegment
	steps     []*models.PipelineStep

	statusWrites []models.RunStatus
	markFailed   int
}

func newMemStore() *memStore {
	return &memStore{
		thoughts:  make(map[uuid.UUID]*models.Thought),
		runs:      make(map[uuid.UUID]*models.Run),
		scenes:    make(map[uuid.UUID]*models.Scene),
		narration: make(map[uuid.UUID]*models.NarrationSegment),
	}
}

func (m *memStore) addThought(content string) *models.Thought {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &models.Thought{ID: uuid.New(), UserID: uuid.New(), Content: content, CreatedAt: time.Now()}
	m.thoughts[t.ID] = t
	return t
}

// fenced ต้องถือ m.mu อยู่แล้ว
func (m *memStore) fenced(lease *models.RunLease) (*models.Run, error) {
	run, ok := m.runs[lease.RunID]
	if !ok || run.LeaseToken == nil || *run.LeaseToken != lease.Token {
		return nil, repositories.ErrLeaseLost
	}
	return run, nil
}

func (m *memStore) run(id uuid.UUID) *models.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

func (m *memStore) scenesOf(runID uuid.UUID) []*models.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenesLocked(runID)
}

func (m *memStore) scenesLocked(runID uuid.UUID) []*models.Scene {
	var out []*models.Scene
	for _, s := range m.scenes {
		if s.RunID == runID {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SceneIndex < out[j].SceneIndex })
	return out
}

func (m *memStore) narrationLocked(runID uuid.UUID) []*models.NarrationSegment {
	var out []*models.NarrationSegment
	for _, n := range m.narration {
		if n.RunID == runID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return models.SegmentOrder(out[i].SegmentType) < models.SegmentOrder(out[j].SegmentType)
	})
	return out
}

func (m *memStore) stepsOf(runID uuid.UUID) []*models.PipelineStep {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PipelineStep
	for _, s := range m.steps {
		if s.RunID == runID {
			c := *s
			out = append(out, &c)
		}
	}
	return out
}

// stealLease จำลอง executor อื่น claim run ไป
func (m *memStore) stealLease(runID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[runID]
	token := uuid.New()
	exp := time.Now().Add(time.Hour)
	run.LeaseToken = &token
	run.LeaseExpiresAt = &exp
	run.Attempt++
	run.Status = models.RunStatusPending
}

type memThoughtRepo struct{ *memStore }

func (r memThoughtRepo) Create(_ context.Context, t *models.Thought) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.thoughts[t.ID] = &c
	return nil
}

func (r memThoughtRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Thought, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.thoughts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *t
	return &c, nil
}

type memRunRepo struct{ *memStore }

func (r memRunRepo) GetOrCreateForThought(_ context.Context, thoughtID uuid.UUID) (*models.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ThoughtID == thoughtID {
			c := *run
			return &c, nil
		}
	}
	run := &models.Run{ID: uuid.New(), ThoughtID: thoughtID, Status: models.RunStatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.runs[run.ID] = run
	c := *run
	return &c, nil
}

func (r memRunRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Run, error) {
	run := r.run(id)
	if run == nil {
		return nil, repositories.ErrNotFound
	}
	return run, nil
}

func (r memRunRepo) GetWithDetails(_ context.Context, id uuid.UUID) (*models.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *run
	c.Scenes = r.scenesLocked(id)
	c.NarrationSegments = r.narrationLocked(id)
	return &c, nil
}

func (r memRunRepo) List(_ context.Context, status models.RunStatus, offset, limit int) ([]*models.Run, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Run
	for _, run := range r.runs {
		if status == "" || run.Status == status {
			c := *run
			out = append(out, &c)
		}
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r memRunRepo) ClaimLease(_ context.Context, runID uuid.UUID, ttl time.Duration, allowReady bool) (*models.RunLease, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, false, repositories.ErrNotFound
	}
	now := time.Now()
	if run.HasLiveLease(now) || (run.IsReady() && !allowReady) {
		return nil, false, nil
	}
	token := uuid.New()
	exp := now.Add(ttl)
	run.LeaseToken = &token
	run.LeaseExpiresAt = &exp
	run.Attempt++
	run.Status = models.RunStatusPending
	run.CurrentLayer = models.LayerNone
	run.ErrorLayer = nil
	run.ErrorMessage = ""
	run.StartedAt = &now
	run.CompletedAt = nil
	return &models.RunLease{RunID: runID, Token: token, Attempt: run.Attempt}, true, nil
}

func (r memRunRepo) RenewLease(_ context.Context, lease *models.RunLease, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	exp := time.Now().Add(ttl)
	run.LeaseExpiresAt = &exp
	return nil
}

func (r memRunRepo) ReleaseLease(_ context.Context, lease *models.RunLease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	run.LeaseToken = nil
	run.LeaseExpiresAt = nil
	return nil
}

func (r memRunRepo) UpdateStatus(_ context.Context, lease *models.RunLease, status models.RunStatus, layer models.Layer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	run.Status = status
	run.CurrentLayer = layer
	r.statusWrites = append(r.statusWrites, status)
	return nil
}

func (r memRunRepo) SaveArtifacts(_ context.Context, lease *models.RunLease, a repositories.RunArtifacts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	if a.Understanding != nil {
		run.Understanding = a.Understanding
	}
	if a.Perspective != nil {
		run.Perspective = a.Perspective
	}
	if a.Blueprint != nil {
		run.Blueprint = a.Blueprint
	}
	if a.NarrationScript != nil {
		run.NarrationScript = a.NarrationScript
	}
	return nil
}

func (r memRunRepo) MarkFailed(_ context.Context, lease *models.RunLease, layer models.Layer, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	run.Status = models.RunStatusFailed
	run.ErrorMessage = message
	run.ErrorLayer = nil
	if layer != models.LayerNone {
		l := layer
		run.ErrorLayer = &l
	}
	r.markFailed++
	r.statusWrites = append(r.statusWrites, models.RunStatusFailed)
	return nil
}

func (r memRunRepo) MarkReady(_ context.Context, lease *models.RunLease, res repositories.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	now := time.Now()
	run.Status = models.RunStatusReady
	run.CurrentLayer = models.LayerAssembly
	run.FinalVideoURL = res.FinalVideoURL
	run.ThumbnailURL = res.ThumbnailURL
	run.TotalDuration = res.TotalDuration
	run.CompletedAt = &now
	r.statusWrites = append(r.statusWrites, models.RunStatusReady)
	return nil
}

func (r memRunRepo) ResetForRegenerate(_ context.Context, lease *models.RunLease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.fenced(lease)
	if err != nil {
		return err
	}
	run.Understanding, run.Perspective, run.Blueprint, run.NarrationScript = nil, nil, nil, nil
	run.FinalVideoURL, run.ThumbnailURL, run.TotalDuration = "", "", 0
	for id, s := range r.scenes {
		if s.RunID == run.ID {
			delete(r.scenes, id)
		}
	}
	for id, n := range r.narration {
		if n.RunID == run.ID {
			delete(r.narration, id)
		}
	}
	return nil
}

func (r memRunRepo) GetStale(_ context.Context, now time.Time, limit int) ([]*models.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Run
	for _, run := range r.runs {
		if run.LeaseToken != nil && run.LeaseExpiresAt != nil && run.LeaseExpiresAt.Before(now) && !run.Status.IsTerminal() {
			c := *run
			out = append(out, &c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memRunRepo) MarkInterrupted(_ context.Context, runID uuid.UUID, staleToken uuid.UUID, layer models.Layer, message string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok || run.LeaseToken == nil || *run.LeaseToken != staleToken || run.LeaseExpiresAt.After(time.Now()) {
		return false, nil
	}
	run.Status = models.RunStatusFailed
	run.ErrorMessage = message
	l := layer
	run.ErrorLayer = &l
	run.LeaseToken = nil
	run.LeaseExpiresAt = nil
	return true, nil
}

type memSceneRepo struct{ *memStore }

func (r memSceneRepo) ListByRun(_ context.Context, runID uuid.UUID) ([]*models.Scene, error) {
	return r.scenesOf(runID), nil
}

func (r memSceneRepo) ReplaceForRun(_ context.Context, lease *models.RunLease, scenes []*models.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.fenced(lease); err != nil {
		return err
	}
	for id, s := range r.scenes {
		if s.RunID == lease.RunID {
			delete(r.scenes, id)
		}
	}
	for _, s := range scenes {
		c := *s
		r.scenes[s.ID] = &c
	}
	return nil
}

func (r memSceneRepo) update(lease *models.RunLease, id uuid.UUID, fn func(*models.Scene)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.fenced(lease); err != nil {
		return err
	}
	s, ok := r.scenes[id]
	if !ok || s.RunID != lease.RunID {
		return repositories.ErrNotFound
	}
	fn(s)
	return nil
}

func (r memSceneRepo) MarkProcessing(_ context.Context, lease *models.RunLease, id uuid.UUID, jobID string) error {
	return r.update(lease, id, func(s *models.Scene) {
		now := time.Now()
		s.Status = models.SceneStatusProcessing
		s.ExternalJobID = jobID
		s.Attempts++
		s.SubmittedAt = &now
		s.FailureReason = ""
	})
}

func (r memSceneRepo) MarkReady(_ context.Context, lease *models.RunLease, id uuid.UUID, url string) error {
	return r.update(lease, id, func(s *models.Scene) {
		s.Status = models.SceneStatusReady
		s.RunwayVideoURL = url
	})
}

func (r memSceneRepo) MarkFailed(_ context.Context, lease *models.RunLease, id uuid.UUID, reason string) error {
	return r.update(lease, id, func(s *models.Scene) {
		s.Status = models.SceneStatusFailed
		s.FailureReason = reason
	})
}

type memNarrationRepo struct{ *memStore }

func (r memNarrationRepo) ListByRun(_ context.Context, runID uuid.UUID) ([]*models.NarrationSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.narrationLocked(runID), nil
}

func (r memNarrationRepo) ReplaceForRun(_ context.Context, lease *models.RunLease, segs []*models.NarrationSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.fenced(lease); err != nil {
		return err
	}
	for id, n := range r.narration {
		if n.RunID == lease.RunID {
			delete(r.narration, id)
		}
	}
	for _, n := range segs {
		c := *n
		r.narration[n.ID] = &c
	}
	return nil
}

func (r memNarrationRepo) update(lease *models.RunLease, id uuid.UUID, fn func(*models.NarrationSegment)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.fenced(lease); err != nil {
		return err
	}
	n, ok := r.narration[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(n)
	return nil
}

func (r memNarrationRepo) MarkProcessing(_ context.Context, lease *models.RunLease, id uuid.UUID) error {
	return r.update(lease, id, func(n *models.NarrationSegment) { n.Status = models.SegmentStatusProcessing })
}

func (r memNarrationRepo) MarkReady(_ context.Context, lease *models.RunLease, id uuid.UUID, url string, d float64) error {
	return r.update(lease, id, func(n *models.NarrationSegment) {
		n.Status = models.SegmentStatusReady
		n.AudioURL = url
		n.DurationSeconds = d
	})
}

func (r memNarrationRepo) MarkFailed(_ context.Context, lease *models.RunLease, id uuid.UUID, reason string) error {
	return r.update(lease, id, func(n *models.NarrationSegment) {
		n.Status = models.SegmentStatusFailed
		n.FailureReason = reason
	})
}

type memStepRepo struct{ *memStore }

func (r memStepRepo) Append(_ context.Context, lease *models.RunLease, step *models.PipelineStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.fenced(lease); err != nil {
		return err
	}
	for _, s := range r.steps {
		if s.RunID == step.RunID && s.Attempt == step.Attempt && s.Layer == step.Layer {
			return nil
		}
	}
	c := *step
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.steps = append(r.steps, &c)
	return nil
}

func (r memStepRepo) ListByRun(_ context.Context, runID uuid.UUID) ([]*models.PipelineStep, error) {
	return r.stepsOf(runID), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// External collaborators
// ═══════════════════════════════════════════════════════════════════════════════

type fakeAI struct {
	mu             sync.Mutex
	calls          map[string]int
	sceneCount     int
	understandErr  error
	perspectiveErr error
	blueprintErr   error
	scriptErr      error
	active         int
	maxActive      int
}

func newFakeAI(sceneCount int) *fakeAI {
	return &fakeAI{calls: make(map[string]int), sceneCount: sceneCount}
}

func (f *fakeAI) enter(name string) func() {
	f.mu.Lock()
	f.calls[name]++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()
	time.Sleep(time.Millisecond)
	return func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}
}

func (f *fakeAI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAI) Understand(context.Context, *ports.StageInput) (*models.Understanding, error) {
	defer f.enter("understand")()
	if f.understandErr != nil {
		return nil, f.understandErr
	}
	return &models.Understanding{CoreTheme: "change", Emotion: "uncertain", Tone: "warm"}, nil
}

func (f *fakeAI) Perspective(context.Context, *ports.StageInput) (*models.Perspective, error) {
	defer f.enter("perspective")()
	if f.perspectiveErr != nil {
		return nil, f.perspectiveErr
	}
	return &models.Perspective{Title: "Turning Points", Thesis: "Change is a door.", Essay: "An essay."}, nil
}

func (f *fakeAI) Blueprint(context.Context, *ports.StageInput) (*models.Blueprint, error) {
	defer f.enter("blueprint")()
	if f.blueprintErr != nil {
		return nil, f.blueprintErr
	}
	bp := &models.Blueprint{Title: "Turning Points"}
	for i := 0; i < f.sceneCount; i++ {
		bp.Scenes = append(bp.Scenes, models.BlueprintScene{Index: i, Description: fmt.Sprintf("shot%d a quiet harbor at dawn", i)})
	}
	return bp, nil
}

func (f *fakeAI) NarrationScript(context.Context, *ports.StageInput) (*models.NarrationScript, error) {
	defer f.enter("narration")()
	if f.scriptErr != nil {
		return nil, f.scriptErr
	}
	return &models.NarrationScript{Lines: []models.NarrationLine{
		{SegmentType: models.SegmentValidation, Text: "It makes sense."},
		{SegmentType: models.SegmentPerspective, Text: "Look wider."},
		{SegmentType: models.SegmentAgency, Text: "Take a step."},
	}}, nil
}

// sceneKey ดึง "shotN" จาก prompt
func sceneKey(prompt string) string {
	fields := strings.Fields(prompt)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type fakeJob struct {
	key   string
	polls int
}

// fakeVideo provider จำลอง ; behavior ต่อ scene key
type fakeVideo struct {
	mu        sync.Mutex
	nextID    int
	jobs      map[string]*fakeJob
	submits   []string
	attempts  map[string]int
	inFlight  int
	maxFlight int
	completed []string

	submitErr func(key string, attempt int) error
	pollErr   func(key string, poll int) error
	// pollsFor จำนวน poll ที่ยัง running ก่อนจบ
	pollsFor func(key string) int
	outcome  func(key string) ports.JobStatus
	onPoll   func(key string, jobID string)
}

func newFakeVideo() *fakeVideo {
	return &fakeVideo{jobs: make(map[string]*fakeJob), attempts: make(map[string]int)}
}

func (f *fakeVideo) Submit(_ context.Context, req *ports.GenerationRequest) (string, error) {
	key := sceneKey(req.Prompt)
	f.mu.Lock()
	f.attempts[key]++
	attempt := f.attempts[key]
	submitErr := f.submitErr
	f.mu.Unlock()

	if submitErr != nil {
		if err := submitErr(key, attempt); err != nil {
			return "", err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("job-%d", f.nextID)
	f.jobs[id] = &fakeJob{key: key}
	f.submits = append(f.submits, key)
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	return id, nil
}

func (f *fakeVideo) Poll(_ context.Context, jobID string) (*ports.JobStatus, error) {
	f.mu.Lock()
	job, ok := f.jobs[jobID]
	if !ok {
		// job ที่ submit โดย process ก่อนหน้า
		job = &fakeJob{key: jobID}
		f.jobs[jobID] = job
		f.inFlight++
	}
	job.polls++
	polls := job.polls
	onPoll, pollErr, pollsFor, outcome := f.onPoll, f.pollErr, f.pollsFor, f.outcome
	f.mu.Unlock()

	if onPoll != nil {
		onPoll(job.key, jobID)
	}
	if pollErr != nil {
		if err := pollErr(job.key, polls); err != nil {
			return nil, err
		}
	}

	wait := 0
	if pollsFor != nil {
		wait = pollsFor(job.key)
	}
	if polls <= wait {
		return &ports.JobStatus{State: ports.JobStateRunning}, nil
	}

	st := ports.JobStatus{State: ports.JobStateDone, VideoURL: "https://videos.test/" + job.key + ".mp4"}
	if outcome != nil {
		st = outcome(job.key)
	}

	f.mu.Lock()
	f.inFlight--
	f.completed = append(f.completed, job.key)
	f.mu.Unlock()
	return &st, nil
}

func (f *fakeVideo) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.submits))
	copy(out, f.submits)
	sort.Strings(out)
	return out
}

type fakeTTS struct {
	mu    sync.Mutex
	fail  map[string]bool // by text
	calls int
}

func (f *fakeTTS) Synthesize(_ context.Context, text string) (*ports.SpeechResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[text] {
		return nil, ports.NewHTTPError("elevenlabs", 400, "voice rejected")
	}
	return &ports.SpeechResult{Audio: []byte("mp3:" + text), ContentType: "audio/mpeg", DurationSeconds: 2.5}, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	deleted []string
}

func (f *fakeStorage) UploadFile(r io.Reader, path, _ string) (string, error) {
	_, _ = io.ReadAll(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, path)
	return "https://cdn.test/" + path, nil
}

func (f *fakeStorage) DeleteFolder(prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, prefix)
	return nil
}

func (f *fakeStorage) GetFileURL(path string) string { return "https://cdn.test/" + path }

func (f *fakeStorage) GetProviderName() string { return "fake" }

type fakeAssembler struct {
	mu     sync.Mutex
	inputs []*ports.AssembleInput
	errs   []error // error ต่อครั้ง ; เกินความยาวใช้ตัวสุดท้าย
}

func (f *fakeAssembler) Assemble(_ context.Context, in *ports.AssembleInput) (*ports.AssembleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if len(f.errs) > 0 {
		i := len(f.inputs) - 1
		if i >= len(f.errs) {
			i = len(f.errs) - 1
		}
		if err := f.errs[i]; err != nil {
			return nil, err
		}
	}
	if len(in.Clips) == 0 {
		return nil, ports.ErrNoClips
	}
	return &ports.AssembleResult{
		VideoURL:        "https://cdn.test/" + in.OutputKey + "/final.mp4",
		ThumbnailURL:    "https://cdn.test/" + in.OutputKey + "/thumbnail.jpg",
		DurationSeconds: float64(len(in.Clips) * 8),
	}, nil
}

func (f *fakeAssembler) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeAssembler) last() *ports.AssembleInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[len(f.inputs)-1]
}

type fakeProgress struct {
	mu     sync.Mutex
	events []*ports.RunProgress
}

func (f *fakeProgress) PublishProgress(_ context.Context, p *ports.RunProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *p
	f.events = append(f.events, &c)
	return nil
}

func (f *fakeProgress) terminal() []*ports.RunProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ports.RunProgress
	for _, e := range f.events {
		if e.Type == ports.ProgressTerminal {
			out = append(out, e)
		}
	}
	return out
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*ports.RunEvent
}

func (f *fakeEvents) PublishRunEvent(_ context.Context, e *ports.RunEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}
