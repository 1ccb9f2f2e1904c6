package assembler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

const (
	providerName     = "assembler"
	downloadParallel = 4
	stderrTailLines  = 20
)

type Config struct {
	FFmpegPath  string // path to ffmpeg binary
	FFprobePath string // path to ffprobe binary
	TempPath    string // root ของ workspace ต่อ run
	MinFreeGB   float64
}

// FFmpegAssembler ต่อ clip ตามลำดับ scene, mux narration, ทำ thumbnail แล้วอัปโหลดผลลัพธ์
type FFmpegAssembler struct {
	ffmpegPath  string
	ffprobePath string
	workRoot    string
	minFreeGB   float64
	storage     ports.StoragePort
	httpClient  *http.Client
}

func NewFFmpegAssembler(cfg Config, storage ports.StoragePort) (*FFmpegAssembler, error) {
	a := newAssembler(cfg, storage)

	if !a.IsAvailable() {
		return nil, fmt.Errorf("ffmpeg not available at path: %s", a.ffmpegPath)
	}
	if err := os.MkdirAll(a.workRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	return a, nil
}

func newAssembler(cfg Config, storage ports.StoragePort) *FFmpegAssembler {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	workRoot := cfg.TempPath
	if workRoot == "" {
		workRoot = filepath.Join(os.TempDir(), "assembler")
	}

	return &FFmpegAssembler{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		workRoot:    workRoot,
		minFreeGB:   cfg.MinFreeGB,
		storage:     storage,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
}

var _ ports.AssemblerPort = (*FFmpegAssembler)(nil)

// IsAvailable ตรวจสอบว่า ffmpeg พร้อมใช้งาน
func (a *FFmpegAssembler) IsAvailable() bool {
	return exec.Command(a.ffmpegPath, "-version").Run() == nil
}

// Assemble ทุกขั้นทำใน workspace ชั่วคราวซึ่งถูกลบเสมอเมื่อจบ
func (a *FFmpegAssembler) Assemble(ctx context.Context, in *ports.AssembleInput) (*ports.AssembleResult, error) {
	if in == nil || len(in.Clips) == 0 {
		return nil, ports.ErrNoClips
	}
	clips := sortedClips(in.Clips)

	if info, err := utils.EnsureFreeSpace(a.workRoot, a.minFreeGB); err != nil {
		if info != nil {
			return nil, ports.NewPermanentError(providerName, err.Error())
		}
		return nil, fmt.Errorf("disk check failed: %w", err)
	}

	workspace := filepath.Join(a.workRoot, fmt.Sprintf("%s-%s", in.RunID, uuid.NewString()[:8]))
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if size, err := utils.GetDirectorySize(workspace); err == nil {
			logger.DebugContext(ctx, "Removing assembler workspace", "path", workspace, "size", utils.FormatBytes(uint64(size)))
		}
		if err := os.RemoveAll(workspace); err != nil {
			logger.WarnContext(ctx, "Failed to remove workspace", "path", workspace, "error", err)
		}
	}()

	logger.InfoContext(ctx, "Starting assembly",
		"run_id", in.RunID,
		"clips", len(clips),
		"narration_segments", len(in.Narration),
	)

	clipPaths, audioPaths, err := a.downloadInputs(ctx, workspace, clips, in.Narration)
	if err != nil {
		return nil, err
	}

	videoPath := filepath.Join(workspace, "concat.mp4")
	if err := a.writeList(workspace, "clips.txt", clipPaths); err != nil {
		return nil, err
	}
	if err := a.runFFmpeg(ctx, concatVideoArgs(filepath.Join(workspace, "clips.txt"), videoPath)); err != nil {
		return nil, err
	}

	finalPath := videoPath
	if len(audioPaths) > 0 {
		narrationPath := filepath.Join(workspace, "narration.m4a")
		if err := a.writeList(workspace, "narration.txt", audioPaths); err != nil {
			return nil, err
		}
		if err := a.runFFmpeg(ctx, concatAudioArgs(filepath.Join(workspace, "narration.txt"), narrationPath)); err != nil {
			return nil, err
		}

		finalPath = filepath.Join(workspace, "final.mp4")
		if err := a.runFFmpeg(ctx, muxArgs(videoPath, narrationPath, finalPath)); err != nil {
			return nil, err
		}
	}

	duration, err := a.measureDuration(ctx, finalPath)
	if err != nil {
		return nil, err
	}

	// thumbnail ที่ 10% ของความยาว ไม่ critical
	thumbPath := filepath.Join(workspace, "thumb.jpg")
	thumbAt := duration / 10
	if thumbAt < 1 {
		thumbAt = 1
	}
	if thumbAt >= duration {
		thumbAt = 0
	}
	thumbOK := true
	if err := a.runFFmpeg(ctx, thumbnailArgs(finalPath, thumbPath, thumbAt)); err != nil {
		logger.WarnContext(ctx, "Failed to generate thumbnail", "run_id", in.RunID, "error", err)
		thumbOK = false
	}

	prefix := strings.TrimSuffix(in.OutputKey, "/")
	videoURL, err := a.upload(finalPath, prefix+"/final.mp4", "video/mp4")
	if err != nil {
		return nil, err
	}

	var thumbURL string
	if thumbOK {
		if thumbURL, err = a.upload(thumbPath, prefix+"/thumb.jpg", "image/jpeg"); err != nil {
			logger.WarnContext(ctx, "Failed to upload thumbnail", "run_id", in.RunID, "error", err)
			thumbURL = ""
		}
	}

	logger.InfoContext(ctx, "Assembly completed",
		"run_id", in.RunID,
		"video_url", videoURL,
		"duration", duration,
	)

	return &ports.AssembleResult{
		VideoURL:        videoURL,
		ThumbnailURL:    thumbURL,
		DurationSeconds: duration,
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Inputs
// ═══════════════════════════════════════════════════════════════════════════════

// sortedClips เรียงตาม scene index เสมอ ไม่สนลำดับที่ส่งเข้ามา
func sortedClips(clips []ports.Clip) []ports.Clip {
	out := make([]ports.Clip, len(clips))
	copy(out, clips)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (a *FFmpegAssembler) downloadInputs(ctx context.Context, workspace string, clips []ports.Clip, narration []ports.NarrationClip) ([]string, []string, error) {
	clipPaths := make([]string, len(clips))
	var audioPaths []string
	for i, n := range narration {
		if n.URL == "" {
			continue
		}
		audioPaths = append(audioPaths, filepath.Join(workspace, fmt.Sprintf("narration_%02d%s", i, extFromURL(n.URL, ".mp3"))))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadParallel)

	for i, c := range clips {
		clipPaths[i] = filepath.Join(workspace, fmt.Sprintf("clip_%03d.mp4", c.Index))
		url, dst := c.URL, clipPaths[i]
		g.Go(func() error {
			return a.download(gctx, url, dst)
		})
	}

	j := 0
	for _, n := range narration {
		if n.URL == "" {
			continue
		}
		url, dst := n.URL, audioPaths[j]
		j++
		g.Go(func() error {
			return a.download(gctx, url, dst)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clipPaths, audioPaths, nil
}

func (a *FFmpegAssembler) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.NewPermanentError(providerName, fmt.Sprintf("invalid input url %q", url))
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ports.NewTransportError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.NewHTTPError(providerName, resp.StatusCode, "download "+url)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return ports.NewTransportError(providerName, err)
	}
	return f.Close()
}

func extFromURL(url, fallback string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	ext := strings.ToLower(filepath.Ext(url))
	switch ext {
	case ".mp3", ".wav", ".m4a", ".aac", ".ogg":
		return ext
	}
	return fallback
}

// writeList concat demuxer list (path แบบ absolute, escape single quote)
func (a *FFmpegAssembler) writeList(workspace, name string, paths []string) error {
	if err := os.WriteFile(filepath.Join(workspace, name), []byte(buildConcatList(paths)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func buildConcatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		p = filepath.ToSlash(p)
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// ═══════════════════════════════════════════════════════════════════════════════
// ffmpeg commands
// ═══════════════════════════════════════════════════════════════════════════════

// concatVideoArgs re-encode เพื่อให้ clip ที่ resolution/timebase ต่างกันต่อกันได้
func concatVideoArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-an",
		"-movflags", "+faststart",
		outPath,
	}
}

func concatAudioArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "aac",
		"-b:a", "128k",
		"-ac", "2",
		outPath,
	}
}

// muxArgs ความยาวยึดตาม video: pad เสียงเงียบถ้า narration สั้นกว่า
func muxArgs(videoPath, audioPath, outPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "128k",
		"-af", "apad",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
}

func thumbnailArgs(inputPath, outputPath string, atSecond float64) []string {
	return []string{
		"-y",
		"-ss", strconv.FormatFloat(atSecond, 'f', 2, 64),
		"-i", inputPath,
		"-vframes", "1",
		"-vf", "scale=640:-1",
		"-q:v", "2",
		outputPath,
	}
}

// runFFmpeg exit code != 0 ถือเป็น permanent (input เสีย) ยกเว้น ctx ถูกยกเลิก
func (a *FFmpegAssembler) runFFmpeg(ctx context.Context, args []string) error {
	logger.DebugContext(ctx, "Executing ffmpeg", "args", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ports.NewPermanentError(providerName, fmt.Sprintf("ffmpeg exited %d: %s", exitErr.ExitCode(), tailLines(stderr.String(), stderrTailLines)))
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (a *FFmpegAssembler) measureDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, ports.NewPermanentError(providerName, fmt.Sprintf("ffprobe failed: %v", err))
	}
	return parseProbeDuration(output)
}

func parseProbeDuration(output []byte) (float64, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return 0, ports.NewPermanentError(providerName, "failed to parse ffprobe output")
	}
	d, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || d <= 0 {
		return 0, ports.NewPermanentError(providerName, fmt.Sprintf("invalid duration %q", parsed.Format.Duration))
	}
	return d, nil
}

// upload storage error ถือว่า transient (retry ได้ทั้ง assembly)
func (a *FFmpegAssembler) upload(path, key, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	url, err := a.storage.UploadFile(f, key, contentType)
	if err != nil {
		return "", ports.NewTransportError(a.storage.GetProviderName(), err)
	}
	return url, nil
}
