package serviceimpl

import (
	"time"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

// GenerationDefaults ค่าที่ส่งไปกับทุก scene job
type GenerationDefaults struct {
	AspectRatio     string
	Model           string
	Audio           bool
	DurationSeconds int
}

// PipelineConfig policy constants ของ orchestrator
type PipelineConfig struct {
	MinReadyFraction float64       // สัดส่วน scene ที่ต้อง ready ถึงจะ assemble (default: 0.6)
	StageTimeout     time.Duration // timeout ของ generative call ต่อ stage (default: 90s)
	AssemblyAttempts int           // จำนวนครั้งที่ลอง assemble เมื่อ error เป็น transient (default: 2)
	LeaseTTL         time.Duration // default: 2m
	LeaseHeartbeat   time.Duration // default: 30s
	MaxScenes        int           // default: 8
	StatusCacheTTL   time.Duration // default: 2s
	TriggerDebounce  time.Duration // default: 3s
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	Scheduler SceneSchedulerConfig
}

// SceneSchedulerConfig การตั้งค่าของ scene scheduler
type SceneSchedulerConfig struct {
	MaxConcurrent   int           // default: 3
	SubmitAttempts  int           // default: 3
	PollAttempts    int           // transient poll errors ติดกันสูงสุด (default: 5)
	RetryBaseDelay  time.Duration // default: 2s
	RetryMaxDelay   time.Duration // default: 30s
	PollInterval    time.Duration // default: 10s
	MaxPollDuration time.Duration // default: 10m
	Generation      GenerationDefaults
}

// NewPipelineConfig แปลงจาก env config
func NewPipelineConfig(p config.PipelineConfig, r config.RunwayConfig) PipelineConfig {
	return PipelineConfig{
		MinReadyFraction: p.MinReadyFraction,
		StageTimeout:     p.StageTimeout,
		AssemblyAttempts: p.AssemblyAttempts,
		LeaseTTL:         p.LeaseTTL,
		LeaseHeartbeat:   p.LeaseHeartbeat,
		MaxScenes:        p.MaxScenes,
		StatusCacheTTL:   p.StatusCacheTTL,
		TriggerDebounce:  p.TriggerDebounce,
		RetryBaseDelay:   p.RetryBaseDelay,
		RetryMaxDelay:    p.RetryMaxDelay,
		Scheduler: SceneSchedulerConfig{
			MaxConcurrent:   p.MaxConcurrentScenes,
			SubmitAttempts:  p.SubmitAttempts,
			PollAttempts:    p.PollAttempts,
			RetryBaseDelay:  p.RetryBaseDelay,
			RetryMaxDelay:   p.RetryMaxDelay,
			PollInterval:    p.PollInterval,
			MaxPollDuration: p.MaxPollDuration,
			Generation: GenerationDefaults{
				AspectRatio:     r.AspectRatio,
				Model:           r.Model,
				Audio:           r.Audio,
				DurationSeconds: r.DurationSeconds,
			},
		},
	}
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.MinReadyFraction <= 0 || c.MinReadyFraction > 1 {
		c.MinReadyFraction = 0.6
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 90 * time.Second
	}
	if c.AssemblyAttempts <= 0 {
		c.AssemblyAttempts = 2
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 2 * time.Minute
	}
	if c.LeaseHeartbeat <= 0 || c.LeaseHeartbeat >= c.LeaseTTL {
		c.LeaseHeartbeat = c.LeaseTTL / 4
	}
	if c.MaxScenes <= 0 {
		c.MaxScenes = 8
	}
	if c.StatusCacheTTL <= 0 {
		c.StatusCacheTTL = 2 * time.Second
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 2 * time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 30 * time.Second
	}
	c.Scheduler = c.Scheduler.withDefaults()
	return c
}

func (c SceneSchedulerConfig) withDefaults() SceneSchedulerConfig {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 3
	}
	if c.SubmitAttempts <= 0 {
		c.SubmitAttempts = 3
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = 5
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 2 * time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.MaxPollDuration <= 0 {
		c.MaxPollDuration = 10 * time.Minute
	}
	if c.Generation.AspectRatio == "" {
		c.Generation.AspectRatio = "1280:720"
	}
	if c.Generation.DurationSeconds <= 0 {
		c.Generation.DurationSeconds = 8
	}
	return c
}
