package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// EventScheduler background jobs ของ service (stale run detector, workspace cleanup)
type EventScheduler interface {
	Start()
	Stop()
	AddJob(id, cronExpr string, task func()) error
	RemoveJob(id string) error
	ListJobs() []JobInfo
	IsRunning() bool
}

type JobInfo struct {
	ID       string
	CronExpr string
	LastRun  *time.Time
	NextRun  time.Time
}

type jobEntry struct {
	cronExpr string
	job      *gocron.Job
	lastRun  *time.Time
}

type GocronScheduler struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*jobEntry
	mu        sync.RWMutex
	running   bool
}

// NewEventScheduler SingletonModeAll: job เดิมจะไม่ถูกรันซ้อนถ้ารอบก่อนยังไม่จบ
func NewEventScheduler() EventScheduler {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	return &GocronScheduler{
		scheduler: scheduler,
		jobs:      make(map[string]*jobEntry),
	}
}

func (s *GocronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.scheduler.StartAsync()
	s.running = true
	logger.Info("Event scheduler started", "jobs", len(s.jobs))
}

func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.scheduler.Stop()
	s.running = false
	logger.Info("Event scheduler stopped")
}

func (s *GocronScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *GocronScheduler) AddJob(id, cronExpr string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job with ID %s already exists", id)
	}

	job, err := s.scheduler.Cron(cronExpr).Do(func() {
		now := time.Now()
		s.mu.Lock()
		if entry, ok := s.jobs[id]; ok {
			entry.lastRun = &now
		}
		s.mu.Unlock()

		logger.Debug("Executing scheduled job", "job_id", id)
		task()
	})
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}

	s.jobs[id] = &jobEntry{cronExpr: cronExpr, job: job}
	logger.Info("Scheduled job added", "job_id", id, "cron", cronExpr, "next_run", job.NextRun().Format(time.RFC3339))
	return nil
}

func (s *GocronScheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job with ID %s not found", id)
	}
	s.scheduler.RemoveByReference(entry.job)
	delete(s.jobs, id)
	return nil
}

// ListJobs snapshot ของ jobs ทั้งหมด
func (s *GocronScheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for id, entry := range s.jobs {
		info := JobInfo{ID: id, CronExpr: entry.cronExpr, NextRun: entry.job.NextRun()}
		if entry.lastRun != nil {
			last := *entry.lastRun
			info.LastRun = &last
		}
		out = append(out, info)
	}
	return out
}

// ValidateCronExpression ตรวจ expression ก่อนลงทะเบียน (รองรับ "@every 30s")
func ValidateCronExpression(cronExpr string) error {
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Cron(cronExpr).Do(func() {}); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
