package websocket

import (
	"context"
	"sync"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// Message types ที่ frontend รับ
const (
	TypeRunProgress = "run_progress"
	TypeRunReady    = "run:ready"
	TypeRunFailed   = "run:failed"
)

// ProgressBroadcaster รับ RunProgress จาก messaging แล้วส่งต่อเข้า room ของ run
type ProgressBroadcaster struct {
	progressSub ports.ProgressSubscriberPort
	manager     *Manager
	running     bool
	runningMu   sync.Mutex
	cancelCtx   context.CancelFunc
}

func NewProgressBroadcaster(progressSub ports.ProgressSubscriberPort, manager *Manager) *ProgressBroadcaster {
	return &ProgressBroadcaster{
		progressSub: progressSub,
		manager:     manager,
	}
}

func (pb *ProgressBroadcaster) Start() error {
	pb.runningMu.Lock()
	defer pb.runningMu.Unlock()
	if pb.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := pb.progressSub.Subscribe(ctx, pb.handleProgress); err != nil {
		cancel()
		return err
	}
	pb.cancelCtx = cancel
	pb.running = true

	logger.Info("Progress broadcaster started")
	return nil
}

func (pb *ProgressBroadcaster) handleProgress(update *ports.RunProgress) {
	if update == nil || update.RunID == "" {
		logger.Warn("Invalid progress data received")
		return
	}

	room := RoomForRun(update.RunID)
	pb.manager.BroadcastToRoom(room, TypeRunProgress, update)

	if update.Type == ports.ProgressTerminal {
		switch update.Status {
		case "ready":
			pb.manager.BroadcastToRoom(room, TypeRunReady, update)
		case "failed":
			pb.manager.BroadcastToRoom(room, TypeRunFailed, update)
		}
	}

	logger.Debug("Progress relayed",
		"run_id", update.RunID,
		"type", update.Type,
		"status", update.Status,
		"room_clients", pb.manager.GetRoomClients(room),
	)
}

func (pb *ProgressBroadcaster) Stop() {
	pb.runningMu.Lock()
	defer pb.runningMu.Unlock()
	if !pb.running {
		return
	}
	pb.running = false

	if pb.cancelCtx != nil {
		pb.cancelCtx()
	}
	if err := pb.progressSub.Unsubscribe(); err != nil {
		logger.Warn("Failed to unsubscribe progress", "error", err)
	}

	logger.Info("Progress broadcaster stopped")
}

func (pb *ProgressBroadcaster) IsRunning() bool {
	pb.runningMu.Lock()
	defer pb.runningMu.Unlock()
	return pb.running
}
