package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
)

type fakeConn struct {
	mu      sync.Mutex
	msgs    []Message
	closed  bool
	failing bool
	got     chan Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{got: make(chan Message, 16)}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	msg, _ := v.(Message)
	c.msgs = append(c.msgs, msg)
	c.got <- msg
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func waitMessage(t *testing.T, c *fakeConn) Message {
	t.Helper()
	select {
	case m := <-c.got:
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func expectNoMessage(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case m := <-c.got:
		t.Fatalf("unexpected message %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_BroadcastToRoomOnlyReachesMembers(t *testing.T) {
	m := NewManager()
	defer m.Close()

	runID := uuid.NewString()
	inRoom, other := newFakeConn(), newFakeConn()
	m.RegisterClient(inRoom, uuid.Nil, RoomForRun(runID))
	m.RegisterClient(other, uuid.Nil, RoomForRun(uuid.NewString()))

	m.BroadcastToRoom(RoomForRun(runID), TypeRunProgress, "hello")

	if got := waitMessage(t, inRoom); got.Type != TypeRunProgress || got.Data != "hello" {
		t.Errorf("message = %+v", got)
	}
	expectNoMessage(t, other)
}

func TestManager_SameUserReplacesConnection(t *testing.T) {
	m := NewManager()
	defer m.Close()

	user := uuid.New()
	first, second := newFakeConn(), newFakeConn()
	m.RegisterClient(first, user, "")
	m.RegisterClient(second, user, "")

	if !first.isClosed() {
		t.Error("previous connection should be closed")
	}
	if got := m.GetTotalClients(); got != 1 {
		t.Errorf("total clients = %d, want 1", got)
	}
}

func TestManager_FailedWriteDropsClient(t *testing.T) {
	m := NewManager()
	defer m.Close()

	room := RoomForRun(uuid.NewString())
	bad := newFakeConn()
	bad.failing = true
	m.RegisterClient(bad, uuid.Nil, room)

	m.BroadcastToRoom(room, TypeRunProgress, 1)

	deadline := time.Now().Add(time.Second)
	for m.GetRoomClients(room) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("broken client not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !bad.isClosed() {
		t.Error("broken client not closed")
	}
}

func TestManager_HandleMessage(t *testing.T) {
	m := NewManager()
	defer m.Close()

	conn := newFakeConn()
	m.RegisterClient(conn, uuid.Nil, "")

	m.HandleMessage(conn, []byte(`{"type":"ping"}`))
	if got := waitMessage(t, conn); got.Type != "pong" {
		t.Errorf("ping reply = %+v", got)
	}

	m.HandleMessage(conn, []byte(`{"type":"join_room","data":{"roomId":"lobby"}}`))
	if got := waitMessage(t, conn); got.Type != "error" {
		t.Errorf("invalid room reply = %+v", got)
	}

	room := RoomForRun(uuid.NewString())
	m.HandleMessage(conn, []byte(`{"type":"join_room","data":{"roomId":"`+room+`"}}`))
	if got := waitMessage(t, conn); got.Type != "room_joined" {
		t.Errorf("join reply = %+v", got)
	}
	if m.GetRoomClients(room) != 1 {
		t.Error("client not in room after join")
	}

	m.HandleMessage(conn, []byte(`{"type":"leave_room"}`))
	waitMessage(t, conn)
	if m.GetRoomClients(room) != 0 {
		t.Error("client still in room after leave")
	}
}

type fakeProgressSub struct {
	handler      ports.ProgressHandler
	unsubscribed bool
}

func (f *fakeProgressSub) Subscribe(ctx context.Context, handler ports.ProgressHandler) error {
	f.handler = handler
	return nil
}

func (f *fakeProgressSub) Unsubscribe() error {
	f.unsubscribed = true
	return nil
}

func TestProgressBroadcaster_RelaysToRunRoom(t *testing.T) {
	m := NewManager()
	defer m.Close()
	sub := &fakeProgressSub{}
	pb := NewProgressBroadcaster(sub, m)

	if err := pb.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	runID := uuid.NewString()
	conn := newFakeConn()
	m.RegisterClient(conn, uuid.Nil, RoomForRun(runID))

	sub.handler(&ports.RunProgress{RunID: runID, Type: ports.ProgressStage, Status: "generating", Layer: 6})
	if got := waitMessage(t, conn); got.Type != TypeRunProgress {
		t.Errorf("type = %q", got.Type)
	}

	sub.handler(&ports.RunProgress{RunID: runID, Type: ports.ProgressTerminal, Status: "failed", Layer: 7})
	first, second := waitMessage(t, conn), waitMessage(t, conn)
	if first.Type != TypeRunProgress || second.Type != TypeRunFailed {
		t.Errorf("terminal messages = %q, %q", first.Type, second.Type)
	}

	// ไม่มี run_id ต้องถูกทิ้ง
	sub.handler(&ports.RunProgress{Status: "ready"})
	expectNoMessage(t, conn)

	pb.Stop()
	if !sub.unsubscribed || pb.IsRunning() {
		t.Error("Stop did not unsubscribe")
	}
}
