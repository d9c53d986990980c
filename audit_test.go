package venauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func auditConfig() Config {
	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 16}
	return cfg
}

func receiveEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case event := <-sink.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event arrived")
		return AuditEvent{}
	}
}

func TestAuditLifecycleEvents(t *testing.T) {
	sink := NewChannelSink(16)
	grants := newTestGrants()
	mgr, err := New().
		WithConfig(auditConfig()).
		WithGrantsProvider(grants).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(mgr.Close)
	ctx := context.Background()

	info, err := mgr.Login(ctx, "alice")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	event := receiveEvent(t, sink)
	if event.EventType != "login" {
		t.Fatalf("EventType = %q, want login", event.EventType)
	}
	if event.LoginID != "alice" || !event.Success {
		t.Fatalf("event = %+v, want a successful alice login", event)
	}
	if event.SessionID == "" {
		t.Fatal("login event missing the session id")
	}
	if event.Timestamp.IsZero() {
		t.Fatal("event not timestamped")
	}
	// Raw tokens must never leak into the audit trail.
	encoded, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if strings.Contains(string(encoded), info.Token) {
		t.Fatal("raw token leaked into the audit event")
	}

	if err := mgr.Renew(authContext(info.Token)); err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if event := receiveEvent(t, sink); event.EventType != "renew" {
		t.Fatalf("EventType = %q, want renew", event.EventType)
	}

	if err := mgr.LogoutByToken(ctx, info.Token); err != nil {
		t.Fatalf("LogoutByToken failed: %v", err)
	}
	if event := receiveEvent(t, sink); event.EventType != "logout" {
		t.Fatalf("EventType = %q, want logout", event.EventType)
	}

	second, _ := mgr.Login(ctx, "bob")
	receiveEvent(t, sink) // bob's login
	if err := mgr.LogoutByID(ctx, "bob"); err != nil {
		t.Fatalf("LogoutByID failed: %v", err)
	}
	event = receiveEvent(t, sink)
	if event.EventType != "logout_all" || event.LoginID != "bob" {
		t.Fatalf("event = %+v, want bob's logout_all", event)
	}
	_ = second
}

func TestAuditDisabledByDefault(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	if mgr.audit != nil {
		t.Fatal("dispatcher running with auditing disabled")
	}
	if _, err := mgr.Login(context.Background(), "alice"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := mgr.AuditDropped(); got != 0 {
		t.Fatalf("AuditDropped = %d, want 0", got)
	}
}

// blockingSink holds every delivery until released.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Emit(_ context.Context, _ AuditEvent) {
	s.entered <- struct{}{}
	<-s.release
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	sink := &blockingSink{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	ctx := context.Background()

	// First event: taken by the dispatcher goroutine, which then blocks in
	// the sink.
	d.Emit(ctx, AuditEvent{EventType: "login"})
	<-sink.entered

	// Second event fills the buffer; the third has nowhere to go.
	d.Emit(ctx, AuditEvent{EventType: "login"})
	d.Emit(ctx, AuditEvent{EventType: "login"})

	if got := d.Dropped(); got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}

	close(sink.release)
	<-sink.entered // the buffered second event drains
	d.Close()
}

func TestAuditDispatcherCloseDrains(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d.Emit(ctx, AuditEvent{EventType: "login"})
	}
	d.Close()

	for i := 0; i < 3; i++ {
		select {
		case <-sink.Events():
		default:
			t.Fatalf("only %d of 3 queued events delivered before Close returned", i)
		}
	}

	// Emitting after Close is a silent no-op.
	d.Emit(ctx, AuditEvent{EventType: "login"})
	d.Close()
}

func TestAuditDispatcherNil(t *testing.T) {
	var d *auditDispatcher

	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if got := d.Dropped(); got != 0 {
		t.Fatalf("Dropped on nil dispatcher = %d, want 0", got)
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	ctx := context.Background()

	sink.Emit(ctx, AuditEvent{EventType: "login", LoginID: "alice", Success: true})
	sink.Emit(ctx, AuditEvent{EventType: "logout", LoginID: "alice", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("first line is not valid JSON: %v", err)
	}
	if event.EventType != "login" || event.LoginID != "alice" {
		t.Fatalf("decoded event = %+v", event)
	}
}
