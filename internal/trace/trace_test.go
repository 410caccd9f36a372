package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeFile, true},
		{LevelError, ScopeNode, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestStreamTracerFiltersByScope(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	run := Begin(tr, ScopeDriver, "fmt", 0)
	file := Begin(tr, ScopeFile, "file:a.json", run.ID())
	if file.ID() != 0 {
		t.Fatalf("file span should be disabled at phase level")
	}
	file.WithExtra("lines", "3").End("")
	pass := Begin(tr, ScopePass, "print", run.ID())
	pass.WithExtra("flat_attempts", "2").End("ok")
	run.End("")

	out := buf.String()
	if strings.Contains(out, "file:a.json") {
		t.Fatalf("file scope leaked at phase level:\n%s", out)
	}
	if strings.Count(out, "\n") != 4 {
		t.Fatalf("expected 4 events:\n%s", out)
	}
	if !strings.Contains(out, "← print (ok) {flat_attempts=2}") {
		t.Fatalf("missing end event with extras:\n%s", out)
	}
}

func TestNDJSONFormat(t *testing.T) {
	ev := &Event{
		Time:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Seq:   7,
		Kind:  KindSpanEnd,
		Scope: ScopeFile,
		Name:  "file:a.json",
		Extra: map[string]string{"cache": "hit"},
	}
	var got jsonEvent
	if err := json.Unmarshal(FormatEvent(ev, FormatNDJSON), &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != "end" || got.Scope != "file" || got.Extra["cache"] != "hit" || got.Seq != 7 {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeNode, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Fatalf("snapshot[%d] = %q, want %q", i, snap[i].Name, want)
		}
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "• ") != 3 {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestNewErrorLevelIsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelError, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeFile, "file:x.json", 0).End("")
	if buf.Len() != 0 {
		t.Fatalf("error level must not stream")
	}
	ring, ok := RingOf(tr)
	if !ok || len(ring.Snapshot()) != 2 {
		t.Fatalf("expected ring with two events")
	}
}

func TestNewBothFansOut(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeDriver, "fmt", 0).End("")
	ring, ok := RingOf(tr)
	if !ok || len(ring.Snapshot()) != 2 {
		t.Fatalf("ring missing events")
	}
	if strings.Count(buf.String(), "fmt") != 2 {
		t.Fatalf("stream missing events:\n%s", buf.String())
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
	if d := Begin(tr, ScopeDriver, "x", 0).End(""); d != 0 {
		t.Fatalf("nop span measured %v", d)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should yield Nop")
	}
	r := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	if FromContext(ctx) != Tracer(r) {
		t.Fatalf("tracer not found in context")
	}
	span := Begin(r, ScopeDriver, "fmt", 0)
	ctx = WithSpan(ctx, span)
	if SpanFromContext(ctx) != span.ID() {
		t.Fatalf("span ID not propagated")
	}
}

func TestHeartbeat(t *testing.T) {
	r := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	if len(r.Snapshot()) == 0 {
		t.Fatalf("no heartbeat recorded")
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("disabled tracer should not start a heartbeat")
	}
}

func TestRingDropped(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	if r.Dropped() != 0 {
		t.Fatalf("empty ring dropped %d", r.Dropped())
	}
	for range 5 {
		Point(r, ScopeNode, "x", "", 0)
	}
	if r.Dropped() != 3 || len(r.Snapshot()) != 2 {
		t.Fatalf("Dropped = %d, len = %d", r.Dropped(), len(r.Snapshot()))
	}
}
