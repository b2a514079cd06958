package progress

import (
	"sync"
	"testing"
)

func TestEmitterOrderedEvents(t *testing.T) {
	var got []Event
	em := NewEmitter(func(ev Event) { got = append(got, ev) })

	em.Start()
	em.StageLoading(StageFacts)
	em.StageComplete(StageFacts)
	em.Partial(StageComponents, "breakdown")
	em.Result("final")

	wantTypes := []EventType{EventStart, EventStage, EventStage, EventPartial, EventResult}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(got), len(wantTypes))
	}
	for i, ev := range got {
		if ev.Type != wantTypes[i] {
			t.Fatalf("event %d type = %s, want %s", i, ev.Type, wantTypes[i])
		}
	}
	if got[1].Status != StatusLoading || got[2].Status != StatusComplete {
		t.Fatal("stage statuses out of order")
	}
}

func TestEmitterTerminalClosesStream(t *testing.T) {
	var got []Event
	em := NewEmitter(func(ev Event) { got = append(got, ev) })

	em.Start()
	em.Result("final")
	// 終止後的事件全部丟棄
	em.StageLoading(StageSynthesis)
	em.Error("late error")
	em.Result("second result")

	if len(got) != 2 {
		t.Fatalf("got %d events after terminal, want 2", len(got))
	}
	if got[1].Type != EventResult {
		t.Fatalf("terminal event type = %s", got[1].Type)
	}
}

func TestEmitterErrorTerminal(t *testing.T) {
	var got []Event
	em := NewEmitter(func(ev Event) { got = append(got, ev) })

	em.Error("boom")
	em.Result("after error")

	if len(got) != 1 || got[0].Type != EventError || got[0].Error != "boom" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestNilEmitterNoOp(t *testing.T) {
	var em *Emitter
	// nil emitter 所有方法都不 panic
	em.Start()
	em.StageLoading(StageFacts)
	em.Partial(StageFacts, nil)
	em.Result(nil)
	em.Error("x")

	if NewEmitter(nil) != nil {
		t.Fatal("NewEmitter(nil) should return nil emitter")
	}
}

func TestEmitterConcurrentSafe(t *testing.T) {
	var mu sync.Mutex
	count := 0
	em := NewEmitter(func(ev Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			em.StageLoading(StageFacts)
		}()
	}
	wg.Wait()
	em.Result(nil)

	mu.Lock()
	defer mu.Unlock()
	if count != 9 {
		t.Fatalf("got %d events, want 9", count)
	}
}
