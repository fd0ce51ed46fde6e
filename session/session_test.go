package session

import (
	"sync"
	"testing"

	"github.com/hupe1980/agenttree/core"
)

func TestTranscript_AppendCopyClear(t *testing.T) {
	tr := NewTranscript()
	if !tr.Empty() {
		t.Fatalf("expected empty transcript")
	}
	prompts := []string{"1. build it"}
	tr.Append(Exchange{Prompts: prompts, Response: "WAIT", Result: "ok"})
	prompts[0] = "mutated"

	got := tr.Exchanges()
	if len(got) != 1 || got[0].Prompts[0] != "1. build it" {
		t.Fatalf("expected isolated copy, got %#v", got)
	}
	tr.Clear()
	if tr.Len() != 0 {
		t.Fatalf("expected cleared transcript")
	}
}

func TestEventLog_ConcurrentAppend(t *testing.T) {
	log := NewEventLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.AppendEvent(core.NewEvent("r1", core.EventDirective, "src"))
		}()
	}
	wg.Wait()
	if n := len(log.Events("r1")); n != 50 {
		t.Fatalf("expected 50 events, got %d", n)
	}
	log.AppendEvent(core.NewEvent("r1", core.EventFinished, "src"))
	fin := log.Filter("r1", func(ev core.Event) bool { return ev.Type == core.EventFinished })
	if len(fin) != 1 {
		t.Fatalf("expected 1 finished event, got %d", len(fin))
	}
	log.Delete("r1")
	if len(log.Runs()) != 0 {
		t.Fatalf("expected no runs after delete")
	}
}
