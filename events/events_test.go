package events

import (
	"sync"
	"testing"

	"github.com/pthm-cable/orbs/components"
)

func TestTopicDeliversInOrder(t *testing.T) {
	var topic Topic[TargetDestroyed]
	var got []string

	topic.Subscribe(func(ev TargetDestroyed) { got = append(got, "a") })
	topic.Subscribe(func(ev TargetDestroyed) { got = append(got, "b") })

	topic.Publish(TargetDestroyed{TargetID: 3})

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("delivery order = %v, want [a b]", got)
	}
}

func TestTopicUnsubscribe(t *testing.T) {
	var topic Topic[GenerationComplete]
	calls := 0
	unsub := topic.Subscribe(func(GenerationComplete) { calls++ })
	topic.Subscribe(func(GenerationComplete) { calls += 10 })

	topic.Publish(GenerationComplete{})
	unsub()
	topic.Publish(GenerationComplete{})

	if calls != 21 {
		t.Errorf("calls = %d, want 21", calls)
	}
	if topic.Len() != 1 {
		t.Errorf("Len() = %d, want 1", topic.Len())
	}
}

func TestTopicUnsubscribeReleasesSlots(t *testing.T) {
	var topic Topic[TargetDestroyed]
	calls := 0
	topic.Subscribe(func(TargetDestroyed) { calls++ })
	for i := 0; i < 1000; i++ {
		unsub := topic.Subscribe(func(TargetDestroyed) { calls += 100 })
		unsub()
		unsub()
	}

	if n := len(topic.subs); n != 1 {
		t.Errorf("subscriber list holds %d entries, want 1", n)
	}
	topic.Publish(TargetDestroyed{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTopicPayload(t *testing.T) {
	var topic Topic[GenerationComplete]
	var got GenerationComplete
	topic.Subscribe(func(ev GenerationComplete) { got = ev })

	want := GenerationComplete{Generation: 4, Best: 120, Mean: 30, HighScore: 150}
	topic.Publish(want)
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	var topic Topic[TargetDestroyed]
	topic.Publish(TargetDestroyed{}) // must not panic
}

func TestSpawnQueue(t *testing.T) {
	bus := NewBus(2)

	if !bus.RequestSpawn(SpawnRequested{Kind: components.KindTarget}) {
		t.Fatal("first request rejected")
	}
	if !bus.RequestSpawn(SpawnRequested{Kind: components.KindOrb, X: 5, Y: 6, HasPosition: true}) {
		t.Fatal("second request rejected")
	}
	if bus.RequestSpawn(SpawnRequested{Kind: components.KindOrb}) {
		t.Error("request accepted past capacity")
	}
	if bus.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", bus.Pending())
	}

	reqs := bus.DrainSpawns(nil)
	if len(reqs) != 2 {
		t.Fatalf("drained %d requests, want 2", len(reqs))
	}
	if reqs[0].Kind != components.KindTarget || reqs[1].Kind != components.KindOrb {
		t.Errorf("drain order = %v, %v", reqs[0].Kind, reqs[1].Kind)
	}
	if len(bus.DrainSpawns(nil)) != 0 {
		t.Error("queue not empty after drain")
	}
}

func TestSpawnQueueConcurrent(t *testing.T) {
	bus := NewBus(100)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				bus.RequestSpawn(SpawnRequested{Kind: components.KindTarget})
			}
		}()
	}
	wg.Wait()

	if n := len(bus.DrainSpawns(nil)); n != 100 {
		t.Errorf("drained %d, want 100", n)
	}
}
