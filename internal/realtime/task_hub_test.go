package realtime

import (
	"testing"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

func TestTaskHub_FiltersByTask(t *testing.T) {
	hub := NewTaskHub(4, nil)
	all, cleanupAll := hub.Subscribe("")
	defer cleanupAll()
	one, cleanupOne := hub.Subscribe("t1")
	defer cleanupOne()

	hub.Publish(models.TaskEvent{Type: models.EventTaskAccepted, TaskID: "t1", Version: 2})
	hub.Publish(models.TaskEvent{Type: models.EventTaskAccepted, TaskID: "t2", Version: 2})

	if got := len(all); got != 2 {
		t.Fatalf("all-tasks subscriber got %d events, want 2", got)
	}
	if got := len(one); got != 1 {
		t.Fatalf("t1 subscriber got %d events, want 1", got)
	}
	if ev := <-one; ev.TaskID != "t1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestTaskHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewTaskHub(1, nil)
	ch, cleanup := hub.Subscribe("")
	defer cleanup()

	for v := int64(1); v <= 5; v++ {
		hub.Publish(models.TaskEvent{TaskID: "t1", Version: v})
	}
	ev := <-ch
	if ev.Version != 1 {
		t.Fatalf("expected the first buffered event, got version %d", ev.Version)
	}
}

func TestTaskHub_Cleanup(t *testing.T) {
	hub := NewTaskHub(1, nil)
	ch, cleanup := hub.Subscribe("t1")
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	cleanup()
	cleanup()
	if hub.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers after cleanup")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	hub.Publish(models.TaskEvent{TaskID: "t1"})
}
