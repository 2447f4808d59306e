package realtime

import (
	"sync"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/metrics"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

const DefaultSubscriberBuffer = 64

type subscription struct {
	taskID string // empty means every task
}

// TaskHub fans committed task events out to subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event and is expected
// to resync using the event versions.
type TaskHub struct {
	mu      sync.RWMutex
	subs    map[chan models.TaskEvent]subscription
	buffer  int
	metrics *metrics.Workflow
}

func NewTaskHub(buffer int, m *metrics.Workflow) *TaskHub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &TaskHub{
		subs:    make(map[chan models.TaskEvent]subscription),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscribe returns a channel of events for taskID (or all tasks when empty)
// and a cleanup func that must be called once the caller stops reading.
func (h *TaskHub) Subscribe(taskID string) (<-chan models.TaskEvent, func()) {
	ch := make(chan models.TaskEvent, h.buffer)

	h.mu.Lock()
	h.subs[ch] = subscription{taskID: taskID}
	h.mu.Unlock()
	h.metrics.SubscriberAdded()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
			h.metrics.SubscriberRemoved()
		})
	}
	return ch, cleanup
}

func (h *TaskHub) Publish(ev models.TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, sub := range h.subs {
		if sub.taskID != "" && sub.taskID != ev.TaskID {
			continue
		}
		select {
		case ch <- ev:
		default:
			h.metrics.EventDropped()
		}
	}
}

func (h *TaskHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
