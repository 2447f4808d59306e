package services

import (
	"sync"
	"testing"
)

func TestTaskLocksSerializePerTask(t *testing.T) {
	locks := newTaskLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("a")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, lost updates", counter)
	}
	if locks.size() != 0 {
		t.Fatalf("locks not released: %d", locks.size())
	}
}

func TestTaskLocksIndependentTasks(t *testing.T) {
	locks := newTaskLocks()
	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	if locks.size() != 1 {
		t.Fatalf("expected only a held, got %d", locks.size())
	}
	unlockA()
}
