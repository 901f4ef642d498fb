package scheduler

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler runs deferred tasks as fire-and-forget goroutines. There is no
// cancellation: tasks whose subject has moved on must detect that themselves
// when they fire.
type Scheduler struct {
	wg   sync.WaitGroup
	done chan struct{}
	once sync.Once
}

func New() *Scheduler {
	return &Scheduler{done: make(chan struct{})}
}

// ScheduleAfter runs fn once after delay. The name only identifies the task
// in logs. Tasks still pending at Stop time are abandoned.
func (s *Scheduler) ScheduleAfter(delay time.Duration, name string, fn func()) {

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-s.done:
			log.Debugf("scheduled task %v abandoned on shutdown", name)
			return
		}

		defer func() {
			if r := recover(); r != nil {
				log.Errorf("scheduled task %v panicked: %v", name, r)
			}
		}()

		log.Debugf("running scheduled task %v", name)
		fn()
	}()
}

// Stop abandons pending tasks and waits for running ones to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}
