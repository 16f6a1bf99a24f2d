package queue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue: closed")

// Task is one unit of serialized work.
type Task func(ctx context.Context)

// Serial runs enqueued tasks strictly one at a time, in FIFO order. Logging
// sequences of the shape "insert row, read back its id, insert dependent
// rows" must never interleave, or id attribution corrupts silently; every
// such sequence goes through one Serial.
type Serial struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []pendingTask
	running bool
	closed  bool
	drained chan struct{}

	warnDepth int
	logger    *zap.Logger
}

type pendingTask struct {
	name string
	fn   Task
}

// NewSerial creates the queue and starts its worker goroutine. warnDepth
// <= 0 disables depth warnings.
func NewSerial(warnDepth int, logger *zap.Logger) *Serial {
	s := &Serial{
		warnDepth: warnDepth,
		logger:    logger,
		drained:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.worker()
	return s
}

// Enqueue appends a task. If nothing is running it starts immediately,
// otherwise it waits its turn.
func (s *Serial) Enqueue(name string, fn Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending = append(s.pending, pendingTask{name: name, fn: fn})
	depth := len(s.pending)
	s.cond.Signal()
	s.mu.Unlock()

	if s.warnDepth > 0 && depth >= s.warnDepth {
		s.logger.Warn("serial queue backlog",
			zap.Int("depth", depth),
			zap.String("task", name))
	}
	return nil
}

// Depth returns the number of tasks waiting to run, excluding the one
// currently executing.
func (s *Serial) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Idle reports whether nothing is queued or running.
func (s *Serial) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.running && len(s.pending) == 0
}

// Close stops accepting new tasks, lets the already-queued ones finish,
// and blocks until the queue is drained.
func (s *Serial) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.drained
		return
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	<-s.drained
}

func (s *Serial) worker() {
	ctx := context.Background()
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 && s.closed {
			s.mu.Unlock()
			close(s.drained)
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.running = true
		s.mu.Unlock()

		s.run(ctx, next)

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}
}

func (s *Serial) run(ctx context.Context, t pendingTask) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("serial task panicked",
				zap.String("task", t.name),
				zap.Any("recover", r))
		}
	}()
	t.fn(ctx)
}
