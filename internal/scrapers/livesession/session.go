package livesession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gorandom "github.com/mazen160/go-random"
)

var (
	ErrSessionActive  = errors.New("a live session is already active")
	ErrNoSession      = errors.New("no matching live session is active")
	ErrSessionTimeout = errors.New("timed out waiting for the live session to be completed")
)

// Session is one live capture waiting for a human to signal that the page is
// ready. It can be completed exactly once.
type Session struct {
	ID string

	done chan struct{}
	once *sync.Once
}

func newSession(id string) *Session {
	return &Session{
		ID:   id,
		done: make(chan struct{}),
		once: &sync.Once{},
	}
}

func (s *Session) complete() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Done is closed once the session has been completed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Await blocks until the session is completed, ctx is cancelled or timeout
// elapses. A timeout <= 0 waits on ctx alone.
func (s *Session) Await(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrSessionTimeout
		}
		return ctx.Err()
	}
}

// Registry hands out sessions and routes completion signals to them. At most
// one session is outstanding at a time.
type Registry struct {
	mutex   sync.Mutex
	current *Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Begin starts a new session, failing with ErrSessionActive while another one
// has not ended yet.
func (r *Registry) Begin() (*Session, error) {
	id, err := gorandom.String(16)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.current != nil {
		return nil, ErrSessionActive
	}
	r.current = newSession(id)
	return r.current, nil
}

// Complete completes the active session. An empty id matches whichever
// session is active.
func (r *Registry) Complete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.current == nil || (id != "" && id != r.current.ID) {
		return ErrNoSession
	}
	r.current.complete()
	return nil
}

// End releases session so a new one can begin.
func (r *Registry) End(session *Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.current == session {
		r.current = nil
	}
}

// Active returns the id of the outstanding session if there is one.
func (r *Registry) Active() (string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.current == nil {
		return "", false
	}
	return r.current.ID, true
}
