package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/domain"
)

// StreamManager fans run events out to server-sent event subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // env ("" = all) -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. logger may be nil.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for events of env, or of every env when env is "".
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(env string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 64)
	if _, ok := sm.subscribers[env]; !ok {
		sm.subscribers[env] = make(map[chan<- string]struct{})
	}
	sm.subscribers[env][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[env]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, env)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of env and to those of every env.
func (sm *StreamManager) Broadcast(env string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{env, ""} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Slow client.
				sm.logger.Warn("SSE: client buffer full, dropping message", "env", env)
			}
		}
		if env == "" {
			break
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, subs := range sm.subscribers {
		n += len(subs)
	}
	return n
}

type runMessage struct {
	*domain.RunEvent
	Error string `json:"error,omitempty"`
}

// Hooks broadcasts run starts and ends. Steps are only broadcast when withSteps is set.
func (sm *StreamManager) Hooks(withSteps bool) domain.LifecycleHooks {
	run := func(ctx context.Context, e *domain.RunEvent) {
		msg := runMessage{RunEvent: e}
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
		sm.publish(e.Env, msg)
	}
	hooks := domain.LifecycleHooks{OnRunStart: run, OnRunEnd: run}
	if withSteps {
		hooks.OnStep = func(ctx context.Context, e *domain.StepEvent) { sm.publish(e.Env, e) }
	}
	return hooks
}

func (sm *StreamManager) publish(env string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "err", err)
		return
	}
	sm.Broadcast(env, string(data))
}

// SubscribeEvents handles GET /events (SSE), optionally filtered by ?env=.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SSE: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	env := r.URL.Query().Get("env")
	ch, cancel := s.Streams.Subscribe(env)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "env", env)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
