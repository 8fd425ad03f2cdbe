package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/progress"
)

// HandleProgressStream opens a Server-Sent Events stream of progress events
// for one sender. A subscriber joining mid-campaign immediately receives a
// snapshot of the current counters; the stream stays open until the client
// disconnects.
func (s *Server) HandleProgressStream(w http.ResponseWriter, r *http.Request) {
	sender := r.URL.Query().Get("sender")
	if sender == "" {
		writeError(w, http.StatusBadRequest, "sender query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher}
	sub := s.service.Subscribe(sender, sink)
	s.log.Debug().Str("sender", sender).Msg("progress stream opened")

	<-r.Context().Done()

	// Remove the registration first, then invalidate the sink; Close blocks
	// until any in-flight Send has finished writing, so the ResponseWriter is
	// never touched after this handler returns.
	s.service.Unsubscribe(sub)
	sink.Close()
	s.log.Debug().Str("sender", sender).Msg("progress stream closed")
}

// sseSink writes progress events to one SSE connection. Send is called from
// delivery-loop goroutines; the mutex serializes writes and fences Close.
type sseSink struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

var errSinkClosed = errors.New("subscriber connection closed")

func (s *sseSink) Send(ev progress.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
