package campaign

import (
	"errors"
	"sync"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/progress"
)

// ErrJobActive is returned when a sender tries to start a second job while
// one is still running. Concurrent loops for the same sender would race on
// the counters, so new starts are rejected outright.
var ErrJobActive = errors.New("campaign: a job is already running for this sender")

// Store holds at most one active job per sender address. It is in-memory
// only; jobs do not survive a restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new job. It fails with ErrJobActive when the sender
// already has one, whatever state it is in.
func (s *Store) Create(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Sender]; exists {
		return ErrJobActive
	}
	s.jobs[job.Sender] = job
	return nil
}

// Get returns a copy of the sender's job. The Recipients slice is shared with
// the stored job but is immutable by contract.
func (s *Store) Get(sender string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[sender]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Update applies a mutation to the sender's job, atomically with respect to
// all other store accesses. Unknown senders are ignored.
func (s *Store) Update(sender string, mutate func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[sender]; ok {
		mutate(job)
	}
}

// Remove deletes the sender's job, freeing the slot for the next start.
func (s *Store) Remove(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, sender)
}

// Snapshot implements progress.Snapshots.
func (s *Store) Snapshot(sender string) (progress.ProgressEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[sender]
	if !ok {
		return progress.ProgressEvent{}, false
	}
	return progress.Progress(job.Total, job.Current, job.Success, job.Failed), true
}

// RecordProgress implements progress.Snapshots: published counters are
// written back so replayed snapshots match the event stream.
func (s *Store) RecordProgress(sender string, ev progress.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[sender]; ok {
		job.Current = ev.Current
		job.Success = ev.Success
		job.Failed = ev.Failed
	}
}
