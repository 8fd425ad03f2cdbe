package campaign

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/metrics"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/progress"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/render"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/roster"
	"github.com/navneetkhandelwal/email-campaign-dashboard/pkg/email"
)

// fakeSender records delivery attempts and can be told to fail for specific
// recipients.
type fakeSender struct {
	mu       sync.Mutex
	attempts []string
	failTo   map[string]error
}

func (s *fakeSender) Send(ctx context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, msg.To)
	if err := s.failTo[msg.To]; err != nil {
		return err
	}
	return nil
}

func (s *fakeSender) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// fakeFactory hands out one fakeSender, or fails construction entirely.
type fakeFactory struct {
	sender email.Sender
	err    error
}

func (f *fakeFactory) NewSender(identity, credential string) (email.Sender, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sender, nil
}

// captureSink accumulates every event published for the test sender.
type captureSink struct {
	mu     sync.Mutex
	events []progress.Event
}

func (s *captureSink) Send(ev progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) all() []progress.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progress.Event(nil), s.events...)
}

func (s *captureSink) progressEvents() []progress.ProgressEvent {
	var out []progress.ProgressEvent
	for _, ev := range s.all() {
		if pe, ok := ev.(progress.ProgressEvent); ok {
			out = append(out, pe)
		}
	}
	return out
}

func (s *captureSink) logs() []progress.LogEvent {
	var out []progress.LogEvent
	for _, ev := range s.all() {
		if le, ok := ev.(progress.LogEvent); ok {
			out = append(out, le)
		}
	}
	return out
}

func (s *captureSink) completions() []progress.CompleteEvent {
	var out []progress.CompleteEvent
	for _, ev := range s.all() {
		if ce, ok := ev.(progress.CompleteEvent); ok {
			out = append(out, ce)
		}
	}
	return out
}

const testSender = "me@example.com"

func record(name, addr, company, role, link string) roster.Record {
	rec := roster.Record{}
	if name != "" {
		rec[roster.FieldName] = name
	}
	if addr != "" {
		rec[roster.FieldEmail] = addr
	}
	if company != "" {
		rec[roster.FieldCompany] = company
	}
	if role != "" {
		rec[roster.FieldRole] = role
	}
	if link != "" {
		rec[roster.FieldLink] = link
	}
	return rec
}

func newRunnerHarness(t *testing.T, factory email.Factory) (*Runner, *Store, *captureSink) {
	t.Helper()
	store := NewStore()
	broker := progress.NewBroker(store, metrics.NewNoopSink(), zerolog.Nop())
	sink := &captureSink{}
	broker.Subscribe(testSender, sink)
	runner := NewRunner(store, broker, factory, metrics.NewNoopSink(), zerolog.Nop(), time.Millisecond)
	return runner, store, sink
}

func startJob(t *testing.T, store *Store, recipients []roster.Record, sel render.Selector, customBody string) {
	t.Helper()
	job := testJob(testSender, 0)
	job.Recipients = recipients
	job.Total = len(recipients)
	job.Template = sel
	job.CustomBody = customBody
	require.NoError(t, store.Create(job))
}

// checkInvariants asserts the progress guarantees: counters always add up,
// never exceed the total, and the current index strictly increases in input
// order.
func checkInvariants(t *testing.T, events []progress.ProgressEvent, total int) {
	t.Helper()
	last := 0
	for i, ev := range events {
		require.Equalf(t, ev.Success+ev.Failed, ev.Current, "event %d: current != success+failed: %+v", i, ev)
		require.LessOrEqualf(t, ev.Current, ev.Total, "event %d: current > total: %+v", i, ev)
		require.Equalf(t, total, ev.Total, "event %d: total changed mid-job: %+v", i, ev)
		require.Greaterf(t, ev.Current, last, "event %d: recipient order regressed: %+v", i, ev)
		last = ev.Current
	}
}

func TestRunner_AllRecipientsDelivered(t *testing.T) {
	sender := &fakeSender{}
	runner, store, sink := newRunnerHarness(t, &fakeFactory{sender: sender})
	startJob(t, store, []roster.Record{
		record("Jane Doe", "jane@example.com", "Acme", "Engineer", ""),
		record("John Smith", "john@example.com", "Globex", "Analyst", ""),
		record("Ada Lovelace", "ada@example.com", "Initech", "Researcher", "https://ada.example"),
	}, render.TemplateDefault, "")

	runner.Run(context.Background(), testSender)

	require.Equal(t, 3, sender.attemptCount())
	require.Equal(t, []string{"jane@example.com", "john@example.com", "ada@example.com"}, sender.attempts)

	events := sink.progressEvents()
	require.Len(t, events, 3)
	checkInvariants(t, events, 3)

	completions := sink.completions()
	require.Len(t, completions, 1)
	require.Equal(t, 3, completions[0].Success)
	require.Equal(t, 0, completions[0].Failed)

	// The completion event must be the last thing published.
	all := sink.all()
	require.Equal(t, "complete", all[len(all)-1].Kind())

	_, ok := store.Get(testSender)
	require.False(t, ok, "job must be removed after completion")
}

func TestRunner_SkipsRecipientMissingRole(t *testing.T) {
	sender := &fakeSender{}
	runner, store, sink := newRunnerHarness(t, &fakeFactory{sender: sender})
	startJob(t, store, []roster.Record{
		record("Jane Doe", "jane@example.com", "Acme", "Engineer", ""),
		record("John Smith", "john@example.com", "Globex", "", ""), // no role
		record("Ada Lovelace", "ada@example.com", "Initech", "Researcher", ""),
	}, render.TemplateDefault, "")

	runner.Run(context.Background(), testSender)

	// The incomplete recipient is never attempted.
	require.Equal(t, 2, sender.attemptCount())
	require.NotContains(t, sender.attempts, "john@example.com")

	completions := sink.completions()
	require.Len(t, completions, 1)
	require.Equal(t, 2, completions[0].Success)
	require.Equal(t, 1, completions[0].Failed)

	var skipLogged bool
	for _, le := range sink.logs() {
		if strings.Contains(le.Message, "Skipping recipient 2") && strings.Contains(le.Message, "role") {
			skipLogged = true
		}
	}
	require.True(t, skipLogged, "skip must be reported through the log stream")

	checkInvariants(t, sink.progressEvents(), 3)
}

func TestRunner_SendFailureDoesNotAbortBatch(t *testing.T) {
	sender := &fakeSender{failTo: map[string]error{
		"john@example.com": errors.New("mailbox unavailable"),
	}}
	runner, store, sink := newRunnerHarness(t, &fakeFactory{sender: sender})
	startJob(t, store, []roster.Record{
		record("Jane Doe", "jane@example.com", "Acme", "Engineer", ""),
		record("John Smith", "john@example.com", "Globex", "Analyst", ""),
		record("Ada Lovelace", "ada@example.com", "Initech", "Researcher", ""),
	}, render.TemplateDefault, "")

	runner.Run(context.Background(), testSender)

	// All three were attempted despite the middle failure.
	require.Equal(t, 3, sender.attemptCount())

	completions := sink.completions()
	require.Len(t, completions, 1)
	require.Equal(t, 2, completions[0].Success)
	require.Equal(t, 1, completions[0].Failed)

	checkInvariants(t, sink.progressEvents(), 3)
}

func TestRunner_SetupFailureFailsWholeBatch(t *testing.T) {
	runner, store, sink := newRunnerHarness(t, &fakeFactory{err: errors.New("invalid credentials")})
	startJob(t, store, []roster.Record{
		record("Jane Doe", "jane@example.com", "Acme", "Engineer", ""),
		record("John Smith", "john@example.com", "Globex", "Analyst", ""),
		record("Ada Lovelace", "ada@example.com", "Initech", "Researcher", ""),
	}, render.TemplateDefault, "")

	runner.Run(context.Background(), testSender)

	// Exactly one log followed by one complete, and nothing else.
	all := sink.all()
	require.Len(t, all, 2)
	require.Equal(t, "log", all[0].Kind())
	require.Equal(t, "complete", all[1].Kind())

	complete := all[1].(progress.CompleteEvent)
	require.Equal(t, 0, complete.Success)
	require.Equal(t, 3, complete.Failed)

	_, ok := store.Get(testSender)
	require.False(t, ok, "job must be removed after setup failure")
}

func TestRunner_RenderFailureCountsAsFailed(t *testing.T) {
	sender := &fakeSender{}
	runner, store, sink := newRunnerHarness(t, &fakeFactory{sender: sender})
	// A custom job with an empty body is rejected at the entry point, but the
	// loop must still contain the error if it slips through.
	startJob(t, store, []roster.Record{
		record("Jane Doe", "jane@example.com", "Acme", "Engineer", ""),
		record("John Smith", "john@example.com", "Globex", "Analyst", ""),
	}, render.TemplateCustom, "")

	runner.Run(context.Background(), testSender)

	require.Equal(t, 0, sender.attemptCount(), "render failures must not reach the sender")

	completions := sink.completions()
	require.Len(t, completions, 1)
	require.Equal(t, 0, completions[0].Success)
	require.Equal(t, 2, completions[0].Failed)

	checkInvariants(t, sink.progressEvents(), 2)
}

func TestRunner_CancelledContextStopsLoop(t *testing.T) {
	sender := &fakeSender{}
	runner, store, sink := newRunnerHarness(t, &fakeFactory{sender: sender})
	startJob(t, store, []roster.Record{
		record("Jane Doe", "jane@example.com", "Acme", "Engineer", ""),
		record("John Smith", "john@example.com", "Globex", "Analyst", ""),
	}, render.TemplateDefault, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner.Run(ctx, testSender)

	require.Equal(t, 0, sender.attemptCount())
	require.Len(t, sink.completions(), 1)

	_, ok := store.Get(testSender)
	require.False(t, ok, "aborted job must still be removed")
}
