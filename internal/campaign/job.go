// Package campaign implements the bulk-send core: the job store, the
// delivery loop, and the controller the HTTP layer drives.
//
// One job exists per sender address at a time. A job moves from preparing to
// processing when its delivery loop starts, and is removed from the store as
// soon as its completion event has been broadcast; no history is retained.
package campaign

import (
	"github.com/google/uuid"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/render"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/roster"
)

// State is a job's lifecycle state.
type State string

const (
	StatePreparing  State = "preparing"
	StateProcessing State = "processing"
)

// Job is one in-flight bulk send for a single sender address.
//
// Recipients is immutable once the job is created. Counters are only written
// by the job's own delivery loop; everyone else reads snapshots through the
// store.
type Job struct {
	ID         uuid.UUID
	Sender     string
	Template   render.Selector
	CustomBody string
	Recipients []roster.Record
	State      State

	Total   int
	Current int
	Success int
	Failed  int

	// credential never leaves this package; it exists only so the delivery
	// loop can construct the sender.
	credential string
}
