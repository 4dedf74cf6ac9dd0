package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExpectedRevision expresses the append precondition for a stream.
// Non-negative values assert the exact current revision of the stream.
type ExpectedRevision int64

// Append preconditions
const (
	// RevisionAny appends unconditionally
	RevisionAny ExpectedRevision = -2
	// RevisionNoStream asserts the stream does not exist yet
	RevisionNoStream ExpectedRevision = -1
)

// Exact asserts the stream's current last revision
func Exact(revision int64) ExpectedRevision {
	return ExpectedRevision(revision)
}

// String renders the precondition for error messages and logs
func (r ExpectedRevision) String() string {
	switch r {
	case RevisionAny:
		return "any"
	case RevisionNoStream:
		return "no-stream"
	default:
		return fmt.Sprintf("%d", int64(r))
	}
}

// ErrStreamNotFound is returned when reading a stream that has no events
var ErrStreamNotFound = errors.New("stream not found")

// RevisionConflictError is returned when an append precondition fails
// because another writer modified the stream first
type RevisionConflictError struct {
	Stream   string
	Expected ExpectedRevision
	Actual   int64
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("revision conflict on stream %s: expected %s, actual %d", e.Stream, e.Expected, e.Actual)
}

// ProposedEvent is an event to be appended to a stream
type ProposedEvent struct {
	EventID   uuid.UUID
	EventType string
	Data      []byte
	Metadata  []byte
}

// RecordedEvent is an event read back from the log
type RecordedEvent struct {
	EventID   uuid.UUID
	EventType string
	Stream    string
	Revision  int64
	GlobalSeq int64
	Data      []byte
	Metadata  []byte
	CreatedAt time.Time
}

// Client is the durable append-only event log. Streams are identified by
// name, revisions are zero-based and contiguous within a stream.
type Client interface {
	// Append atomically appends events to a stream, honoring the
	// expected revision precondition. Returns the stream's new last
	// revision. A failed precondition returns *RevisionConflictError.
	Append(ctx context.Context, stream string, expected ExpectedRevision, events ...ProposedEvent) (int64, error)

	// ReadForward reads events of a stream in revision order starting
	// at from (inclusive). limit <= 0 means no limit. Returns
	// ErrStreamNotFound when the stream has no events at all.
	ReadForward(ctx context.Context, stream string, from int64, limit int) ([]RecordedEvent, error)

	// ReadLastEvent returns the most recent event of a stream, or
	// ErrStreamNotFound.
	ReadLastEvent(ctx context.Context, stream string) (*RecordedEvent, error)

	// StreamRevision returns the last revision of a stream, or
	// ErrStreamNotFound.
	StreamRevision(ctx context.Context, stream string) (int64, error)

	// SubscribeLive delivers events appended to a stream after the
	// given revision as they are committed. The channel closes when
	// ctx is cancelled.
	SubscribeLive(ctx context.Context, stream string, after int64) (<-chan RecordedEvent, error)
}
