package eventlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StreamEvent is the GORM model backing the event log. The unique index
// on (stream_name, revision) is the conditional-append guard: two
// writers racing for the same revision cannot both commit.
type StreamEvent struct {
	GlobalSeq  int64     `gorm:"primaryKey;autoIncrement"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	StreamName string    `gorm:"size:512;not null;uniqueIndex:idx_stream_revision,priority:1"`
	Revision   int64     `gorm:"not null;uniqueIndex:idx_stream_revision,priority:2"`
	Category   string    `gorm:"size:128;not null;index"`
	EventType  string    `gorm:"size:255;not null"`
	Data       []byte    `gorm:"type:jsonb;not null"`
	Metadata   []byte    `gorm:"type:jsonb"`
	Published  bool      `gorm:"not null;default:false;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for StreamEvent
func (StreamEvent) TableName() string {
	return "stream_events"
}

const uuidStringLen = 36

// streamCategory extracts the aggregate type segment from a stream name.
// Stream names end with "-{aggregateId}" and may carry a
// "tenant-{tenantId}-" prefix; both IDs are fixed-width UUID strings.
func streamCategory(stream string) string {
	s := stream
	if strings.HasPrefix(s, "tenant-") && len(s) > len("tenant-")+uuidStringLen+1 {
		s = s[len("tenant-")+uuidStringLen+1:]
	}
	if len(s) > uuidStringLen+1 {
		s = s[:len(s)-uuidStringLen-1]
	}
	return s
}

// GormClient implements Client on a relational database via GORM
type GormClient struct {
	db           *gorm.DB
	pollInterval time.Duration
}

// NewGormClient creates a new GORM-backed event log client
func NewGormClient(db *gorm.DB) *GormClient {
	return &GormClient{
		db:           db,
		pollInterval: 200 * time.Millisecond,
	}
}

// Migrate creates the stream_events table
func (c *GormClient) Migrate() error {
	return c.db.AutoMigrate(&StreamEvent{})
}

// Append atomically appends events to a stream with an optimistic
// concurrency check against the expected revision
func (c *GormClient) Append(ctx context.Context, stream string, expected ExpectedRevision, events ...ProposedEvent) (int64, error) {
	if len(events) == 0 {
		return c.StreamRevision(ctx, stream)
	}

	var last int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := currentRevision(tx, stream)
		if err != nil {
			return err
		}

		switch {
		case expected == RevisionAny:
		case expected == RevisionNoStream:
			if current != -1 {
				return &RevisionConflictError{Stream: stream, Expected: expected, Actual: current}
			}
		default:
			if current != int64(expected) {
				return &RevisionConflictError{Stream: stream, Expected: expected, Actual: current}
			}
		}

		category := streamCategory(stream)
		now := time.Now().UTC()
		rows := make([]*StreamEvent, len(events))
		for i, e := range events {
			eventID := e.EventID
			if eventID == uuid.Nil {
				eventID = uuid.New()
			}
			rows[i] = &StreamEvent{
				EventID:    eventID,
				StreamName: stream,
				Revision:   current + int64(i) + 1,
				Category:   category,
				EventType:  e.EventType,
				Data:       e.Data,
				Metadata:   e.Metadata,
				CreatedAt:  now,
			}
		}

		if err := tx.Create(rows).Error; err != nil {
			return err
		}
		last = current + int64(len(events))
		return nil
	})
	if err != nil {
		// A concurrent writer can slip between the revision read and
		// the insert; the unique index turns that race into a
		// duplicated-key error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			actual, revErr := c.StreamRevision(ctx, stream)
			if revErr != nil {
				actual = -1
			}
			return 0, &RevisionConflictError{Stream: stream, Expected: expected, Actual: actual}
		}
		return 0, err
	}
	return last, nil
}

// ReadForward reads a stream's events in revision order starting at from
func (c *GormClient) ReadForward(ctx context.Context, stream string, from int64, limit int) ([]RecordedEvent, error) {
	query := c.db.WithContext(ctx).
		Where("stream_name = ? AND revision >= ?", stream, from).
		Order("revision ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []StreamEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if _, err := c.StreamRevision(ctx, stream); err != nil {
			return nil, err
		}
		return []RecordedEvent{}, nil
	}

	events := make([]RecordedEvent, len(rows))
	for i, row := range rows {
		events[i] = recordedFromRow(row)
	}
	return events, nil
}

// ReadLastEvent returns the most recent event of a stream
func (c *GormClient) ReadLastEvent(ctx context.Context, stream string) (*RecordedEvent, error) {
	var row StreamEvent
	err := c.db.WithContext(ctx).
		Where("stream_name = ?", stream).
		Order("revision DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStreamNotFound
		}
		return nil, err
	}
	event := recordedFromRow(row)
	return &event, nil
}

// StreamRevision returns the last revision of a stream
func (c *GormClient) StreamRevision(ctx context.Context, stream string) (int64, error) {
	revision, err := currentRevision(c.db.WithContext(ctx), stream)
	if err != nil {
		return 0, err
	}
	if revision == -1 {
		return 0, ErrStreamNotFound
	}
	return revision, nil
}

// SubscribeLive polls for events appended after the given revision and
// delivers them in order until ctx is cancelled
func (c *GormClient) SubscribeLive(ctx context.Context, stream string, after int64) (<-chan RecordedEvent, error) {
	out := make(chan RecordedEvent)

	go func() {
		defer close(out)
		next := after + 1
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				events, err := c.ReadForward(ctx, stream, next, 0)
				if err != nil {
					if errors.Is(err, ErrStreamNotFound) {
						continue
					}
					return
				}
				for _, event := range events {
					select {
					case <-ctx.Done():
						return
					case out <- event:
						next = event.Revision + 1
					}
				}
			}
		}
	}()

	return out, nil
}

// currentRevision returns the last revision of a stream, or -1 when the
// stream has no events
func currentRevision(db *gorm.DB, stream string) (int64, error) {
	var row StreamEvent
	err := db.
		Where("stream_name = ?", stream).
		Order("revision DESC").
		Select("revision").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return -1, nil
		}
		return 0, err
	}
	return row.Revision, nil
}

func recordedFromRow(row StreamEvent) RecordedEvent {
	return RecordedEvent{
		EventID:   row.EventID,
		EventType: row.EventType,
		Stream:    row.StreamName,
		Revision:  row.Revision,
		GlobalSeq: row.GlobalSeq,
		Data:      row.Data,
		Metadata:  row.Metadata,
		CreatedAt: row.CreatedAt,
	}
}

// Ensure GormClient implements Client
var _ Client = (*GormClient)(nil)
