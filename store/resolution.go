package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Resolution states recorded in resolution_events.
const (
	StateResolved = "resolved"
	StateBroken   = "broken"
)

// Event is the outcome of one resolution of an annotation.
type Event struct {
	ID           int64  `json:"id"`
	AnnotationID string `json:"annotation_id"`
	Revision     int    `json:"revision"`
	State        string `json:"state"`
	Strategy     string `json:"strategy,omitempty"`
	Attempts     int    `json:"attempts"`
	Detail       string `json:"detail,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// RecordResolution appends e and fills its ID.
func (s *Store) RecordResolution(ctx context.Context, e *Event) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO resolution_events
			(annotation_id, revision, state, strategy, attempts, detail, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		e.AnnotationID, e.Revision, e.State, e.Strategy, e.Attempts, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: record resolution: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// LastResolution returns the most recent event of an annotation, nil if none.
func (s *Store) LastResolution(ctx context.Context, annotationID string) (*Event, error) {
	e := &Event{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, annotation_id, revision, state, strategy, attempts, detail, created_at
		FROM resolution_events
		WHERE annotation_id = ?
		ORDER BY id DESC LIMIT 1`, annotationID).Scan(
		&e.ID, &e.AnnotationID, &e.Revision, &e.State, &e.Strategy, &e.Attempts, &e.Detail, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: last resolution: %w", err)
	}
	return e, nil
}
