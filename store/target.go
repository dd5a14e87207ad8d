package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/anchorage/target"
)

// ErrUnknownAnnotation is returned when repairing an annotation that has no
// revision yet.
var ErrUnknownAnnotation = errors.New("store: unknown annotation")

// Revision is one stored version of an annotation's target.
type Revision struct {
	AnnotationID string         `json:"annotation_id"`
	Revision     int            `json:"revision"`
	FileID       string         `json:"file_id"`
	Target       *target.Target `json:"target"`
	// Strategy is the resolver strategy that produced a repaired revision.
	Strategy  string `json:"strategy,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// SaveTarget stores the first revision of an annotation.
func (s *Store) SaveTarget(ctx context.Context, annotationID string, t *target.Target) (*Revision, error) {
	rev := &Revision{AnnotationID: annotationID, Revision: 1, FileID: t.FileID, Target: t}
	if err := s.insertRevision(ctx, s.DB, rev); err != nil {
		return nil, fmt.Errorf("store: save target: %w", err)
	}
	return rev, nil
}

// SaveRepair stores t as the next revision of annotationID.
func (s *Store) SaveRepair(ctx context.Context, annotationID string, t *target.Target, strategy string) (*Revision, error) {
	var rev *Revision
	err := s.RunTx(ctx, func(tx *sql.Tx) error {
		var last int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(revision), 0) FROM target_revisions WHERE annotation_id = ?`,
			annotationID).Scan(&last)
		if err != nil {
			return err
		}
		if last == 0 {
			return ErrUnknownAnnotation
		}
		rev = &Revision{
			AnnotationID: annotationID,
			Revision:     last + 1,
			FileID:       t.FileID,
			Target:       t,
			Strategy:     strategy,
		}
		return s.insertRevision(ctx, tx, rev)
	})
	if err != nil {
		return nil, fmt.Errorf("store: save repair: %w", err)
	}
	return rev, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertRevision(ctx context.Context, db execer, rev *Revision) error {
	data, err := rev.Target.Encode()
	if err != nil {
		return err
	}
	if rev.CreatedAt == 0 {
		rev.CreatedAt = time.Now().UnixMilli()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO target_revisions
			(annotation_id, revision, file_id, space, mode, target, strategy, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		rev.AnnotationID, rev.Revision, rev.FileID, string(rev.Target.Space), string(rev.Target.Mode),
		string(data), rev.Strategy, rev.CreatedAt,
	)
	return err
}

const revisionColumns = `annotation_id, revision, file_id, target, strategy, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (*Revision, error) {
	r := &Revision{}
	var data string
	if err := row.Scan(&r.AnnotationID, &r.Revision, &r.FileID, &data, &r.Strategy, &r.CreatedAt); err != nil {
		return nil, err
	}
	t, err := target.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("annotation %s revision %d: %w", r.AnnotationID, r.Revision, err)
	}
	r.Target = t
	return r, nil
}

// LatestTarget returns the newest revision of an annotation, nil if none.
func (s *Store) LatestTarget(ctx context.Context, annotationID string) (*Revision, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+revisionColumns+`
		FROM target_revisions
		WHERE annotation_id = ?
		ORDER BY revision DESC LIMIT 1`, annotationID)
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest target: %w", err)
	}
	return r, nil
}

// ListByFile returns the newest revision of every annotation of a file,
// oldest annotation first.
func (s *Store) ListByFile(ctx context.Context, fileID string) ([]*Revision, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM target_revisions r
		WHERE r.file_id = ?
		  AND r.revision = (SELECT MAX(revision) FROM target_revisions WHERE annotation_id = r.annotation_id)
		ORDER BY (SELECT created_at FROM target_revisions WHERE annotation_id = r.annotation_id AND revision = 1),
		         r.annotation_id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("store: list by file: %w", err)
	}
	defer rows.Close()
	return collectRevisions(rows)
}

// Revisions returns every revision of an annotation, oldest first.
func (s *Store) Revisions(ctx context.Context, annotationID string) ([]*Revision, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM target_revisions
		WHERE annotation_id = ?
		ORDER BY revision`, annotationID)
	if err != nil {
		return nil, fmt.Errorf("store: revisions: %w", err)
	}
	defer rows.Close()
	return collectRevisions(rows)
}

func collectRevisions(rows *sql.Rows) ([]*Revision, error) {
	var out []*Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
