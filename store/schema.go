package store

// Schema creates the anchorage tables.
//
// target_revisions holds one row per (annotation, revision). Revision 1 is
// the target captured at interaction time; later revisions are repaired
// locators. Rows are never updated.
const Schema = `
CREATE TABLE IF NOT EXISTS target_revisions (
	annotation_id TEXT NOT NULL,
	revision      INTEGER NOT NULL,
	file_id       TEXT NOT NULL DEFAULT '',
	space         TEXT NOT NULL,
	mode          TEXT NOT NULL,
	target        TEXT NOT NULL,
	strategy      TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	PRIMARY KEY (annotation_id, revision)
);

CREATE INDEX IF NOT EXISTS idx_target_revisions_file
	ON target_revisions(file_id, annotation_id);

CREATE TABLE IF NOT EXISTS resolution_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	annotation_id TEXT NOT NULL,
	revision      INTEGER NOT NULL,
	state         TEXT NOT NULL,
	strategy      TEXT NOT NULL DEFAULT '',
	attempts      INTEGER NOT NULL DEFAULT 0,
	detail        TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolution_events_annotation
	ON resolution_events(annotation_id, id);
`
