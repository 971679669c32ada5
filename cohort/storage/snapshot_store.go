// Package storage persists loaded cohort datasets in SQLite so a catalog can
// be restored without re-querying the endpoint.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/db"
	"github.com/teranos/qntx-cohort/errors"
)

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 20

// Query constants
const (
	SnapshotInsertQuery = `
		INSERT INTO snapshots (id, study, whitelist, loaded_at, records, subjects, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	SubjectInsertQuery = `
		INSERT INTO snapshot_subjects (snapshot_id, subject_id, vectors)
		VALUES (?, ?, ?)`

	ValueInsertQuery = `
		INSERT INTO snapshot_values (snapshot_id, subject_id, position, slot, value)
		VALUES (?, ?, ?, ?, ?)`

	SnapshotSelectQuery = `
		SELECT id, study, whitelist, loaded_at, records, subjects, created_at
		FROM snapshots WHERE id = ?`

	SnapshotListQuery = `
		SELECT id, study, whitelist, loaded_at, records, subjects, created_at
		FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`

	SubjectSelectQuery = `
		SELECT subject_id, vectors FROM snapshot_subjects WHERE snapshot_id = ?`

	ValueSelectQuery = `
		SELECT subject_id, position, slot, value FROM snapshot_values WHERE snapshot_id = ?`
)

// SnapshotInfo is one row of the snapshots table
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Study     string    `json:"study"`
	Whitelist []string  `json:"whitelist"`
	LoadedAt  time.Time `json:"loaded_at"`
	Records   int       `json:"records"`
	Subjects  int       `json:"subjects"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotStore saves and restores cohort snapshots.
// Only populated slots are stored; the per-subject vector count restores the
// nulls.
type SnapshotStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewSnapshotStore creates a store over a migrated database; logger may be nil
func NewSnapshotStore(conn *sql.DB, logger *zap.SugaredLogger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SnapshotStore{db: conn, logger: logger, now: time.Now}
}

// Save writes snap in one transaction and returns its new id
func (s *SnapshotStore) Save(ctx context.Context, snap *cohort.Snapshot) (string, error) {
	if snap == nil {
		return "", errors.NewInvalidRequestError("nil snapshot")
	}
	width := len(snap.Meta.Whitelist)
	for subject, ts := range snap.Dataset {
		for i, v := range ts {
			if len(v) != width {
				return "", errors.NewInvalidRequestError(
					"subject %s vector %d has %d slots, whitelist has %d", subject, i, len(v), width)
			}
		}
	}

	whitelist, err := json.Marshal(nonNil(snap.Meta.Whitelist))
	if err != nil {
		return "", errors.Wrap(err, "marshal whitelist")
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", s.wrap(err, "begin snapshot tx")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, SnapshotInsertQuery,
		id, snap.Meta.Study, string(whitelist), snap.Meta.LoadedAt.UTC(),
		snap.Meta.Records, len(snap.Dataset), s.now().UTC(),
	); err != nil {
		return "", s.wrap(err, "insert snapshot")
	}

	valueStmt, err := tx.PrepareContext(ctx, ValueInsertQuery)
	if err != nil {
		return "", s.wrap(err, "prepare value insert")
	}
	defer valueStmt.Close()

	stored := 0
	for _, subject := range snap.Dataset.SubjectIDs() {
		ts := snap.Dataset[subject]
		if _, err := tx.ExecContext(ctx, SubjectInsertQuery, id, subject, len(ts)); err != nil {
			return "", s.wrap(err, "insert subject "+subject)
		}
		for pos, vec := range ts {
			for slot, v := range vec {
				if !v.Valid {
					continue
				}
				if _, err := valueStmt.ExecContext(ctx, id, subject, pos, slot, v.Value); err != nil {
					return "", s.wrap(err, "insert value for "+subject)
				}
				stored++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", s.wrap(err, "commit snapshot")
	}

	s.logger.Infow("Snapshot saved",
		"snapshot_id", id,
		"study", snap.Meta.Study,
		"subjects", len(snap.Dataset),
		"values", stored,
	)
	return id, nil
}

// Load restores a snapshot; a missing id is ErrNotFound
func (s *SnapshotStore) Load(ctx context.Context, id string) (*cohort.Snapshot, error) {
	info, err := scanInfo(s.db.QueryRowContext(ctx, SnapshotSelectQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("snapshot %q", id)
	}
	if err != nil {
		return nil, s.wrap(err, "read snapshot "+id)
	}

	width := len(info.Whitelist)
	ds := make(cohort.Dataset, info.Subjects)

	rows, err := s.db.QueryContext(ctx, SubjectSelectQuery, id)
	if err != nil {
		return nil, s.wrap(err, "read snapshot subjects")
	}
	for rows.Next() {
		var subject string
		var vectors int
		if err := rows.Scan(&subject, &vectors); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan snapshot subject")
		}
		ts := make(cohort.SubjectTimeSeries, vectors)
		for i := range ts {
			ts[i] = cohort.NewSubjectVector(width)
		}
		ds[subject] = ts
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err, "iterate snapshot subjects")
	}

	rows, err = s.db.QueryContext(ctx, ValueSelectQuery, id)
	if err != nil {
		return nil, s.wrap(err, "read snapshot values")
	}
	defer rows.Close()
	for rows.Next() {
		var subject string
		var pos, slot, value int
		if err := rows.Scan(&subject, &pos, &slot, &value); err != nil {
			return nil, errors.Wrap(err, "scan snapshot value")
		}
		ts, ok := ds[subject]
		if !ok || pos < 0 || pos >= len(ts) || slot < 0 || slot >= width {
			return nil, errors.Newf("snapshot %s: value for %s at (%d,%d) is out of range", id, subject, pos, slot)
		}
		ts[pos][slot] = cohort.Value(value)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err, "iterate snapshot values")
	}

	return &cohort.Snapshot{
		ID: info.ID,
		Meta: cohort.LoadMeta{
			Study:     info.Study,
			Whitelist: info.Whitelist,
			LoadedAt:  info.LoadedAt,
			Records:   info.Records,
		},
		Dataset: ds,
	}, nil
}

// Latest restores the most recently saved snapshot
func (s *SnapshotStore) Latest(ctx context.Context) (*cohort.Snapshot, error) {
	infos, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, errors.NewNotFoundError("no snapshots saved")
	}
	return s.Load(ctx, infos[0].ID)
}

// List returns up to limit snapshots, newest first
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, SnapshotListQuery, limit)
	if err != nil {
		return nil, s.wrap(err, "list snapshots")
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		out = append(out, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err, "iterate snapshots")
	}
	return out, nil
}

// Delete removes a snapshot and its rows; a missing id is ErrNotFound
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "begin delete tx")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// children first: foreign_keys is per connection and may be off on this one
	for _, q := range []string{
		"DELETE FROM snapshot_values WHERE snapshot_id = ?",
		"DELETE FROM snapshot_subjects WHERE snapshot_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return s.wrap(err, "delete snapshot rows")
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return s.wrap(err, "delete snapshot")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrap(err, "delete snapshot")
	}
	if n == 0 {
		return errors.NewNotFoundError("snapshot %q", id)
	}
	if err := tx.Commit(); err != nil {
		return s.wrap(err, "commit delete")
	}

	s.logger.Infow("Snapshot deleted", "snapshot_id", id)
	return nil
}

// wrap adds context and marks closed-database failures
func (s *SnapshotStore) wrap(err error, msg string) error {
	if db.IsDatabaseClosed(err) {
		return errors.Wrap(errors.Mark(err, db.ErrDatabaseClosed), msg)
	}
	return errors.Wrap(err, msg)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInfo(row scanner) (*SnapshotInfo, error) {
	var info SnapshotInfo
	var whitelist string
	if err := row.Scan(&info.ID, &info.Study, &whitelist, &info.LoadedAt,
		&info.Records, &info.Subjects, &info.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(whitelist), &info.Whitelist); err != nil {
		return nil, errors.Wrapf(err, "snapshot %s whitelist", info.ID)
	}
	return &info, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
