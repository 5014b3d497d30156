package calendar

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/teemow/calendaragent/internal/instrumentation"
	"github.com/teemow/calendaragent/internal/logging"
)

// MemoryPath opens a store that lives only as long as the process.
const MemoryPath = ":memory:"

const eventStatusConfirmed = "confirmed"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		start_unix INTEGER NOT NULL,
		end_unix INTEGER NOT NULL,
		time_zone TEXT NOT NULL DEFAULT 'UTC',
		attendees TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'confirmed',
		created_unix INTEGER NOT NULL,
		updated_unix INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_window ON events(start_unix, end_unix)`,
}

// Store is a Backend persisting events in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// OpenStore opens or creates the SQLite database at path and applies the
// schema. Use MemoryPath for a throwaway store.
func OpenStore(ctx context.Context, path string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	logger.Debug("calendar store opened", "path", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements Backend.
func (s *Store) Name() string {
	return instrumentation.BackendSQLite
}

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	attendees, err := json.Marshal(nonNil(input.Attendees))
	if err != nil {
		return nil, fmt.Errorf("failed to encode attendees: %w", err)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	now := s.now().Unix()
	zone := input.zoneName()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, location, start_unix, end_unix, time_zone, attendees, status, created_unix, updated_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, input.Title, input.Description, input.Location,
		input.Start.Unix(), input.End.Unix(), zone, string(attendees),
		eventStatusConfirmed, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Debug("event created", "event_id", id)
	return s.GetEvent(ctx, id)
}

// ListEvents returns events overlapping the query window ordered by start.
// The query text matches title, description and location case-insensitively.
func (s *Store) ListEvents(ctx context.Context, query ListQuery) ([]Event, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := `SELECT id, title, description, location, start_unix, end_unix, time_zone, attendees, status
		FROM events WHERE end_unix > ? AND start_unix < ?`
	args := []any{query.TimeMin.Unix(), query.TimeMax.Unix()}

	if q := strings.TrimSpace(query.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		stmt += ` AND (lower(title) LIKE ? OR lower(description) LIKE ? OR lower(location) LIKE ?)`
		args = append(args, like, like, like)
	}
	stmt += ` ORDER BY start_unix, id LIMIT ?`
	args = append(args, query.limit())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent loads one event by id.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, location, start_unix, end_unix, time_zone, attendees, status
		 FROM events WHERE id = ?`, eventID)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// MoveEvent moves an event to newStart keeping its duration.
func (s *Store) MoveEvent(ctx context.Context, eventID string, newStart time.Time) (*Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var startUnix, endUnix int64
	err = tx.QueryRowContext(ctx, `SELECT start_unix, end_unix FROM events WHERE id = ?`, eventID).Scan(&startUnix, &endUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	duration := endUnix - startUnix
	newStartUnix := newStart.Unix()
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET start_unix = ?, end_unix = ?, updated_unix = ? WHERE id = ?`,
		newStartUnix, newStartUnix+duration, s.now().Unix(), eventID,
	); err != nil {
		return nil, fmt.Errorf("failed to move event %s: %w", eventID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move of event %s: %w", eventID, err)
	}

	s.logger.Debug("event moved", "event_id", eventID, "new_start", newStart.Format(time.RFC3339))
	return s.GetEvent(ctx, eventID)
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}

	s.logger.Debug("event deleted", "event_id", eventID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var (
		ev                 Event
		startUnix, endUnix int64
		attendees          string
	)
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Location,
		&startUnix, &endUnix, &ev.TimeZone, &attendees, &ev.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("failed to read event: %w", err)
	}

	loc := time.UTC
	if l, err := time.LoadLocation(ev.TimeZone); err == nil {
		loc = l
	}
	ev.Start = time.Unix(startUnix, 0).In(loc)
	ev.End = time.Unix(endUnix, 0).In(loc)

	if err := json.Unmarshal([]byte(attendees), &ev.Attendees); err != nil {
		return Event{}, fmt.Errorf("failed to decode attendees of event %s: %w", ev.ID, err)
	}
	if len(ev.Attendees) == 0 {
		ev.Attendees = nil
	}
	return ev, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
