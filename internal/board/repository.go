package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines board persistence operations. The abstraction keeps
// the controller independent of storage and enables in-memory fakes in
// tests.
type Repository interface {
	// GetByID retrieves a board definition with its electrodes and links.
	// Returns ErrBoardNotFound if the board does not exist.
	GetByID(ctx context.Context, id string) (*Board, error)

	// List retrieves all board definitions (without electrodes or links).
	List(ctx context.Context) ([]Board, error)

	// Create inserts a board with its electrodes and links.
	// Returns ErrBoardExists if the ID is already taken.
	Create(ctx context.Context, b *Board) error

	// Delete removes a board and its electrodes and links.
	// Returns ErrBoardNotFound if the board does not exist.
	Delete(ctx context.Context, id string) error

	// SetElectrodeEnabled flips a single electrode's enabled flag.
	SetElectrodeEnabled(ctx context.Context, boardID string, channel int, enabled bool) error

	// LoadGraph builds the connectivity graph for a board, excluding
	// disabled electrodes and any links touching them.
	LoadGraph(ctx context.Context, boardID string) (*Graph, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed repository over an open
// connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a board definition with its electrodes and links.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Board, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM boards
		WHERE id = ?`

	var b Board
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
		}
		return nil, fmt.Errorf("querying board %s: %w", id, err)
	}
	b.CreatedAt = parseTimestamp(createdAt)
	b.UpdatedAt = parseTimestamp(updatedAt)

	if b.Electrodes, err = r.loadElectrodes(ctx, id); err != nil {
		return nil, err
	}
	if b.Links, err = r.loadLinks(ctx, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// List retrieves all board definitions without their electrode details.
func (r *SQLiteRepository) List(ctx context.Context) ([]Board, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM boards
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		var createdAt, updatedAt string
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning board: %w", err)
		}
		b.CreatedAt = parseTimestamp(createdAt)
		b.UpdatedAt = parseTimestamp(updatedAt)
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating boards: %w", err)
	}
	return boards, nil
}

// Create inserts a board with its electrodes and links in one transaction.
func (r *SQLiteRepository) Create(ctx context.Context, b *Board) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE id = ?`, b.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking board %s: %w", b.ID, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrBoardExists, b.ID)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO boards (id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, now, now)
	if err != nil {
		return fmt.Errorf("inserting board %s: %w", b.ID, err)
	}

	for _, e := range b.Electrodes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO electrodes (board_id, channel, enabled, area_mm2)
			 VALUES (?, ?, ?, ?)`,
			b.ID, e.Channel, boolToInt(e.Enabled), e.AreaMM2)
		if err != nil {
			return fmt.Errorf("inserting electrode %d: %w", e.Channel, err)
		}
	}
	for _, l := range b.Links {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO electrode_links (board_id, a, b) VALUES (?, ?, ?)`,
			b.ID, l.A, l.B)
		if err != nil {
			return fmt.Errorf("inserting link %d-%d: %w", l.A, l.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing board %s: %w", b.ID, err)
	}
	return nil
}

// Delete removes a board and its electrodes and links.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM electrode_links WHERE board_id = ?`, id); err != nil {
		return fmt.Errorf("deleting links for %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM electrodes WHERE board_id = ?`, id); err != nil {
		return fmt.Errorf("deleting electrodes for %s: %w", id, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting board %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete of %s: %w", id, err)
	}
	return nil
}

// SetElectrodeEnabled flips a single electrode's enabled flag.
func (r *SQLiteRepository) SetElectrodeEnabled(ctx context.Context, boardID string, channel int, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE electrodes SET enabled = ? WHERE board_id = ? AND channel = ?`,
		boolToInt(enabled), boardID, channel)
	if err != nil {
		return fmt.Errorf("updating electrode %d on %s: %w", channel, boardID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of electrode %d: %w", channel, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s channel %d", ErrBoardNotFound, boardID, channel)
	}
	return nil
}

// LoadGraph builds the connectivity graph for a board. Disabled electrodes
// and their links are excluded so route planning never schedules them.
func (r *SQLiteRepository) LoadGraph(ctx context.Context, boardID string) (*Graph, error) {
	board, err := r.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	enabled := make(map[int]bool, len(board.Electrodes))
	graph := NewGraph()
	for _, e := range board.Electrodes {
		if e.Enabled {
			enabled[e.Channel] = true
			graph.AddChannel(e.Channel)
		}
	}
	for _, l := range board.Links {
		if enabled[l.A] && enabled[l.B] {
			graph.AddEdge(l.A, l.B)
		}
	}
	return graph, nil
}

func (r *SQLiteRepository) loadElectrodes(ctx context.Context, boardID string) ([]Electrode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT channel, enabled, area_mm2 FROM electrodes WHERE board_id = ? ORDER BY channel`,
		boardID)
	if err != nil {
		return nil, fmt.Errorf("querying electrodes for %s: %w", boardID, err)
	}
	defer rows.Close()

	var electrodes []Electrode
	for rows.Next() {
		var e Electrode
		var enabled int
		if err := rows.Scan(&e.Channel, &enabled, &e.AreaMM2); err != nil {
			return nil, fmt.Errorf("scanning electrode: %w", err)
		}
		e.Enabled = enabled != 0
		electrodes = append(electrodes, e)
	}
	return electrodes, rows.Err()
}

func (r *SQLiteRepository) loadLinks(ctx context.Context, boardID string) ([]Link, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a, b FROM electrode_links WHERE board_id = ? ORDER BY a, b`,
		boardID)
	if err != nil {
		return nil, fmt.Errorf("querying links for %s: %w", boardID, err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.A, &l.B); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTimestamp parses an RFC3339 timestamp, returning the zero time on
// failure (legacy rows may hold other formats).
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
