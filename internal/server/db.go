package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/twiced-technology-gmbh/protodo/internal/task"
)

// ErrNotFound is returned when a board or task does not exist for the owner.
var ErrNotFound = errors.New("not found")

// BoardRow is a stored board.
type BoardRow struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// TaskRow is a stored task in its wire shape.
type TaskRow struct {
	ID          string            `json:"_id"`
	BoardID     string            `json:"board"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Date        *string           `json:"date"`
	Status      string            `json:"status"`
	Completed   bool              `json:"completed"`
	Pinned      bool              `json:"pinned"`
	Subtasks    []task.Subtask    `json:"subtasks"`
	History     []task.Transition `json:"history"`
}

// TaskPatch carries the fields of an update. Nil fields are left alone.
type TaskPatch struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Date        json.RawMessage    `json:"date"`
	Status      *string            `json:"status"`
	Completed   *bool              `json:"completed"`
	Pinned      *bool              `json:"pinned"`
	Subtasks    *[]task.Subtask    `json:"subtasks"`
	History     *[]task.Transition `json:"history"`
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		seq BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due TEXT,
		status TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		pinned BOOLEAN NOT NULL DEFAULT FALSE,
		subtasks TEXT NOT NULL DEFAULT '[]',
		history TEXT NOT NULL DEFAULT '[]',
		seq BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_board ON tasks(board_id, seq)`,
}

// DB is the sql-backed board and task repository.
type DB struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// OpenDB opens and migrates the database.
func OpenDB(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver == DriverSQLite && !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d := &DB{db: db, driver: driver, now: time.Now}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return d, nil
}

// Close closes the underlying pool.
func (d *DB) Close() error { return d.db.Close() }

// rebind rewrites ? placeholders as $n for postgres.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, d.rebind(query), args...)
}

// ListBoards returns the owner's boards in creation order.
func (d *DB) ListBoards(ctx context.Context, owner string) ([]BoardRow, error) {
	rows, err := d.query(ctx, `SELECT id, name, archived FROM boards WHERE owner = ? ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()
	out := []BoardRow{}
	for rows.Next() {
		var b BoardRow
		if err := rows.Scan(&b.ID, &b.Name, &b.Archived); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBoard inserts a board.
func (d *DB) CreateBoard(ctx context.Context, owner, name string) (BoardRow, error) {
	b := BoardRow{ID: uuid.NewString(), Name: name}
	_, err := d.exec(ctx, `INSERT INTO boards (id, owner, name, archived, seq, created_at)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM boards), ?)`,
		b.ID, owner, b.Name, false, d.now().UTC())
	if err != nil {
		return BoardRow{}, fmt.Errorf("failed to insert board: %w", err)
	}
	return b, nil
}

// GetBoard returns one of the owner's boards.
func (d *DB) GetBoard(ctx context.Context, owner, id string) (BoardRow, error) {
	var b BoardRow
	err := d.queryRow(ctx, `SELECT id, name, archived FROM boards WHERE owner = ? AND id = ?`, owner, id).
		Scan(&b.ID, &b.Name, &b.Archived)
	if errors.Is(err, sql.ErrNoRows) {
		return BoardRow{}, ErrNotFound
	}
	if err != nil {
		return BoardRow{}, fmt.Errorf("failed to query board: %w", err)
	}
	return b, nil
}

// SetArchived flips a board's archived flag.
func (d *DB) SetArchived(ctx context.Context, owner, id string, archived bool) (BoardRow, error) {
	res, err := d.exec(ctx, `UPDATE boards SET archived = ? WHERE owner = ? AND id = ?`, archived, owner, id)
	if err != nil {
		return BoardRow{}, fmt.Errorf("failed to update board: %w", err)
	}
	if err := affected(res); err != nil {
		return BoardRow{}, err
	}
	return d.GetBoard(ctx, owner, id)
}

// DeleteBoard removes a board and its tasks.
func (d *DB) DeleteBoard(ctx context.Context, owner, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM boards WHERE owner = ? AND id = ?`), owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	if err := affected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM tasks WHERE board_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete board tasks: %w", err)
	}
	return tx.Commit()
}

const taskColumns = `t.id, t.board_id, t.title, t.description, t.due, t.status, t.completed, t.pinned, t.subtasks, t.history`

func scanTask(scan func(...any) error) (TaskRow, error) {
	var (
		t                 TaskRow
		due               sql.NullString
		subtasks, history string
	)
	if err := scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &due, &t.Status,
		&t.Completed, &t.Pinned, &subtasks, &history); err != nil {
		return TaskRow{}, err
	}
	if due.Valid && due.String != "" {
		s := due.String
		t.Date = &s
	}
	if err := json.Unmarshal([]byte(subtasks), &t.Subtasks); err != nil {
		return TaskRow{}, fmt.Errorf("failed to decode subtasks of %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(history), &t.History); err != nil {
		return TaskRow{}, fmt.Errorf("failed to decode history of %s: %w", t.ID, err)
	}
	if t.Subtasks == nil {
		t.Subtasks = []task.Subtask{}
	}
	if t.History == nil {
		t.History = []task.Transition{}
	}
	return t, nil
}

// ListTasks returns a board's tasks in insertion order.
func (d *DB) ListTasks(ctx context.Context, owner, boardID string) ([]TaskRow, error) {
	if _, err := d.GetBoard(ctx, owner, boardID); err != nil {
		return nil, err
	}
	rows, err := d.query(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.board_id = ? ORDER BY t.seq`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()
	out := []TaskRow{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTask returns a task on one of the owner's boards.
func (d *DB) GetTask(ctx context.Context, owner, id string) (TaskRow, error) {
	row := d.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks t JOIN boards b ON b.id = t.board_id
		WHERE b.owner = ? AND t.id = ?`, owner, id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return TaskRow{}, ErrNotFound
	}
	if err != nil {
		return TaskRow{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// CreateTask inserts t on its board and returns it with a new ID.
func (d *DB) CreateTask(ctx context.Context, owner string, t TaskRow) (TaskRow, error) {
	if _, err := d.GetBoard(ctx, owner, t.BoardID); err != nil {
		return TaskRow{}, err
	}
	t.ID = uuid.NewString()
	t.Status = task.NormalizeStatus(t.Status)
	if t.Subtasks == nil {
		t.Subtasks = []task.Subtask{}
	}
	if t.History == nil {
		t.History = []task.Transition{}
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return TaskRow{}, fmt.Errorf("failed to encode subtasks: %w", err)
	}
	history, err := json.Marshal(t.History)
	if err != nil {
		return TaskRow{}, fmt.Errorf("failed to encode history: %w", err)
	}
	_, err = d.exec(ctx, `INSERT INTO tasks
		(id, board_id, title, description, due, status, completed, pinned, subtasks, history, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks WHERE board_id = ?), ?)`,
		t.ID, t.BoardID, t.Title, t.Description, nullable(t.Date), t.Status, t.Completed, t.Pinned,
		string(subtasks), string(history), t.BoardID, d.now().UTC())
	if err != nil {
		return TaskRow{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

// UpdateTask applies p to the task and returns the result.
func (d *DB) UpdateTask(ctx context.Context, owner, id string, p TaskPatch) (TaskRow, error) {
	t, err := d.GetTask(ctx, owner, id)
	if err != nil {
		return TaskRow{}, err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if len(p.Date) > 0 {
		var s *string
		if err := json.Unmarshal(p.Date, &s); err != nil {
			return TaskRow{}, fmt.Errorf("date: %w", err)
		}
		if s != nil && *s == "" {
			s = nil
		}
		t.Date = s
	}
	if p.Status != nil {
		t.Status = task.NormalizeStatus(*p.Status)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Pinned != nil {
		t.Pinned = *p.Pinned
	}
	if p.Subtasks != nil {
		t.Subtasks = *p.Subtasks
	}
	if p.History != nil {
		t.History = *p.History
	}
	if err := d.saveTask(ctx, t); err != nil {
		return TaskRow{}, err
	}
	return t, nil
}

func (d *DB) saveTask(ctx context.Context, t TaskRow) error {
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return fmt.Errorf("failed to encode subtasks: %w", err)
	}
	history, err := json.Marshal(t.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	_, err = d.exec(ctx, `UPDATE tasks SET title = ?, description = ?, due = ?, status = ?, completed = ?,
		pinned = ?, subtasks = ?, history = ? WHERE id = ?`,
		t.Title, t.Description, nullable(t.Date), t.Status, t.Completed, t.Pinned,
		string(subtasks), string(history), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// TogglePin flips the pinned flag.
func (d *DB) TogglePin(ctx context.Context, owner, id string) (TaskRow, error) {
	t, err := d.GetTask(ctx, owner, id)
	if err != nil {
		return TaskRow{}, err
	}
	t.Pinned = !t.Pinned
	if err := d.saveTask(ctx, t); err != nil {
		return TaskRow{}, err
	}
	return t, nil
}

// DeleteTask removes a task.
func (d *DB) DeleteTask(ctx context.Context, owner, id string) (TaskRow, error) {
	t, err := d.GetTask(ctx, owner, id)
	if err != nil {
		return TaskRow{}, err
	}
	if _, err := d.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return TaskRow{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return t, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
