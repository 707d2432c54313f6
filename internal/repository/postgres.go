package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventops/eventops/internal/model"
)

//go:embed schema.sql
var schema string

// querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so the same query methods serve pooled calls and admission transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a Store backed by PostgreSQL via pgx. Admission scopes map
// to transactions that lock the event row with SELECT ... FOR UPDATE, which
// serializes concurrent admissions per event the same way the in-memory
// store's per-event mutex does.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore wraps a pgx connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

// EnsureSchema creates the tables and indexes if they do not exist, including
// the partial unique index enforcing active-reservation uniqueness.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ─── Users ────────────────────────────────────────────────────────────────────

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, role FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, role FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

const eventColumns = `id, title, description, date_time, location, capacity, status`

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, description, date_time, location, capacity, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.Title, ev.Description, ev.DateTime, ev.Location, ev.Capacity, string(ev.Status),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, id string, upd model.EventUpdate) (*model.Event, error) {
	var status *string
	if upd.Status != nil {
		st := string(*upd.Status)
		status = &st
	}
	row := s.db.QueryRow(ctx,
		`UPDATE events SET
		   title       = COALESCE($2, title),
		   description = COALESCE($3, description),
		   date_time   = COALESCE($4, date_time),
		   location    = COALESCE($5, location),
		   capacity    = COALESCE($6, capacity),
		   status      = COALESCE($7, status)
		 WHERE id = $1
		 RETURNING `+eventColumns,
		id, upd.Title, upd.Description, upd.DateTime, upd.Location, upd.Capacity, status,
	)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return ev, nil
}

// DeleteEvent removes the event and cascades to its reservations in one
// transaction. The event row is locked first so the cascade cannot interleave
// with an in-flight admission scope on the same event.
func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM reservations WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("delete reservations: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete event: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	ev, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.Query(ctx, `SELECT `+eventColumns+` FROM events`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.DateTime, &e.Location, &e.Capacity, &e.Status); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.DateTime, &e.Location, &e.Capacity, &e.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ─── Reservations ─────────────────────────────────────────────────────────────

const reservationColumns = `id, event_id, user_id, status, created_at`

func (s *PostgresStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO reservations (id, event_id, user_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.EventID, r.UserID, string(r.Status), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReservationByID(ctx context.Context, id string) (*model.Reservation, error) {
	r, err := scanReservation(s.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	r, err := scanReservation(s.db.QueryRow(ctx,
		`UPDATE reservations SET status = $2 WHERE id = $1 RETURNING `+reservationColumns,
		id, string(status)))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("update reservation status: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations`)
}

func (s *PostgresStore) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE user_id = $1`, userID)
}

func (s *PostgresStore) ListReservationsByEvent(ctx context.Context, eventID string) ([]model.Reservation, error) {
	return s.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE event_id = $1`, eventID)
}

func (s *PostgresStore) CountReservations(ctx context.Context, eventID string, statuses ...model.ReservationStatus) (int, error) {
	set := make([]string, len(statuses))
	for i, st := range statuses {
		set[i] = string(st)
	}
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = ANY($2)`,
		eventID, set,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) FindActiveReservation(ctx context.Context, userID, eventID string) (*model.Reservation, error) {
	r, err := scanReservation(s.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE user_id = $1 AND event_id = $2 AND status <> $3
		 LIMIT 1`,
		userID, eventID, string(model.ReservationCanceled)))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active reservation: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) queryReservations(ctx context.Context, sql string, args ...any) ([]model.Reservation, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.EventID, &r.UserID, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var r model.Reservation
	if err := row.Scan(&r.ID, &r.EventID, &r.UserID, &r.Status, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ─── Admission scope ──────────────────────────────────────────────────────────

// AdmitScope opens a transaction and locks the event row with
// SELECT ... FOR UPDATE. Any concurrent scope on the same event blocks on the
// row lock until this transaction commits or rolls back, so the duplicate
// check, capacity count, and insert inside fn act on committed state.
func (s *PostgresStore) AdmitScope(ctx context.Context, eventID string, fn AdmitFunc) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin admission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	ev, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if err = fn(&PostgresStore{pool: s.pool, db: tx}, ev); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit admission: %w", err)
	}
	return nil
}
