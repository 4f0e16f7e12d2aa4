package repository

import (
	"context"
	"database/sql"
	"errors"

	"evcharge/backend/libs/db"
	"evcharge/backend/services/sessions-service/internal/models"
)

const activeSessionConstraint = "charge_sessions_one_active_per_user"

var (
	// ErrSessionNotFound indicates a missing session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrActiveSessionExists is returned when the user already has a CHARGING session.
	ErrActiveSessionExists = errors.New("active session exists")
	// ErrSessionNotCharging is returned when a guarded write finds the session no longer CHARGING.
	ErrSessionNotCharging = errors.New("session not charging")
)

const sessionColumns = `id, user_id, station_id, status, start_kwh, target_kwh, charged_kwh,
	charger_capacity, start_time, end_time, duration_min, cost, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StationID,
		&s.Status,
		&s.StartKWh,
		&s.TargetKWh,
		&s.ChargedKWh,
		&s.ChargerCapacity,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMin,
		&s.Cost,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionRepository handles persistence of charging sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateActive inserts a CHARGING session unless the user already has one.
// The per-user advisory lock serializes concurrent starts; the partial unique index is the backstop.
func (r *SessionRepository) CreateActive(ctx context.Context, session *models.Session) (*models.Session, error) {
	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, session.UserID); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM charge_sessions WHERE user_id = $1 AND status = 'CHARGING')`,
			session.UserID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrActiveSessionExists
		}

		const query = `
			INSERT INTO charge_sessions (user_id, station_id, status, start_kwh, target_kwh, charger_capacity, start_time)
			VALUES ($1, $2, 'CHARGING', $3, $4, $5, $6)
			RETURNING id, status, created_at
		`
		return tx.QueryRowContext(ctx, query,
			session.UserID,
			session.StationID,
			session.StartKWh,
			session.TargetKWh,
			session.ChargerCapacity,
			session.StartTime,
		).Scan(&session.ID, &session.Status, &session.CreatedAt)
	})
	if err != nil {
		if db.IsUniqueViolation(err, activeSessionConstraint) {
			return nil, ErrActiveSessionExists
		}
		return nil, err
	}
	return session, nil
}

// GetByID loads a session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM charge_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// ActiveByUser returns the user's CHARGING session.
func (r *SessionRepository) ActiveByUser(ctx context.Context, userID int64) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM charge_sessions WHERE user_id = $1 AND status = 'CHARGING'`, userID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// Complete moves a CHARGING session to COMPLETED in a single guarded update.
func (r *SessionRepository) Complete(ctx context.Context, id int64, c models.Completion) (*models.Session, error) {
	query := `
		UPDATE charge_sessions
		SET status = 'COMPLETED',
		    charged_kwh = $2,
		    cost = $3,
		    end_time = $4,
		    duration_min = $5
		WHERE id = $1 AND status = 'CHARGING'
		RETURNING ` + sessionColumns
	row := r.db.QueryRowContext(ctx, query, id, c.ChargedKWh, c.Cost, c.EndTime, c.DurationMin)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotCharging
	}
	return s, err
}

// DeleteActive removes a CHARGING session.
func (r *SessionRepository) DeleteActive(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM charge_sessions WHERE id = $1 AND status = 'CHARGING'`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotCharging
	}
	return nil
}

// ListByUser returns last N sessions for user.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + sessionColumns + `
		FROM charge_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
