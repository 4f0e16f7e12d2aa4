package repository

import (
	"context"
	"database/sql"
	"errors"
)

// User status flags.
const (
	UserStatusIdle     = "IDLE"
	UserStatusCharging = "CHARGING"
)

// ErrUserNotFound indicates a missing user.
var ErrUserNotFound = errors.New("user not found")

// UserRepository updates the user rows owned by the account service.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository builds repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// SetStatus updates the user's charging flag.
func (r *UserRepository) SetStatus(ctx context.Context, userID int64, status string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, userID, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindIDByEmail resolves a token subject to a user id.
func (r *UserRepository) FindIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return id, err
}

// EfficiencyForUser returns the km/kWh of the user's registered vehicle.
// ok is false when the user has no vehicle or the vehicle has no efficiency.
func (r *UserRepository) EfficiencyForUser(ctx context.Context, userID int64) (float64, bool, error) {
	const query = `
		SELECT v.efficiency
		FROM users u
		JOIN vehicles v ON v.id = u.vehicle_id
		WHERE u.id = $1
	`
	var eff sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&eff)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !eff.Valid || eff.Float64 <= 0 {
		return 0, false, nil
	}
	return eff.Float64, true, nil
}
