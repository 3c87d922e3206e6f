package repositories

import (
	"errors"
	"time"

	"github.com/mehron-dev/confessio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository defines the interface for conversation session
// state. A session exists only while a user is mid-flow (drafting a
// confession, writing a comment or reply); it is cleared on completion
// or cancellation and swept after inactivity.
type SessionRepository interface {
	Get(userID int64) (*models.Session, error)
	Put(session *models.Session) error
	Clear(userID int64) error
	DeleteInactive(olderThan time.Duration) (int64, error)
}

// PostgresSessionRepository implements SessionRepository for PostgreSQL
type PostgresSessionRepository struct {
	db *gorm.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository
func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Get retrieves the session for a user, or ErrSessionNotFound when the
// user has no flow in progress.
func (r *PostgresSessionRepository) Get(userID int64) (*models.Session, error) {
	var session models.Session
	if err := r.db.First(&session, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storeErr("get session", err)
	}
	return &session, nil
}

// Put inserts or replaces the user's session.
func (r *PostgresSessionRepository) Put(session *models.Session) error {
	session.UpdatedAt = time.Now()
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(session).Error
	if err != nil {
		return storeErr("put session", err)
	}
	return nil
}

// Clear removes the user's session. Clearing an absent session is a no-op.
func (r *PostgresSessionRepository) Clear(userID int64) error {
	if err := r.db.Delete(&models.Session{}, "user_id = ?", userID).Error; err != nil {
		return storeErr("clear session", err)
	}
	return nil
}

// DeleteInactive removes sessions idle for longer than olderThan and
// returns how many were swept.
func (r *PostgresSessionRepository) DeleteInactive(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.Delete(&models.Session{}, "updated_at < ?", cutoff)
	if res.Error != nil {
		return 0, storeErr("sweep sessions", res.Error)
	}
	return res.RowsAffected, nil
}
