package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const userColumns = `id, email, password_hash, is_active, is_staff, created_at, updated_at`

// UserRepository handles data access for accounts and profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts the user and the profile in one transaction.
// A taken email returns utils.ErrEmailTaken.
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.UserProfile) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertUser = `
            INSERT INTO users (email, password_hash, is_active, is_staff)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRowxContext(ctx, insertUser,
			strings.ToLower(user.Email), user.PasswordHash, user.IsActive, user.IsStaff,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		user.Email = strings.ToLower(user.Email)
		profile.UserID = user.ID

		const insertProfile = `
            INSERT INTO user_profiles (user_id, first_name, last_name, address, country, city, zip_code)
            VALUES (:user_id, :first_name, :last_name, :address, :country, :city, :zip_code)`
		_, err := tx.NamedExecContext(ctx, insertProfile, profile)
		return err
	})
	if database.IsUniqueViolation(err, "") {
		return utils.ErrEmailTaken
	}
	return err
}

// GetByID returns a user or sql.ErrNoRows.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks a user up case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &u, q, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetProfile returns the profile of a user or sql.ErrNoRows.
func (r *UserRepository) GetProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	var p models.UserProfile
	const q = `
        SELECT user_id, first_name, last_name, address, country, city, zip_code
        FROM user_profiles WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &p, q, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile overwrites the stored profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	const q = `
        UPDATE user_profiles
        SET first_name = :first_name, last_name = :last_name, address = :address,
            country = :country, city = :city, zip_code = :zip_code
        WHERE user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, userID, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
