package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"StreamVibe/model"
)

// ErrDuplicateUser is returned when a username or email already exists.
var ErrDuplicateUser = errors.New("username or email already exists")

// UserRepository defines the interface for user data operations.
// History reads/writes operate on the whole record: both views are
// loaded and stored together as one logical update.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetHistory(email string) (*model.UserHistory, error)
	UpdateHistory(email string, history *model.UserHistory) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)"
	res, err := r.db.Exec(query, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	return r.getUser("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = ?", id)
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	return r.getUser("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE username = ?", username)
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	return r.getUser("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = ?", email)
}

func (r *mysqlUserRepository) getUser(query string, arg interface{}) (*model.User, error) {
	row := r.db.QueryRow(query, arg)
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetHistory loads both history views for a user. Returns (nil, nil)
// when no user with that email exists.
func (r *mysqlUserRepository) GetHistory(email string) (*model.UserHistory, error) {
	query := "SELECT recently_played, most_played FROM users WHERE email = ?"
	var recentRaw, frequentRaw sql.NullString
	err := r.db.QueryRow(query, email).Scan(&recentRaw, &frequentRaw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan history for %s: %w", email, err)
	}

	history := &model.UserHistory{}
	if recentRaw.Valid && recentRaw.String != "" {
		if err := json.Unmarshal([]byte(recentRaw.String), &history.RecentlyPlayed); err != nil {
			return nil, fmt.Errorf("failed to parse recently_played for %s: %w", email, err)
		}
	}
	if frequentRaw.Valid && frequentRaw.String != "" {
		if err := json.Unmarshal([]byte(frequentRaw.String), &history.MostPlayed); err != nil {
			return nil, fmt.Errorf("failed to parse most_played for %s: %w", email, err)
		}
	}
	return history, nil
}

// UpdateHistory writes both history views back in a single UPDATE.
func (r *mysqlUserRepository) UpdateHistory(email string, history *model.UserHistory) error {
	recentJSON, err := json.Marshal(history.RecentlyPlayed)
	if err != nil {
		return fmt.Errorf("failed to marshal recently_played: %w", err)
	}
	frequentJSON, err := json.Marshal(history.MostPlayed)
	if err != nil {
		return fmt.Errorf("failed to marshal most_played: %w", err)
	}

	query := "UPDATE users SET recently_played = ?, most_played = ? WHERE email = ?"
	if _, err := r.db.Exec(query, recentJSON, frequentJSON, email); err != nil {
		return fmt.Errorf("failed to update history for %s: %w", email, err)
	}
	return nil
}
