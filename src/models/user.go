package models

import (
	"database/sql"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUser inserts a new user and sets its id.
func (u *User) CreateUser(db *sql.DB) error {
	query := `
	INSERT INTO users (email, password_hash, name, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`

	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	res, err := db.Exec(query, u.Email, u.PasswordHash, u.Name, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetUserByEmail retrieves a user by email.
func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	query := `
	SELECT id, email, password_hash, name, created_at, updated_at
	FROM users
	WHERE email = ?`

	var user User
	err := db.QueryRow(query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether a user with the given email already exists.
func EmailExists(db *sql.DB, email string) (bool, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
