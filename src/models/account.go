package models

import (
	"database/sql"
	"time"

	"github.com/username/subtrack/backend/src/database"
)

// Account is a chart-of-accounts entry. Line items reference accounts by id
// from the invoice session store; there is no referential integrity across
// that boundary, so a line item may point at a deleted account and the
// allocation view then shows an unknown account.
type Account struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccountUpdatableFields is the explicit allow-list for partial account updates.
var AccountUpdatableFields = map[string]string{
	"name": "name",
	"code": "code",
}

func (a *Account) Create(db *sql.DB) error {
	a.CreatedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO accounts (user_id, name, code, created_at)
		VALUES (?, ?, ?, ?)`, a.UserID, a.Name, a.Code, a.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func ListAccountsByUser(db *sql.DB, userID int64) ([]Account, error) {
	rows, err := db.Query(`
		SELECT id, user_id, name, code, created_at
		FROM accounts
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Code, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func GetAccountByID(db *sql.DB, userID, id int64) (*Account, error) {
	var a Account
	err := db.QueryRow(`
		SELECT id, user_id, name, code, created_at
		FROM accounts
		WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Code, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func UpdateAccountFields(db *sql.DB, userID, id int64, updates map[string]any) (*Account, error) {
	clause, err := database.BuildUpdateClause(AccountUpdatableFields, updates)
	if err != nil {
		return nil, err
	}

	args := append(clause.Values, id, userID)
	if _, err := db.Exec(`UPDATE accounts SET `+clause.SetClause+` WHERE id = ? AND user_id = ?`, args...); err != nil {
		return nil, err
	}
	return GetAccountByID(db, userID, id)
}

func DeleteAccount(db *sql.DB, userID, id int64) error {
	_, err := db.Exec(`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
