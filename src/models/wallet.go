package models

import (
	"database/sql"
	"time"

	"github.com/username/subtrack/backend/src/database"
)

// Wallet is a funding source (bank account, card, petty cash) owned by one
// user. Balance is a plain figure in the single configured currency.
type Wallet struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Balance    float64   `json:"balance"`
	HolderName string    `json:"holderName"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WalletUpdatableFields is the explicit allow-list for partial wallet updates:
// JSON field name -> storage column.
var WalletUpdatableFields = map[string]string{
	"name":       "name",
	"type":       "type",
	"balance":    "balance",
	"holderName": "holder_name",
	"status":     "status",
}

func (w *Wallet) Create(db *sql.DB) error {
	query := `
	INSERT INTO wallets (user_id, name, type, balance, holder_name, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	if w.Status == "" {
		w.Status = "ACTIVE"
	}
	w.CreatedAt = time.Now()
	res, err := db.Exec(query, w.UserID, w.Name, w.Type, w.Balance, w.HolderName, w.Status, w.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = id
	return nil
}

func ListWalletsByUser(db *sql.DB, userID int64) ([]Wallet, error) {
	rows, err := db.Query(`
		SELECT id, user_id, name, type, balance, holder_name, status, created_at
		FROM wallets
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := []Wallet{}
	for rows.Next() {
		var w Wallet
		var holderName sql.NullString
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &w.Balance, &holderName, &w.Status, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.HolderName = holderName.String
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func GetWalletByID(db *sql.DB, userID, id int64) (*Wallet, error) {
	var w Wallet
	var holderName sql.NullString
	err := db.QueryRow(`
		SELECT id, user_id, name, type, balance, holder_name, status, created_at
		FROM wallets
		WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &w.Balance, &holderName, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	w.HolderName = holderName.String
	return &w, nil
}

// UpdateWalletFields applies a partial update built from the allow-list. The
// statement is scoped to the owning user; updating someone else's wallet
// affects zero rows.
func UpdateWalletFields(db *sql.DB, userID, id int64, updates map[string]any) (*Wallet, error) {
	clause, err := database.BuildUpdateClause(WalletUpdatableFields, updates)
	if err != nil {
		return nil, err
	}

	args := append(clause.Values, id, userID)
	if _, err := db.Exec(`UPDATE wallets SET `+clause.SetClause+` WHERE id = ? AND user_id = ?`, args...); err != nil {
		return nil, err
	}
	return GetWalletByID(db, userID, id)
}

func DeleteWallet(db *sql.DB, userID, id int64) error {
	_, err := db.Exec(`DELETE FROM wallets WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
