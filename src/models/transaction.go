package models

import (
	"database/sql"
	"time"
)

// Transaction is a recorded payment, optionally linked to the subscription
// and wallet it settled.
type Transaction struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	SubscriptionID *int64    `json:"subscriptionId"`
	WalletID       *int64    `json:"walletId"`
	Description    string    `json:"description"`
	Amount         float64   `json:"amount"`
	Date           string    `json:"date"` // YYYY-MM-DD
	CreatedAt      time.Time `json:"createdAt"`
}

func (t *Transaction) Create(db *sql.DB) error {
	t.CreatedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO transactions (user_id, subscription_id, wallet_id, description, amount, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.SubscriptionID, t.WalletID, t.Description, t.Amount, t.Date, t.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func ListTransactionsByUser(db *sql.DB, userID int64) ([]Transaction, error) {
	rows, err := db.Query(`
		SELECT id, user_id, subscription_id, wallet_id, description, amount, date, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		var t Transaction
		var subscriptionID, walletID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &subscriptionID, &walletID, &t.Description, &t.Amount, &t.Date, &t.CreatedAt); err != nil {
			return nil, err
		}
		if subscriptionID.Valid {
			t.SubscriptionID = &subscriptionID.Int64
		}
		if walletID.Valid {
			t.WalletID = &walletID.Int64
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func DeleteTransaction(db *sql.DB, userID, id int64) error {
	_, err := db.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
