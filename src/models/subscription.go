package models

import (
	"database/sql"
	"time"

	"github.com/username/subtrack/backend/src/database"
)

// Allocation types for splitting a subscription's cost across departments.
const (
	AllocationSingle  = "SINGLE"
	AllocationEqual   = "EQUAL"
	AllocationPercent = "PERCENT"
)

// Billing cycles.
const (
	CycleMonthly   = "MONTHLY"
	CycleQuarterly = "QUARTERLY"
	CycleYearly    = "YEARLY"
)

// DepartmentShare attributes part of a subscription's cost to a department.
// Percentage is only meaningful for PERCENT allocations.
type DepartmentShare struct {
	DepartmentID int64   `json:"departmentId"`
	Percentage   float64 `json:"percentage"`
}

type Subscription struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"-"`
	Name            string            `json:"name"`
	BaseAmount      float64           `json:"baseAmount"`
	BillingCycle    string            `json:"billingCycle"`
	AllocationType  string            `json:"allocationType"`
	NextRenewalDate string            `json:"nextRenewalDate"`
	WalletID        *int64            `json:"walletId"`
	Status          string            `json:"status"`
	Departments     []DepartmentShare `json:"departments"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// SubscriptionUpdatableFields is the explicit allow-list for partial
// subscription updates. Department shares are replaced separately, not
// through the clause builder.
var SubscriptionUpdatableFields = map[string]string{
	"name":            "name",
	"baseAmount":      "base_amount",
	"billingCycle":    "billing_cycle",
	"allocationType":  "allocation_type",
	"nextRenewalDate": "next_renewal_date",
	"walletId":        "wallet_id",
	"status":          "status",
}

// Create inserts the subscription and its department shares in one
// transaction.
func (s *Subscription) Create(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if s.BillingCycle == "" {
		s.BillingCycle = CycleMonthly
	}
	if s.AllocationType == "" {
		s.AllocationType = AllocationSingle
	}
	if s.Status == "" {
		s.Status = "ACTIVE"
	}
	s.CreatedAt = time.Now()

	res, err := tx.Exec(`
		INSERT INTO subscriptions (user_id, name, base_amount, billing_cycle, allocation_type, next_renewal_date, wallet_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.Name, s.BaseAmount, s.BillingCycle, s.AllocationType, s.NextRenewalDate, s.WalletID, s.Status, s.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id

	for _, share := range s.Departments {
		if _, err := tx.Exec(`
			INSERT INTO subscription_departments (subscription_id, department_id, percentage)
			VALUES (?, ?, ?)`, s.ID, share.DepartmentID, share.Percentage); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSubscriptionsByUser returns the user's subscriptions with department
// shares attached.
func ListSubscriptionsByUser(db *sql.DB, userID int64) ([]Subscription, error) {
	rows, err := db.Query(`
		SELECT id, user_id, name, base_amount, billing_cycle, allocation_type, next_renewal_date, wallet_id, status, created_at
		FROM subscriptions
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := []Subscription{}
	for rows.Next() {
		var s Subscription
		var renewal sql.NullString
		var walletID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.BaseAmount, &s.BillingCycle, &s.AllocationType, &renewal, &walletID, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.NextRenewalDate = renewal.String
		if walletID.Valid {
			s.WalletID = &walletID.Int64
		}
		s.Departments = []DepartmentShare{}
		subscriptions = append(subscriptions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range subscriptions {
		shares, err := listDepartmentShares(db, subscriptions[i].ID)
		if err != nil {
			return nil, err
		}
		subscriptions[i].Departments = shares
	}
	return subscriptions, nil
}

func listDepartmentShares(db *sql.DB, subscriptionID int64) ([]DepartmentShare, error) {
	rows, err := db.Query(`
		SELECT department_id, percentage
		FROM subscription_departments
		WHERE subscription_id = ?
		ORDER BY department_id`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := []DepartmentShare{}
	for rows.Next() {
		var share DepartmentShare
		if err := rows.Scan(&share.DepartmentID, &share.Percentage); err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

// UpdateSubscriptionFields applies a partial update via the allow-list. When
// departments is non-nil the share set is replaced wholesale in the same
// transaction.
func UpdateSubscriptionFields(db *sql.DB, userID, id int64, updates map[string]any, departments []DepartmentShare) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(updates) > 0 {
		clause, err := database.BuildUpdateClause(SubscriptionUpdatableFields, updates)
		if err != nil {
			return err
		}
		args := append(clause.Values, id, userID)
		if _, err := tx.Exec(`UPDATE subscriptions SET `+clause.SetClause+` WHERE id = ? AND user_id = ?`, args...); err != nil {
			return err
		}
	} else if departments == nil {
		return database.ErrEmptyUpdate
	}

	if departments != nil {
		if _, err := tx.Exec(`DELETE FROM subscription_departments WHERE subscription_id = ?`, id); err != nil {
			return err
		}
		for _, share := range departments {
			if _, err := tx.Exec(`
				INSERT INTO subscription_departments (subscription_id, department_id, percentage)
				VALUES (?, ?, ?)`, id, share.DepartmentID, share.Percentage); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// DeleteSubscription removes the subscription and its shares.
func DeleteSubscription(db *sql.DB, userID, id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM subscription_departments WHERE subscription_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	return tx.Commit()
}
