package models

import (
	"database/sql"
	"time"
)

// Department is a cost center subscriptions can be allocated against.
type Department struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d *Department) Create(db *sql.DB) error {
	d.CreatedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO departments (user_id, name, color, created_at)
		VALUES (?, ?, ?, ?)`, d.UserID, d.Name, d.Color, d.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func ListDepartmentsByUser(db *sql.DB, userID int64) ([]Department, error) {
	rows, err := db.Query(`
		SELECT id, user_id, name, color, created_at
		FROM departments
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Color, &d.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func DeleteDepartment(db *sql.DB, userID, id int64) error {
	_, err := db.Exec(`DELETE FROM departments WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
