package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/subtrack/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateWalletTable()
	migrateSubscriptionTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS wallets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance REAL NOT NULL DEFAULT 0,
		holder_name TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS departments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		color TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		code TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		base_amount REAL NOT NULL DEFAULT 0,
		billing_cycle TEXT NOT NULL DEFAULT 'MONTHLY',
		allocation_type TEXT NOT NULL DEFAULT 'SINGLE',
		next_renewal_date TEXT,
		wallet_id INTEGER,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(wallet_id) REFERENCES wallets(id)
	);

	CREATE TABLE IF NOT EXISTS subscription_departments (
		subscription_id INTEGER NOT NULL,
		department_id INTEGER NOT NULL,
		percentage REAL NOT NULL DEFAULT 0,
		PRIMARY KEY(subscription_id, department_id),
		FOREIGN KEY(subscription_id) REFERENCES subscriptions(id),
		FOREIGN KEY(department_id) REFERENCES departments(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		subscription_id INTEGER,
		wallet_id INTEGER,
		description TEXT,
		amount REAL NOT NULL DEFAULT 0,
		date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(subscription_id) REFERENCES subscriptions(id),
		FOREIGN KEY(wallet_id) REFERENCES wallets(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func tableColumns(table string) map[string]bool {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err != sql.ErrNoRows && logger.L != nil {
			logger.L.Error("Error checking for table", "table", table, "error", err)
		}
		return nil
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", table, "error", err)
		}
		return nil
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", table, "error", err)
			}
			return nil
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", table, "error", err)
		}
		return nil
	}
	return columnExists
}

func addColumnIfMissing(table, column, definition string, existing map[string]bool) {
	if existing == nil || existing[column] {
		return
	}
	_, err := DB.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " " + definition)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error adding column", "table", table, "column", column, "error", err)
		} else {
			stdlog.Printf("Error adding column %s.%s: %v", table, column, err)
		}
		return
	}
	if logger.L != nil {
		logger.L.Info("Added column", "table", table, "column", column)
	}
}

// Additive migrations for wallets created before holder_name/status existed.
func migrateWalletTable() {
	columns := tableColumns("wallets")
	if columns == nil {
		return
	}
	addColumnIfMissing("wallets", "holder_name", "TEXT NOT NULL DEFAULT ''", columns)
	addColumnIfMissing("wallets", "status", "TEXT NOT NULL DEFAULT 'ACTIVE'", columns)
}

// Additive migrations for subscriptions created before wallet links and
// department allocation were tracked.
func migrateSubscriptionTable() {
	columns := tableColumns("subscriptions")
	if columns == nil {
		return
	}
	addColumnIfMissing("subscriptions", "wallet_id", "INTEGER", columns)
	addColumnIfMissing("subscriptions", "allocation_type", "TEXT NOT NULL DEFAULT 'SINGLE'", columns)
	addColumnIfMissing("subscriptions", "next_renewal_date", "TEXT", columns)
	addColumnIfMissing("subscriptions", "status", "TEXT NOT NULL DEFAULT 'ACTIVE'", columns)
}
