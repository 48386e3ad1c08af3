package models

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/subtrack/backend/src/database"
	_ "modernc.org/sqlite"
)

// Wallets created before holder_name existed must survive the additive
// migration and list cleanly afterwards.
func TestWalletMigrationBackfillsHolderName(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database.InitDB(dsn)
	keepAlive := database.DB
	defer keepAlive.Close()

	_, err := database.DB.Exec(`DROP TABLE wallets`)
	require.NoError(t, err)
	_, err = database.DB.Exec(`
		CREATE TABLE wallets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			balance REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)
	_, err = database.DB.Exec(`
		INSERT INTO wallets (user_id, name, type, balance, created_at)
		VALUES (?, ?, ?, ?, ?)`, 1, "Legacy Bank", "BANK", 500.0, time.Now())
	require.NoError(t, err)

	database.InitDB(dsn)
	defer database.DB.Close()

	wallets, err := ListWalletsByUser(database.DB, 1)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "Legacy Bank", wallets[0].Name)
	assert.Equal(t, "", wallets[0].HolderName)
	assert.Equal(t, "ACTIVE", wallets[0].Status)

	got, err := GetWalletByID(database.DB, 1, wallets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.HolderName)
}

// Databases migrated when holder_name was added as a plain nullable column
// still carry NULL in old rows; scanning must tolerate that.
func TestWalletScanToleratesNullHolderName(t *testing.T) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE wallets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			balance REAL NOT NULL DEFAULT 0,
			holder_name TEXT,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO wallets (user_id, name, type, balance, holder_name, created_at)
		VALUES (?, ?, ?, ?, NULL, ?)`, 7, "Petty Cash", "CASH", 80.0, time.Now())
	require.NoError(t, err)

	wallets, err := ListWalletsByUser(db, 7)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "", wallets[0].HolderName)

	got, err := GetWalletByID(db, 7, wallets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.HolderName)
}
