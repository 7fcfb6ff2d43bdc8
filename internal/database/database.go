package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// New opens the SQLite database at dataSourceName. ":memory:" gives a
// private in-memory database.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName
	if dsn != ":memory:" && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers anyway, and an in-memory database only
	// exists on the connection that created it.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		username_lower TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		doc TEXT NOT NULL -- JSON encoded models.User
	);
	CREATE INDEX IF NOT EXISTS users_username_lower ON users (username_lower);

	CREATE TABLE IF NOT EXISTS messages (
		user_id TEXT NOT NULL PRIMARY KEY,
		doc TEXT NOT NULL -- JSON encoded []models.Message, newest first
	);

	CREATE TABLE IF NOT EXISTS link_clicks (
		user_id TEXT NOT NULL PRIMARY KEY,
		clicks INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
