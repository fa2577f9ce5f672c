package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the queue_entries table when it does not exist yet.  The
// schema mirrors the model in internal/model.  Indexes on phone_number and
// status back the dedup lookup and the waiting-list scans.
func Migrate(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS queue_entries (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name             VARCHAR(255) NOT NULL,
		phone_number     VARCHAR(10) NOT NULL,
		number_of_people INT NOT NULL,
		position         INT NOT NULL DEFAULT 0,
		status           ENUM('waiting','called','cancelled','completed') NOT NULL DEFAULT 'waiting',
		created_at       DATETIME NOT NULL,
		called_at        DATETIME NULL,
		visit_count      INT NOT NULL DEFAULT 1,
		PRIMARY KEY (id),
		KEY idx_queue_entries_phone (phone_number),
		KEY idx_queue_entries_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
