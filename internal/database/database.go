package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; funneling everything through one
	// connection keeps the conditional updates serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		wallet_address TEXT UNIQUE,
		email TEXT,
		role TEXT NOT NULL,
		name TEXT,
		nonce TEXT,
		skills_json TEXT,
		bio TEXT,
		resume_ipfs_hash TEXT,
		profile_image TEXT,
		social_links_json TEXT,
		preferences_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		reward REAL NOT NULL,
		reward_token TEXT NOT NULL DEFAULT 'USDT',
		employer_id TEXT NOT NULL REFERENCES users(id),
		deadline DATETIME,
		status TEXT NOT NULL DEFAULT 'Open',
		winner_id TEXT REFERENCES users(id),
		contract_task_id INTEGER,
		tx_hash TEXT,
		award_tx_hash TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_employer ON tasks(employer_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS task_bids (
		task_id TEXT NOT NULL REFERENCES tasks(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		proposal TEXT,
		bid_amount REAL,
		bid_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(task_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS task_deliverables (
		task_id TEXT NOT NULL REFERENCES tasks(id),
		title TEXT NOT NULL,
		description TEXT,
		file_url TEXT,
		tx_hash TEXT,
		submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		skills_json TEXT,
		salary TEXT,
		remote INTEGER NOT NULL DEFAULT 0,
		location TEXT,
		employer_id TEXT NOT NULL REFERENCES users(id),
		company_name TEXT,
		company_logo TEXT,
		employment_type TEXT NOT NULL DEFAULT 'Full-time',
		status TEXT NOT NULL DEFAULT 'Open',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_employer ON jobs(employer_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

	CREATE TABLE IF NOT EXISTS job_applicants (
		job_id TEXT NOT NULL REFERENCES jobs(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(job_id, user_id)
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
