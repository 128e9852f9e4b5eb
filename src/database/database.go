package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/polyxpand-rgb/sec-insider/src/logger"
	_ "modernc.org/sqlite"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS companies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	issuer_cik TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	ticker TEXT,
	sector TEXT,
	industry TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS insiders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_cik TEXT UNIQUE,
	name TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	person_type TEXT DEFAULT 'INSIDER',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS insider_transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id INTEGER NOT NULL,
	insider_id INTEGER NOT NULL,
	filing_date TEXT NOT NULL,
	transaction_date TEXT NOT NULL,
	form_type TEXT NOT NULL,
	transaction_code TEXT,
	transaction_type TEXT NOT NULL,
	insider_relationship TEXT,
	security_title TEXT,
	shares_traded TEXT,
	share_price TEXT,
	transaction_value_usd TEXT,
	shares_owned_after TEXT,
	ownership_type TEXT,
	accession_number TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(company_id) REFERENCES companies(id),
	FOREIGN KEY(insider_id) REFERENCES insiders(id),
	UNIQUE(accession_number, insider_id, transaction_date, shares_traded)
);
`

// InitDB opens the SQLite database at the given path, ensures the schema
// exists and returns the handle. The caller owns the handle and is
// responsible for closing it.
func InitDB(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	if logger.L != nil {
		logger.L.Info("Checking database schema", "databasePath", databasePath)
	}
	migrateCompanyTable(db)

	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	}
	return db, nil
}

// migrateCompanyTable adds the sector/industry columns to companies tables
// created before classification data was tracked.
func migrateCompanyTable(db *sql.DB) {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='companies'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			// Table will be created with the full schema, nothing to migrate.
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'companies' table", "error", err)
		}
		return
	}

	rows, err := db.Query("PRAGMA table_info(companies)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'companies'", "error", err)
		}
		return
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
				logger.L.Error("Error scanning column info for 'companies'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'companies'", "error", err)
		}
		return
	}

	for _, column := range []string{"sector", "industry"} {
		if _, ok := columnExists[column]; ok {
			continue
		}
		if _, err := db.Exec("ALTER TABLE companies ADD COLUMN " + column + " TEXT"); err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding column to 'companies' table", "column", column, "error", err)
			}
		} else if logger.L != nil {
			logger.L.Info("Added column to 'companies' table", "column", column)
		}
	}
}

// IsUniqueConstraintErr reports whether err is a SQLite uniqueness violation.
// The modernc driver surfaces these as plain errors, so the constraint text
// is the only reliable signal.
func IsUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
