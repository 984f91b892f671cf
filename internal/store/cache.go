// Package store provides a SQLite-backed cache for decoded ledger snapshots
// and computed dashboards. It holds derived data only and can be deleted at
// any time.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrMiss is returned when a memoized value is not cached.
var ErrMiss = errors.New("cache miss")

// Cache provides SQLite-backed ledger caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path and migrates
// its schema.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// CachedFile is the decoded content of one tracked snapshot.
type CachedFile struct {
	Ledger      model.Ledger
	ParseErrors int
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM ledger_files")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveLedgerFile replaces the cached content of a snapshot file along with
// its tracking info.
func (c *Cache) SaveLedgerFile(path string, cf CachedFile, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Cascades to the file's transactions and objectives.
	if _, err := tx.Exec("DELETE FROM ledger_files WHERE file_path = ?", path); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT INTO ledger_files (file_path, mtime_ns, size_bytes, parse_errors, parsed_at)
		VALUES (?, ?, ?, ?, ?)`, path, mtimeNs, sizeBytes, cf.ParseErrors, now)
	if err != nil {
		return err
	}

	for i, t := range cf.Ledger.Transactions {
		_, err = tx.Exec(`INSERT INTO transactions
			(file_path, position, tx_id, date, type, category, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			path, i, t.ID, t.Date.String(), string(t.Type), t.Category, t.Amount.String(),
		)
		if err != nil {
			return err
		}
	}

	for i, o := range cf.Ledger.Objectives {
		_, err = tx.Exec(`INSERT INTO objectives
			(file_path, position, objective_id, category, type, limit_amount)
			VALUES (?, ?, ?, ?, ?, ?)`,
			path, i, o.ID, o.Category, string(o.Type), o.Limit.String(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadLedgerFiles reads the cached content of every tracked file, keyed by
// path. Records keep their position within the file.
func (c *Cache) LoadLedgerFiles() (map[string]*CachedFile, error) {
	files := make(map[string]*CachedFile)

	rows, err := c.db.Query("SELECT file_path, parse_errors FROM ledger_files")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var path string
		cf := &CachedFile{}
		if err := rows.Scan(&path, &cf.ParseErrors); err != nil {
			_ = rows.Close()
			return nil, err
		}
		files[path] = cf
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txRows, err := c.db.Query(`SELECT file_path, tx_id, date, type, category, amount
		FROM transactions ORDER BY file_path, position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = txRows.Close() }()

	for txRows.Next() {
		var path, id, typ, category, amount string
		var date sql.NullString
		if err := txRows.Scan(&path, &id, &date, &typ, &category, &amount); err != nil {
			return nil, err
		}
		cf, ok := files[path]
		if !ok {
			continue
		}
		t := model.Transaction{
			ID:       id,
			Type:     model.TxType(typ),
			Category: category,
			Amount:   decimalOrZero(amount),
		}
		if date.Valid {
			t.Date, _ = model.ParseDate(date.String)
		}
		cf.Ledger.Transactions = append(cf.Ledger.Transactions, t)
	}
	if err := txRows.Err(); err != nil {
		return nil, err
	}

	objRows, err := c.db.Query(`SELECT file_path, objective_id, category, type, limit_amount
		FROM objectives ORDER BY file_path, position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = objRows.Close() }()

	for objRows.Next() {
		var path, id, category, typ, limit string
		if err := objRows.Scan(&path, &id, &category, &typ, &limit); err != nil {
			return nil, err
		}
		cf, ok := files[path]
		if !ok {
			continue
		}
		cf.Ledger.Objectives = append(cf.Ledger.Objectives, model.Objective{
			ID:       id,
			Category: category,
			Type:     model.TxType(typ),
			Limit:    decimalOrZero(limit),
		})
	}

	return files, objRows.Err()
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DeleteLedgerFile removes a tracked file and its records.
func (c *Cache) DeleteLedgerFile(path string) error {
	_, err := c.db.Exec("DELETE FROM ledger_files WHERE file_path = ?", path)
	return err
}

// TransactionCount returns the number of cached transactions.
func (c *Cache) TransactionCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

// GetDashboard returns the memoized dashboard for key, or ErrMiss.
func (c *Cache) GetDashboard(key string) (model.Dashboard, error) {
	var payload string
	err := c.db.QueryRow("SELECT payload FROM dashboards WHERE memo_key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dashboard{}, ErrMiss
	}
	if err != nil {
		return model.Dashboard{}, err
	}

	var d model.Dashboard
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return model.Dashboard{}, fmt.Errorf("decoding memoized dashboard: %w", err)
	}
	return d, nil
}

// PutDashboard memoizes a dashboard under key.
func (c *Cache) PutDashboard(key string, d model.Dashboard) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`INSERT OR REPLACE INTO dashboards (memo_key, payload, created_at)
		VALUES (?, ?, ?)`, key, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// PruneDashboards drops memoized dashboards created before cutoff.
func (c *Cache) PruneDashboards(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec("DELETE FROM dashboards WHERE created_at < ?", cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
