package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ledgerSchema keys a delivery on where it went and what it contained, so the
// same folder can feed several servers or gyms independently.
const ledgerSchema = `CREATE TABLE IF NOT EXISTS deliveries (
	target  TEXT NOT NULL,
	name    TEXT NOT NULL,
	hash    TEXT NOT NULL,
	size    INTEGER NOT NULL,
	sent_at TEXT NOT NULL,
	PRIMARY KEY (target, name, hash)
)`

// Ledger remembers which file contents were delivered to which target.
type Ledger struct {
	db *sql.DB
}

// Delivery is one file accepted by a server.
type Delivery struct {
	Name string
	Hash string
	Size int64
}

// OpenLedger opens or creates dir/push.db.
func OpenLedger(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "push.db"))
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger table: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Delivered reports whether name with this content already reached target.
func (l *Ledger) Delivered(ctx context.Context, target, name, hash string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE target = ? AND name = ? AND hash = ?`,
		target, name, hash,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", name, err)
	}
	return n > 0, nil
}

// Record stores a whole accepted batch in one transaction.
func (l *Ledger) Record(ctx context.Context, target string, batch []Delivery, at time.Time) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ledger tx: %w", err)
	}
	defer tx.Rollback()

	stamp := at.UTC().Format(time.RFC3339)
	for _, d := range batch {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO deliveries (target, name, hash, size, sent_at) VALUES (?, ?, ?, ?, ?)`,
			target, d.Name, d.Hash, d.Size, stamp,
		); err != nil {
			return fmt.Errorf("recording %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Hash is the hex SHA-256 of a file's contents.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Target names a delivery destination: the server plus the gym hint, since
// the same file uploaded under another gym parses differently.
func Target(serverURL, gym string) string {
	if gym == "" {
		return serverURL
	}
	return serverURL + "#" + gym
}
