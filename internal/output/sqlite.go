package output

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/avolkov/inventory-harvester/internal/harvest"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SqliteStore mirrors harvested records into a SQLite database, keyed
// by run ID so repeated runs against the same file stay separable.
//
// The go sqlite driver does not allow concurrent writes, so inserts go
// through a single channel-fed writer goroutine; HandleRecord itself is
// safe to call from multiple goroutines.
type SqliteStore struct {
	Database string

	db      *sql.DB
	recChan chan insert
	wg      sync.WaitGroup
	log     *zap.SugaredLogger
}

type insert struct {
	runID string
	rec   harvest.Record
}

func (o *SqliteStore) Init(log *zap.SugaredLogger) error {
	if o.Database == "" {
		return fmt.Errorf("sqlite database file not set")
	}
	o.log = log

	db, err := sql.Open("sqlite3", o.Database)
	if err != nil {
		return fmt.Errorf("opening %s: %w", o.Database, err)
	}
	o.db = db

	createProducts := `CREATE TABLE IF NOT EXISTS products (
		rowid_ integer not null primary key,
		run_id text,
		id text,
		name text,
		price real,
		mass_kg real,
		score real
	);`
	if _, err := db.Exec(createProducts); err != nil {
		return fmt.Errorf("creating products table: %w", err)
	}

	// Buffered channel as the records arrive in per-scroll batches.
	o.recChan = make(chan insert, 64)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		insertProduct := "INSERT INTO products(run_id, id, name, price, mass_kg, score) values(?, ?, ?, ?, ?, ?);"
		for in := range o.recChan {
			_, err := db.Exec(insertProduct, in.runID, in.rec.ID, in.rec.Name, in.rec.Price, in.rec.MassKG, in.rec.Score)
			if err != nil {
				o.log.Errorw("failed to insert product", "id", in.rec.ID, "error", err)
			}
		}
	}()
	return nil
}

func (o *SqliteStore) HandleRecord(runID string, rec harvest.Record) {
	o.recChan <- insert{runID: runID, rec: rec}
}

// Cleanup drains the writer and closes the database. Call after the
// last HandleRecord.
func (o *SqliteStore) Cleanup() {
	close(o.recChan)
	o.wg.Wait()
	if err := o.db.Close(); err != nil {
		o.log.Warnw("closing sqlite database", "error", err)
	}
}
