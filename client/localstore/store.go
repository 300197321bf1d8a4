package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	// The sqlite3 driver registers itself with database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Collection identifies a namespaced logical partition of the local store.
// Keys are unique within a collection, never globally.
type Collection string

const (
	// Receipts is the on-device cache of the user's receipt records.
	Receipts Collection = "receipts"
	// UserProfile holds the session record and profile fields.
	UserProfile Collection = "userprofile"
	// Settings holds arbitrary key/value application preferences.
	Settings Collection = "settings"
)

var collections = []Collection{Receipts, UserProfile, Settings}

// schemaVersion identifies the envelope schema records are written with.
// Readers tolerate envelopes written by newer schema versions so that fields
// can be added without breaking round-trips.
const schemaVersion = 1

// record is the schema-versioned envelope every value crosses the store
// boundary in.
type record struct {
	SchemaVersion int             `json:"schemaVersion"`
	Payload       json.RawMessage `json:"payload"`
}

// Store is a durable, typed persistence layer exposing named collections.
// Reads are synchronous once Initialize has completed; every mutating
// operation flushes to durable storage before returning success, so a
// returned success is crash-safe and a returned failure means "state
// unchanged."
type Store interface {
	// Initialize opens the underlying storage and creates all collections. It
	// is idempotent and must complete before any other operation; it returns
	// *ErrStoreUnavailable if the device storage cannot be opened.
	Initialize(ctx context.Context) error
	// Put upserts a record, silently overwriting any existing value for the
	// key. It returns *ErrStoreWrite on I/O failure, in which case the prior
	// value remains intact.
	Put(
		ctx context.Context,
		collection Collection,
		key string,
		valueObj interface{},
	) error
	// Get unmarshals the record stored under the given key into valueObj and
	// reports whether the key was found. A missing key is never an error.
	Get(
		ctx context.Context,
		collection Collection,
		key string,
		valueObj interface{},
	) (bool, error)
	// GetAll returns a point-in-time snapshot of every value in a collection.
	// The snapshot is not live-updating.
	GetAll(ctx context.Context, collection Collection) ([]json.RawMessage, error)
	// Delete removes the record stored under the given key. Deleting an absent
	// key is a successful no-op.
	Delete(ctx context.Context, collection Collection, key string) error
	// ClearAll empties every collection. It is used only on explicit
	// user-initiated data wipe or logout-with-purge.
	ClearAll(ctx context.Context) error
	// Close releases the underlying storage. A closed store can be reopened by
	// constructing a new Store over the same data directory and initializing
	// it.
	Close() error
}

type store struct {
	dataDir     string
	db          *sql.DB
	mu          sync.RWMutex
	initialized bool
}

// NewStore returns an uninitialized Store persisting to the given data
// directory. Initialize must be called before any other operation.
func NewStore(dataDir string) Store {
	return &store{
		dataDir: dataDir,
	}
}

func (s *store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return &ErrStoreUnavailable{
			Reason: errors.Wrapf(
				err,
				"error creating data directory %s",
				s.dataDir,
			).Error(),
		}
	}
	dbPath := filepath.Join(s.dataDir, "kvitto.db")
	// synchronous=FULL so an acknowledged write survives power loss
	db, err := sql.Open(
		"sqlite3",
		dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL",
	)
	if err != nil {
		return &ErrStoreUnavailable{
			Reason: errors.Wrapf(err, "error opening database %s", dbPath).Error(),
		}
	}
	for _, collection := range collections {
		if _, err := db.ExecContext(
			ctx,
			fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %q (
					key TEXT PRIMARY KEY,
					record TEXT NOT NULL,
					updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				collection,
			),
		); err != nil {
			db.Close() // nolint: errcheck
			return &ErrStoreUnavailable{
				Reason: errors.Wrapf(
					err,
					"error creating collection %q",
					collection,
				).Error(),
			}
		}
	}
	s.db = db
	s.initialized = true
	return nil
}

func (s *store) Put(
	ctx context.Context,
	collection Collection,
	key string,
	valueObj interface{},
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return &ErrStoreUnavailable{
			Reason: "the store has not been initialized",
		}
	}
	if err := validCollection(collection); err != nil {
		return err
	}
	payloadBytes, err := json.Marshal(valueObj)
	if err != nil {
		return &ErrStoreWrite{
			Collection: collection,
			Key:        key,
			Reason:     errors.Wrap(err, "error marshaling value").Error(),
		}
	}
	recordBytes, err := json.Marshal(
		record{
			SchemaVersion: schemaVersion,
			Payload:       payloadBytes,
		},
	)
	if err != nil {
		return &ErrStoreWrite{
			Collection: collection,
			Key:        key,
			Reason:     errors.Wrap(err, "error marshaling record").Error(),
		}
	}
	// A single upsert statement is atomic, so readers see either the prior
	// value or the fully-written new one-- never a partial write.
	if _, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %q (key, record, updated) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE
			SET record = excluded.record, updated = excluded.updated`,
			collection,
		),
		key,
		string(recordBytes),
	); err != nil {
		return &ErrStoreWrite{
			Collection: collection,
			Key:        key,
			Reason:     err.Error(),
		}
	}
	return nil
}

func (s *store) Get(
	ctx context.Context,
	collection Collection,
	key string,
	valueObj interface{},
) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return false, &ErrStoreUnavailable{
			Reason: "the store has not been initialized",
		}
	}
	if err := validCollection(collection); err != nil {
		return false, err
	}
	var recordStr string
	err := s.db.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT record FROM %q WHERE key = ?`, collection),
		key,
	).Scan(&recordStr)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		// Read failures after initialization are treated as absent
		log.Println(
			errors.Wrapf(
				err,
				"error reading record %q from collection %q",
				key,
				collection,
			),
		)
		return false, nil
	}
	rec := record{}
	if err := json.Unmarshal([]byte(recordStr), &rec); err != nil {
		log.Println(
			errors.Wrapf(
				err,
				"error decoding record %q from collection %q",
				key,
				collection,
			),
		)
		return false, nil
	}
	if err := json.Unmarshal(rec.Payload, valueObj); err != nil {
		log.Println(
			errors.Wrapf(
				err,
				"error decoding payload of record %q from collection %q",
				key,
				collection,
			),
		)
		return false, nil
	}
	return true, nil
}

func (s *store) GetAll(
	ctx context.Context,
	collection Collection,
) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, &ErrStoreUnavailable{
			Reason: "the store has not been initialized",
		}
	}
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(
		ctx,
		fmt.Sprintf(`SELECT record FROM %q ORDER BY key`, collection),
	)
	if err != nil {
		log.Println(
			errors.Wrapf(err, "error reading collection %q", collection),
		)
		return nil, nil
	}
	defer rows.Close()
	payloads := []json.RawMessage{}
	for rows.Next() {
		var recordStr string
		if err := rows.Scan(&recordStr); err != nil {
			log.Println(
				errors.Wrapf(err, "error scanning collection %q", collection),
			)
			continue
		}
		rec := record{}
		if err := json.Unmarshal([]byte(recordStr), &rec); err != nil {
			log.Println(
				errors.Wrapf(err, "error decoding record in collection %q", collection),
			)
			continue
		}
		payloads = append(payloads, rec.Payload)
	}
	return payloads, nil
}

func (s *store) Delete(
	ctx context.Context,
	collection Collection,
	key string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return &ErrStoreUnavailable{
			Reason: "the store has not been initialized",
		}
	}
	if err := validCollection(collection); err != nil {
		return err
	}
	// Deleting an absent key is deliberately a successful no-op
	if _, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE key = ?`, collection),
		key,
	); err != nil {
		return &ErrStoreWrite{
			Collection: collection,
			Key:        key,
			Reason:     err.Error(),
		}
	}
	return nil
}

func (s *store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return &ErrStoreUnavailable{
			Reason: "the store has not been initialized",
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &ErrStoreWrite{
			Reason: errors.Wrap(err, "error beginning transaction").Error(),
		}
	}
	for _, collection := range collections {
		if _, err := tx.ExecContext(
			ctx,
			fmt.Sprintf(`DELETE FROM %q`, collection),
		); err != nil {
			tx.Rollback() // nolint: errcheck
			return &ErrStoreWrite{
				Collection: collection,
				Reason:     err.Error(),
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return &ErrStoreWrite{
			Reason: errors.Wrap(err, "error committing transaction").Error(),
		}
	}
	return nil
}

func (s *store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	s.initialized = false
	return s.db.Close()
}

func validCollection(collection Collection) error {
	for _, c := range collections {
		if collection == c {
			return nil
		}
	}
	return &ErrStoreUnavailable{
		Reason: fmt.Sprintf("unknown collection %q", collection),
	}
}
