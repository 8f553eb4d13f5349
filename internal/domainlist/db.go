package domainlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// permFile is the permission of the database file.
const permFile = 0o600

// DBConfig is the configuration structure for [DB].
type DBConfig struct {
	// Logger is used for logging the operation of the database.  It must not
	// be nil.
	Logger *slog.Logger

	// Clock is used to get the time of adding entries.  It must not be nil.
	Clock timeutil.Clock

	// Path is the path to the database file.  It must not be empty.
	Path string
}

// DB is the bbolt implementation of [Store].  Every category is a bucket
// keyed by the entries.
type DB struct {
	db     *bbolt.DB
	logger *slog.Logger
	clock  timeutil.Clock
}

// dbEntry is the value stored for every entry.
type dbEntry struct {
	// ID is the UUIDv7 identifier of the entry.
	ID uuid.UUID `json:"id"`

	// Added is the UNIX time of adding the entry, in seconds.
	Added int64 `json:"added"`
}

// errStop stops the iteration over a bucket.
const errStop errors.Error = "stop"

// OpenDB opens the database and prepares the buckets.  conf must not be nil.
func OpenDB(ctx context.Context, conf *DBConfig) (d *DB, err error) {
	db, err := bbolt.Open(conf.Path, permFile, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		if errors.Is(err, berrors.ErrInvalid) {
			const s = "The lists database cannot be opened due to an incompatible file system."
			slogutil.PrintLines(ctx, conf.Logger, slog.LevelError, "", s)
		}

		return nil, fmt.Errorf("opening db %q: %w", conf.Path, err)
	}

	d = &DB{
		db:     db,
		logger: conf.Logger,
		clock:  conf.Clock,
	}

	err = d.createBuckets()
	if err != nil {
		return nil, errors.WithDeferred(err, db.Close())
	}

	return d, nil
}

// createBuckets creates the buckets of all categories.
func (d *DB) createBuckets() (err error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	needRollback := true
	defer func() {
		if needRollback {
			err = errors.WithDeferred(err, tx.Rollback())
		}
	}()

	for cat := range categoryCount {
		_, err = tx.CreateBucketIfNotExists([]byte(cat.String()))
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", cat, err)
		}
	}

	needRollback = false
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Close closes the database.
func (d *DB) Close() (err error) {
	return d.db.Close()
}

// type check
var _ Store = (*DB)(nil)

// Range implements the [Store] interface for *DB.
func (d *DB) Range(
	_ context.Context,
	cat Category,
	fn func(entry string) (cont bool),
) (err error) {
	err = d.db.View(func(tx *bbolt.Tx) (txErr error) {
		bkt := tx.Bucket([]byte(cat.String()))
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(k, _ []byte) (iterErr error) {
			if !fn(string(k)) {
				return errStop
			}

			return nil
		})
	})
	if errors.Is(err, errStop) {
		return nil
	}

	return err
}

// Add implements the [Store] interface for *DB.
func (d *DB) Add(_ context.Context, cat Category, entry string) (err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating id: %w", err)
	}

	val, err := json.Marshal(&dbEntry{
		ID:    id,
		Added: d.clock.Now().Unix(),
	})
	if err != nil {
		// Should not happen.
		panic(err)
	}

	return d.update(cat, func(bkt *bbolt.Bucket) (err error) {
		key := []byte(entry)
		if bkt.Get(key) != nil {
			return errors.ErrDuplicated
		}

		return bkt.Put(key, val)
	})
}

// Remove implements the [Store] interface for *DB.
func (d *DB) Remove(_ context.Context, cat Category, entry string) (err error) {
	return d.update(cat, func(bkt *bbolt.Bucket) (err error) {
		key := []byte(entry)
		if bkt.Get(key) == nil {
			return ErrNotFound
		}

		return bkt.Delete(key)
	})
}

// update calls fn with the bucket of the category within a writable
// transaction.
func (d *DB) update(cat Category, fn func(bkt *bbolt.Bucket) (err error)) (err error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	needRollback := true
	defer func() {
		if needRollback {
			err = errors.WithDeferred(err, tx.Rollback())
		}
	}()

	bkt, err := tx.CreateBucketIfNotExists([]byte(cat.String()))
	if err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}

	err = fn(bkt)
	if err != nil {
		// Don't wrap the error since it's informative enough as is.
		return err
	}

	needRollback = false
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
