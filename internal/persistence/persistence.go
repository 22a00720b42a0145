package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/ui"
)

const (
	BucketSettings = "settings"

	settingsKey = "current"
)

// ErrNotFound is returned when no value exists for the requested key.
var ErrNotFound = errors.New("no persisted value found")

type Persistence interface {
	Init() error

	// LoadSettings returns the settings persisted by the last run. Fails
	// with ErrNotFound on a fresh database.
	LoadSettings() (state.Settings, error)
	SaveSettings(settings state.Settings) (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveSettings persists the user settings so the next run can restore the
// last target weight and unit.
func (p persistence) SaveSettings(settings state.Settings) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(BucketSettings))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(settingsKey), data)
	})
}

func (p persistence) LoadSettings() (settings state.Settings, err error) {
	db, err := p.openPersistence()
	if err != nil {
		return settings, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketSettings))
		if bucket == nil {
			return ErrNotFound
		}
		data := bucket.Get([]byte(settingsKey))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("cannot decode persisted settings: %w", err)
		}
		return nil
	})
	return settings, err
}
