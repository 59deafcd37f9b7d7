// Package database stores one TTL-refreshed AudioTargetState per session.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/partyhost/partyhost/internal/cache"
	"github.com/partyhost/partyhost/internal/database"
	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
	bolt "go.etcd.io/bbolt"
)

const bucket = "audio_targets"

var ErrNotFound = fmt.Errorf("not found")

// Entry is the persisted envelope; ExpiresAt is refreshed on every write.
type Entry struct {
	ExpiresAt time.Time              `json:"expiresAt"`
	State     model.AudioTargetState `json:"state"`
}

func New(db *database.DB, cache cache.Cache[Entry], ttl time.Duration) *DB {
	return &DB{sDB: db, cache: cache, ttl: ttl, now: time.Now}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache[Entry]
	ttl   time.Duration
	now   func() time.Time
}

// Fetch returns the live state for code, or ErrNotFound when absent or expired.
func (db *DB) Fetch(code string) (model.AudioTargetState, error) {
	now := db.now()
	if db.cache != nil {
		if v, ok := db.cache.Get(code); ok {
			e := v
			if now.Before(e.ExpiresAt) {
				return e.State, nil
			}
			db.cache.Delete(code)
		}
	}

	var e Entry
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrNotFound
		}

		bytes := b.Get([]byte(code))
		if len(bytes) == 0 {
			return ErrNotFound
		}

		if err := json.Unmarshal(bytes, &e); err != nil {
			return fmt.Errorf("json unmarshal: %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.AudioTargetState{}, ErrNotFound
		}
		return model.AudioTargetState{}, fmt.Errorf("view transaction error: %w", err)
	}

	if !now.Before(e.ExpiresAt) {
		if err := db.Delete(code); err != nil {
			return model.AudioTargetState{}, fmt.Errorf("delete expired: %w", err)
		}
		return model.AudioTargetState{}, ErrNotFound
	}

	if db.cache != nil {
		db.cache.Add(code, e)
	}

	return e.State, nil
}

// Store writes state and refreshes its TTL.
func (db *DB) Store(state model.AudioTargetState) error {
	if state.SessionCode == "" {
		return fmt.Errorf("store: empty session code")
	}

	e := Entry{ExpiresAt: db.now().Add(db.ttl), State: state}
	bytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("can not create bucket: %w", err)
		}

		if err := b.Put([]byte(state.SessionCode), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(state.SessionCode, e)
	}

	return nil
}

func (db *DB) Delete(code string) error {
	if db.cache != nil {
		db.cache.Delete(code)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(code))
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// Expire removes every entry whose TTL has elapsed and returns their codes.
func (db *DB) Expire() ([]string, error) {
	now := db.now()
	var expired []string

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		if err := b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if !now.Before(e.ExpiresAt) {
				expired = append(expired, string(k))
			}
			return nil
		}); err != nil {
			return fmt.Errorf("bucket for each: %w", err)
		}

		for _, code := range expired {
			if err := b.Delete([]byte(code)); err != nil {
				return fmt.Errorf("delete %s: %w", code, err)
			}
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		for _, code := range expired {
			db.cache.Delete(code)
		}
	}

	return expired, nil
}
