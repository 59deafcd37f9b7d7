// Package database keeps finished-round summaries, one bucket per session.
package database

import (
	"encoding/json"
	"fmt"

	"github.com/partyhost/partyhost/internal/byteutil"
	"github.com/partyhost/partyhost/internal/database"
	"github.com/partyhost/partyhost/internal/database/result/model"
	bolt "go.etcd.io/bbolt"
)

const prefix = "results:"

var ErrNotFound = fmt.Errorf("not found")

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func bucketName(code string) []byte {
	return []byte(prefix + code)
}

// Add stores r under its round number, replacing an earlier write of the same round.
func (db *DB) Add(r model.Result) error {
	bytes, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(r.SessionCode))
		if err != nil {
			return fmt.Errorf("can not create bucket %s: %w", r.SessionCode, err)
		}

		if err := b.Put(byteutil.RoundKey(r.Round), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// FetchBySession returns every stored round for code in round order.
func (db *DB) FetchBySession(code string) ([]model.Result, error) {
	var list []model.Result

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(code))
		if b == nil {
			return ErrNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			if _, ok := byteutil.ParseRoundKey(k); !ok {
				return nil
			}

			var r model.Result
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, r)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// Clean drops every result stored for code.
func (db *DB) Clean(code string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName(code)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("delete bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}
