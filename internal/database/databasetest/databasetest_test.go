package databasetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestNew(t *testing.T) {
	t.Parallel()

	db := New(t)
	require.NoError(t, db.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("sessions"))
		if err != nil {
			return err
		}
		return b.Put([]byte("QUIZ"), []byte("1"))
	}))

	require.NoError(t, db.DB.View(func(tx *bolt.Tx) error {
		assert.Equal(t, []byte("1"), tx.Bucket([]byte("sessions")).Get([]byte("QUIZ")))
		return nil
	}))
}
