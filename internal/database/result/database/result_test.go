package database

import (
	"errors"
	"testing"
	"time"

	"github.com/partyhost/partyhost/internal/database/databasetest"
	"github.com/partyhost/partyhost/internal/database/result/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFetch(t *testing.T) {
	t.Parallel()

	db := New(databasetest.New(t))

	_, err := db.FetchBySession("QZ12")
	require.True(t, errors.Is(err, ErrNotFound))

	for _, round := range []int{2, 1} {
		require.NoError(t, db.Add(model.Result{
			SessionCode: "QZ12",
			Mode:        "ROUNDS",
			Round:       round,
			Winner:      "BOATS",
			Reason:      "REACHED_SAFE_ZONE",
			EndedAt:     time.Now(),
			Scores:      []model.PlayerScore{{PlayerID: "p1", Score: 200}},
		}))
	}

	list, err := db.FetchBySession("QZ12")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Round)
	assert.Equal(t, 2, list[1].Round)
	assert.Equal(t, 200, list[0].Scores[0].Score)

	require.NoError(t, db.Clean("QZ12"))
	_, err = db.FetchBySession("QZ12")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, db.Clean("QZ12"))
}
