package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusUnderReview, ParseStatus(" Under_Review "))
	assert.False(t, ParseStatus("interview").Known())
}

func TestEmployerSettableExcludesWithdrawn(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusUnderReview, StatusAccepted, StatusRejected} {
		assert.True(t, s.EmployerSettable(), s)
	}
	assert.False(t, StatusWithdrawn.EmployerSettable())
	assert.False(t, Status("hired").EmployerSettable())
}

func TestFinalStates(t *testing.T) {
	assert.False(t, StatusPending.Final())
	assert.False(t, StatusUnderReview.Final())
	assert.True(t, StatusAccepted.Final())
	assert.True(t, StatusRejected.Final())
	assert.True(t, StatusWithdrawn.Final())
}

func TestRecordAppendsHistory(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	app := Application{}
	app.Record(HistoryEntry{Status: StatusPending, UpdatedAt: created, UpdatedBy: "u1"})
	app.Record(HistoryEntry{Status: StatusAccepted, UpdatedAt: created.Add(time.Hour), UpdatedBy: "p1"})

	require.Len(t, app.StatusHistory, 2)
	assert.Equal(t, StatusAccepted, app.Status)
	assert.Equal(t, app.StatusHistory[1].Status, app.Status)
	assert.Equal(t, created.Add(time.Hour), app.LastStatusUpdate)
}
