package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateDefaults(t *testing.T) {
	s := NewState()
	assert.False(t, s.Ready())
	assert.False(t, s.StoreAvailable())
	assert.False(t, s.ScanRunning())
	assert.True(t, s.LastScan().IsZero())
}

func TestStateMarkScan(t *testing.T) {
	s := NewState()
	at := time.Date(2025, 6, 2, 16, 0, 3, 0, time.UTC)
	s.MarkScan(at)
	assert.Equal(t, at.Unix(), s.LastScan().Unix())

	s.SetReady(true)
	s.SetStoreAvailable(true)
	assert.True(t, s.Ready())
	assert.True(t, s.StoreAvailable())
}
