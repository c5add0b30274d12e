package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestRemainingTime(t *testing.T) {
	assert.Equal(t, time.Duration(0), RemainingTime(time.Now().Add(-time.Hour), time.Second))
	left := RemainingTime(time.Now(), time.Hour)
	assert.True(t, left > 59*time.Minute && left <= time.Hour)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestTimerWrapper(t *testing.T) {
	tw := NewTimerWrapper(time.Hour)
	assert.True(t, tw.IsStopped())
	assert.Nil(t, tw.GetTimeoutCh())

	tw.Reset(time.Millisecond)
	assert.False(t, tw.IsStopped())
	select {
	case <-tw.GetTimeoutCh():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	tw.ResetAt(time.Now().Add(time.Hour))
	tw.Stop()
	assert.True(t, tw.IsStopped())
	assert.Nil(t, tw.GetTimeoutCh())
}

func TestHexDump(t *testing.T) {
	s := HexDumpString([]byte("JDWP-Handshake"))
	assert.Contains(t, s, "4A 44 57 50")
	assert.Contains(t, s, "JDWP-Handshake")
	assert.Equal(t, "0A0B", ToHexString([]byte{0x0a, 0x0b}))
	assert.Equal(t, "a.b", ToPrintableString([]byte{'a', 0x01, 'b'}))
}
