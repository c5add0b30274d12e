package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jdwpcheck/pkg/proto"
)

func TestStatistics(t *testing.T) {
	s := NewStatistics()
	s.Put(proto.CmdVMIDSizes, 2*time.Millisecond, nil)
	s.Put(proto.CmdVMResume, time.Millisecond, nil)
	s.Put(proto.CmdVMResume, 3*time.Millisecond, errors.New("x"))

	stat, ok := s.Get(proto.CmdVMResume)
	assert.True(t, ok)
	assert.Equal(t, int64(2), stat.NumRequests)
	assert.Equal(t, int64(1), stat.NumErrors)
	assert.Equal(t, 2*time.Millisecond, stat.AvgLatency)

	all, ok := s.Get(proto.CmdMethodLineTable)
	assert.False(t, ok)
	assert.Equal(t, int64(3), all.NumRequests)

	var buf bytes.Buffer
	s.PrettyPrint(&buf)
	out := buf.String()
	assert.Contains(t, out, proto.CmdVMResume.String())
	assert.Contains(t, out, proto.CmdVMIDSizes.String())
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(proto.CmdVMIDSizes.String())),
		bytes.Index(buf.Bytes(), []byte(proto.CmdVMResume.String())))

	s.Reset()
	assert.Equal(t, int64(0), s.GetNumRequests())
}

func TestStatisticsLatencyAboveCeiling(t *testing.T) {
	s := NewStatistics()
	s.Put(proto.CmdVMDispose, 2*time.Hour, nil)

	stat, ok := s.Get(proto.CmdVMDispose)
	assert.True(t, ok)
	assert.Equal(t, int64(1), stat.NumRequests)
	assert.GreaterOrEqual(t, stat.MaxLatency, 59*time.Minute)
}
