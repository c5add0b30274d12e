package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	Revision, BuildId = "abc123", ""
	defer func() { Revision = "" }()

	assert.Equal(t, Version+".abc123", OnelineVersionString())

	var buf bytes.Buffer
	WriteVersionInfo(&buf)
	assert.Contains(t, buf.String(), "Git Commit: abc123")
	assert.NotContains(t, buf.String(), "Build No.")
}
