package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v1.2.3"
	assert.Contains(t, String(), "docmigrate v1.2.3")
	assert.Contains(t, String(), "commit "+GitCommit)
}

func TestDefaultsAreSet(t *testing.T) {
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}
