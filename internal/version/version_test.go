package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.NotEmpty(t, Get())
	assert.NotContains(t, Get(), "\n")
}

func TestString(t *testing.T) {
	old := Commit
	defer func() { Commit = old }()

	Commit = ""
	assert.Equal(t, Get(), String())
	Commit = "abc123"
	assert.Equal(t, Get()+" (abc123)", String())
}
