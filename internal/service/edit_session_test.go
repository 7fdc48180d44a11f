package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditSessionsFlushClears(t *testing.T) {
	sessions := NewEditSessions()
	sessions.Mark("s1", "it-2")
	sessions.Mark("s1", "it-1")
	sessions.Mark("s1", "it-2")
	sessions.Mark("s2", "it-9")
	sessions.Mark("", "it-3")

	assert.Equal(t, []string{"it-1", "it-2"}, sessions.Pending("s1"))
	assert.Equal(t, []string{"it-1", "it-2"}, sessions.Flush("s1"))
	assert.Empty(t, sessions.Flush("s1"))
	assert.Equal(t, []string{"it-9"}, sessions.Pending("s2"))
}
