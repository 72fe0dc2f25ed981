package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	for _, name := range []string{"rajat", "guest", "carol", "admin", "nina.k", "r_2", "a-b", strings.Repeat("a", 64)} {
		assert.True(t, ValidUsername(name), name)
	}
	for _, name := range []string{"", ".", "..", "../x", "a/b", "a b", "_x", "-x", "é", strings.Repeat("a", 65)} {
		assert.False(t, ValidUsername(name), name)
	}
}
