package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, true)

	assert.True(t, s.Enabled())
	s.Printf("mounted %s", "sd")
	s.Println("start")
	assert.Equal(t, "mounted sd\nstart\n", buf.String())
}

func TestStream_Disabled(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, false)

	s.Printf("mounted %s", "sd")
	s.Println("start")
	assert.False(t, s.Enabled())
	assert.Empty(t, buf.String())
}

func TestStream_Nil(t *testing.T) {
	var s *Stream
	assert.False(t, s.Enabled())
	assert.NotPanics(t, func() {
		s.Printf("x")
		s.Println("y")
	})
}
