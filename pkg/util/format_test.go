package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", OrDash(""))
	assert.Equal(t, "x", OrDash("x"))
}

func TestFormatLocalZeroTime(t *testing.T) {
	assert.Equal(t, "-", FormatLocal(time.Time{}))
	assert.NotEqual(t, "-", FormatLocal(time.Now()))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1536*1024))
}
