package lookupservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60*time.Second, startupHealthTimeout(0))
	assert.Equal(t, 60*time.Second, startupHealthTimeout(30))
	assert.Equal(t, 90*time.Second, startupHealthTimeout(45))
}
