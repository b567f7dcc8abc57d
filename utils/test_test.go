package utils_test

import (
	"testing"
	"time"

	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/stretchr/testify/assert"
)

func TestTimebox_Quick(t *testing.T) {
	result := utils.Timebox(t, 1*time.Second, func(t *testing.T) {
		time.Sleep(1 * time.Millisecond)
	})
	assert.True(t, result)
}

func TestTimebox_TimesOut(t *testing.T) {
	result := utils.Timebox(nil, 1*time.Millisecond, func(t *testing.T) {
		time.Sleep(100 * time.Millisecond)
	})

	assert.False(t, result)
}
