package utils_test

import (
	"testing"

	"github.com/racker/rackspace-monitoring-storage/utils"
	"github.com/stretchr/testify/assert"
)

func TestNewStatusLine(t *testing.T) {
	sl := utils.NewStatusLine()
	assert.Equal(t, "", sl.String())
}

func TestClear(t *testing.T) {
	sl := utils.NewStatusLine()
	sl.Add("device", "/dev/sda1")
	assert.Equal(t, "device=/dev/sda1", sl.String())
	sl.Clear()
	assert.Equal(t, "", sl.String())
}

func TestAddAndPrint(t *testing.T) {
	sl := utils.NewStatusLine()
	sl.Add("device", "/dev/sda1")
	sl.AddIfSet("label", "")
	sl.AddIfSet("type", "ext4")
	sl.Add("used", 42.5)
	assert.Equal(t, "device=/dev/sda1,type=ext4,used=42.5", sl.String())
}
