package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMainCommandSetup ensures the command main executes can be built without panicking.
// main itself calls os.Exit, so behaviour is covered through run in root_test.go.
func TestMainCommandSetup(t *testing.T) {
	assert.NotPanics(t, func() {
		cmd := newRootCmd()
		assert.Equal(t, "log-analyzer", cmd.Name())
	})
}
