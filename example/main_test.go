package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/taskengine/log"
)

func TestSetupLoggingToFile(t *testing.T) {
	logFile = filepath.Join(t.TempDir(), "taskengine.log")
	t.Cleanup(func() {
		logFile = ""
		log.SetOutput(nil, nil)
	})

	require.NoError(t, setupLogging(nil))
	log.INFO.Print("written to the log file")
	log.ERROR.Print("errors too")

	contents, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "written to the log file")
	assert.Contains(t, string(contents), "errors too")
}

func TestSetupLoggingWithoutFile(t *testing.T) {
	logFile = ""
	assert.NoError(t, setupLogging(nil))
}

func TestSetupLoggingBadPath(t *testing.T) {
	logFile = filepath.Join(t.TempDir(), "missing", "taskengine.log")
	t.Cleanup(func() { logFile = "" })

	assert.Error(t, setupLogging(nil))
}
