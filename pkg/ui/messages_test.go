package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/scanner"
)

// TestWatchMessages tests watch-related message creation
func TestWatchMessages(t *testing.T) {
	t.Run("WatchStarted", func(t *testing.T) {
		cmd := WatchStarted("/tmp/project")
		require.NotNil(t, cmd)

		msg := cmd()
		watchMsg, ok := msg.(WatchStartedMsg)
		require.True(t, ok)

		assert.Equal(t, "/tmp/project", watchMsg.Path)
	})

	t.Run("BatchScanned", func(t *testing.T) {
		batch := &scanner.BatchResult{
			Files:     []string{"app.py", "util.py"},
			ScannedAt: time.Now(),
			Duration:  40 * time.Millisecond,
		}

		cmd := BatchScanned(batch)
		require.NotNil(t, cmd)

		msg := cmd()
		batchMsg, ok := msg.(BatchScannedMsg)
		require.True(t, ok)

		assert.Equal(t, batch, batchMsg.Batch)
	})

	t.Run("ScanError", func(t *testing.T) {
		err := errors.New("scan failed")

		cmd := ScanError(err, true)
		require.NotNil(t, cmd)

		msg := cmd()
		errorMsg, ok := msg.(ScanErrorMsg)
		require.True(t, ok)

		assert.Equal(t, err, errorMsg.Error)
		assert.True(t, errorMsg.Fatal)
	})

	t.Run("MonitorStopped", func(t *testing.T) {
		cmd := MonitorStopped()
		require.NotNil(t, cmd)

		msg := cmd()
		_, ok := msg.(MonitorStoppedMsg)
		require.True(t, ok)
	})
}

// TestStatusMessages tests status message creation
func TestStatusMessages(t *testing.T) {
	t.Run("StatusUpdate", func(t *testing.T) {
		cmd := StatusUpdate("scanning", StatusInfo)
		require.NotNil(t, cmd)

		msg := cmd()
		statusMsg, ok := msg.(StatusUpdateMsg)
		require.True(t, ok)

		assert.Equal(t, "scanning", statusMsg.Message)
		assert.Equal(t, StatusInfo, statusMsg.Type)
	})

	t.Run("StatusTypes", func(t *testing.T) {
		statusTypes := []StatusType{
			StatusInfo,
			StatusSuccess,
			StatusWarning,
			StatusError,
		}

		for i, statusType := range statusTypes {
			assert.Equal(t, StatusType(i), statusType, "Status type constant should match index")
		}
	})
}

// TestUptimeTick tests the session clock command
func TestUptimeTick(t *testing.T) {
	cmd := UptimeTick()
	require.NotNil(t, cmd)

	// tea.Tick wraps the message in a timer, so executing the command
	// blocks until the tick fires
	msg := cmd()
	tickMsg, ok := msg.(UptimeTickMsg)
	require.True(t, ok)

	assert.WithinDuration(t, time.Now(), time.Time(tickMsg), 2*time.Second)
}
