package smb

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpDeadlineBoundsBlockingRead(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	d := opDeadline{conn: client, timeout: 20 * time.Millisecond}
	d.extend()

	// Nothing ever writes; the read must give up instead of blocking.
	buf := make([]byte, 1)
	_, err := client.Read(buf)
	require.Error(t, err)
	var nerr net.Error
	require.True(t, errors.As(err, &nerr))
	assert.True(t, nerr.Timeout())
}

func TestOpDeadlineExtendPushesDeadlineForward(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	d := opDeadline{conn: client, timeout: 200 * time.Millisecond}
	d.extend()
	time.Sleep(50 * time.Millisecond)
	d.extend()

	go func() {
		time.Sleep(100 * time.Millisecond)
		server.Write([]byte{1})
	}()

	// The write lands ~150ms after the first extend; only the re-armed
	// deadline keeps the read alive to see it.
	buf := make([]byte, 1)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpDeadlineClearLiftsDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	d := opDeadline{conn: client, timeout: 10 * time.Millisecond}
	d.extend()
	d.clear()

	go func() {
		time.Sleep(50 * time.Millisecond)
		server.Write([]byte{1})
	}()

	buf := make([]byte, 1)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpDeadlineZeroTimeoutNeverArms(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	d := opDeadline{conn: client, timeout: 0}
	d.extend()

	go func() {
		time.Sleep(30 * time.Millisecond)
		server.Write([]byte{1})
	}()

	buf := make([]byte, 1)
	_, err := client.Read(buf)
	assert.NoError(t, err)
}
