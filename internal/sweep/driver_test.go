package sweep

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharespider/internal/report"
	"sharespider/internal/smb"
	"sharespider/internal/spider"
)

// fakeConn is a session that reports no shares, so the driver path is
// exercised without touching the filesystem.
type fakeConn struct {
	mu        sync.Mutex
	loggedOff bool
}

func (c *fakeConn) ListShares() ([]string, error) { return nil, nil }
func (c *fakeConn) ListDirectory(share, path string) ([]smb.Entry, error) {
	return nil, errors.New("not listable")
}
func (c *fakeConn) ReadFile(share, path string, sink io.Writer) error {
	return errors.New("not readable")
}
func (c *fakeConn) Logoff() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOff = true
	return nil
}

type fakeDialer struct {
	mu       sync.Mutex
	attempts []Credential
	// accept decides the fate of each triple; nil error means login ok.
	accept   func(cred Credential) error
	sessions []*fakeConn
	onDial   func(n int)
}

func (d *fakeDialer) Dial(ctx context.Context, host, user, pass string) (smb.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cred := Credential{Host: host, User: user, Pass: pass}
	d.attempts = append(d.attempts, cred)
	if d.onDial != nil {
		d.onDial(len(d.attempts))
	}
	if d.accept != nil {
		if err := d.accept(cred); err != nil {
			return nil, err
		}
	}
	conn := &fakeConn{}
	d.sessions = append(d.sessions, conn)
	return conn, nil
}

func newDriver(t *testing.T, dialer smb.Dialer, workers int) *Driver {
	t.Helper()
	return &Driver{
		Dialer:      dialer,
		Spider:      &spider.Spider{Mapper: spider.Mapper{Root: t.TempDir()}},
		HostWorkers: workers,
	}
}

func TestRunAttemptsEveryTripleOnce(t *testing.T) {
	dialer := &fakeDialer{accept: func(Credential) error {
		return errors.Join(smb.ErrAuthFailed, errors.New("logon failure"))
	}}
	d := newDriver(t, dialer, 1)

	rep := d.Run(context.Background(),
		[]string{"h1", "h2"}, []string{"u1", "u2"}, []string{"p1", "p2"})

	assert.Equal(t, []Credential{
		{"h1", "u1", "p1"}, {"h1", "u1", "p2"},
		{"h1", "u2", "p1"}, {"h1", "u2", "p2"},
		{"h2", "u1", "p1"}, {"h2", "u1", "p2"},
		{"h2", "u2", "p1"}, {"h2", "u2", "p2"},
	}, dialer.attempts)
	assert.Equal(t, 8, rep.Count(report.AuthFailed))
	assert.Len(t, rep.Outcomes, 8)
}

func TestRunAuthFailureRecordsAndMovesOn(t *testing.T) {
	dialer := &fakeDialer{accept: func(cred Credential) error {
		if cred.Pass == "bad" {
			return errors.Join(smb.ErrAuthFailed, errors.New("logon failure"))
		}
		return nil
	}}
	d := newDriver(t, dialer, 1)

	rep := d.Run(context.Background(),
		[]string{"h"}, []string{"u"}, []string{"bad", "good"})

	assert.Equal(t, 1, rep.Count(report.AuthFailed))
	assert.Equal(t, 1, rep.Count(report.AuthSucceeded))
	assert.Equal(t, 1, rep.Count(report.NoSharesFound))
	require.Len(t, dialer.sessions, 1)
	assert.True(t, dialer.sessions[0].loggedOff)
}

func TestRunTransportFailureIsNotAuthFailure(t *testing.T) {
	dialer := &fakeDialer{accept: func(Credential) error {
		return errors.New("connection refused")
	}}
	d := newDriver(t, dialer, 1)

	rep := d.Run(context.Background(), []string{"h"}, []string{"u"}, []string{"p"})

	assert.Equal(t, 1, rep.Count(report.ConnectFailed))
	assert.Equal(t, 0, rep.Count(report.AuthFailed))
}

func TestRunAlwaysLogsOff(t *testing.T) {
	dialer := &fakeDialer{}
	d := newDriver(t, dialer, 1)

	d.Run(context.Background(), []string{"h1", "h2"}, []string{"u"}, []string{"p"})

	require.Len(t, dialer.sessions, 2)
	for _, sess := range dialer.sessions {
		assert.True(t, sess.loggedOff)
	}
}

func TestRunCancellationBetweenTriples(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dialer := &fakeDialer{onDial: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	d := newDriver(t, dialer, 1)

	d.Run(ctx, []string{"h"}, []string{"u"}, []string{"p1", "p2", "p3", "p4"})

	// Stopped after the triple in flight when cancel hit; sessions released.
	assert.Len(t, dialer.attempts, 2)
	for _, sess := range dialer.sessions {
		assert.True(t, sess.loggedOff)
	}
}

func TestRunConcurrentHostsCoverProduct(t *testing.T) {
	dialer := &fakeDialer{accept: func(Credential) error {
		return errors.New("unreachable")
	}}
	d := newDriver(t, dialer, 4)

	rep := d.Run(context.Background(),
		[]string{"h1", "h2", "h3"}, []string{"u1", "u2"}, []string{"p"})

	assert.Len(t, dialer.attempts, 6)
	seen := make(map[Credential]int)
	for _, cred := range dialer.attempts {
		seen[cred]++
	}
	for cred, n := range seen {
		assert.Equal(t, 1, n, "triple %+v attempted %d times", cred, n)
	}
	assert.Equal(t, 6, rep.Count(report.ConnectFailed))

	// Per-host order stays user-outer, password-inner even under concurrency.
	var h1 []Credential
	for _, cred := range dialer.attempts {
		if cred.Host == "h1" {
			h1 = append(h1, cred)
		}
	}
	assert.Equal(t, []Credential{{"h1", "u1", "p"}, {"h1", "u2", "p"}}, h1)
}
