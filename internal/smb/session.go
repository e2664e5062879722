// Package smb wraps go-smb2 behind the narrow capability set the sweep
// engine needs, so the engine can be driven against fakes in tests.
package smb

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// ErrAuthFailed marks a login rejected by the remote host, as opposed to a
// transport failure. Callers test for it with errors.Is.
var ErrAuthFailed = errors.New("authentication failed")

// Entry is one remote directory item.
type Entry struct {
	Name  string
	IsDir bool
}

// Session is an authenticated connection bound to one (host, credential)
// pair. All methods are blocking network calls. A Session is owned by a
// single goroutine and must be closed with Logoff on every exit path.
type Session interface {
	ListShares() ([]string, error)
	ListDirectory(share, path string) ([]Entry, error)
	ReadFile(share, path string, sink io.Writer) error
	Logoff() error
}

// Dialer establishes authenticated sessions. Dial returns ErrAuthFailed
// (wrapped) when the host rejected the credentials and some other error when
// the host could not be reached or the negotiation broke.
type Dialer interface {
	Dial(ctx context.Context, host, user, pass string) (Session, error)
}

// NetDialer is the production Dialer speaking SMB2/3 with NTLM
// authentication over TCP.
type NetDialer struct {
	Port    int
	Domain  string
	Timeout time.Duration
}

func (d *NetDialer) Dial(ctx context.Context, host, user, pass string) (Session, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(d.Port))
	conn, err := net.DialTimeout("tcp", addr, d.Timeout)
	if err != nil {
		return nil, err
	}

	// Bound the SMB negotiation and login; every later remote operation
	// arms its own deadline.
	_ = conn.SetDeadline(time.Now().Add(d.Timeout))

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: pass,
			Domain:   d.Domain,
		},
	}

	sess, err := dialer.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		if isLogonFailure(err) {
			return nil, errors.Join(ErrAuthFailed, err)
		}
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return &session{
		conn:   conn,
		sess:   sess,
		mounts: make(map[string]*smb2.Share),
		op:     opDeadline{conn: conn, timeout: d.Timeout},
	}, nil
}

// isLogonFailure tells rejected credentials apart from transport errors by
// the NT status text go-smb2 reports.
func isLogonFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "logon failure") ||
		strings.Contains(msg, "wrong password") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "status_logon_failure")
}

// opDeadline arms a deadline on the session's connection for the duration
// of one remote operation, so a peer that stalls after login cannot block
// the sweep indefinitely.
type opDeadline struct {
	conn    net.Conn
	timeout time.Duration
}

// extend pushes the deadline timeout into the future. Called again on every
// unit of progress, so long transfers are not cut off while a stalled one
// strands no longer than the timeout.
func (d opDeadline) extend() {
	if d.timeout > 0 {
		_ = d.conn.SetDeadline(time.Now().Add(d.timeout))
	}
}

// clear lifts the deadline once the operation is done.
func (d opDeadline) clear() {
	_ = d.conn.SetDeadline(time.Time{})
}

type session struct {
	conn   net.Conn
	sess   *smb2.Session
	mounts map[string]*smb2.Share
	op     opDeadline
}

func (s *session) ListShares() ([]string, error) {
	s.op.extend()
	defer s.op.clear()
	return s.sess.ListSharenames()
}

// mount returns the share filesystem, mounting it on first use. The mount
// stays cached until Logoff; the Session is single-goroutine so the map
// needs no locking.
func (s *session) mount(share string) (*smb2.Share, error) {
	if fs, ok := s.mounts[share]; ok {
		return fs, nil
	}
	fs, err := s.sess.Mount(share)
	if err != nil {
		return nil, err
	}
	s.mounts[share] = fs
	return fs, nil
}

func (s *session) ListDirectory(share, path string) ([]Entry, error) {
	s.op.extend()
	defer s.op.clear()
	fs, err := s.mount(share)
	if err != nil {
		return nil, err
	}
	infos, err := fs.ReadDir(winPath(path))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{Name: info.Name(), IsDir: info.IsDir()})
	}
	return entries, nil
}

func (s *session) ReadFile(share, path string, sink io.Writer) error {
	s.op.extend()
	defer s.op.clear()
	fs, err := s.mount(share)
	if err != nil {
		return err
	}
	f, err := fs.Open(winPath(path))
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	for {
		s.op.extend()
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func (s *session) Logoff() error {
	s.op.extend()
	for _, fs := range s.mounts {
		_ = fs.Umount()
	}
	err := s.sess.Logoff()
	s.conn.Close()
	return err
}

// winPath converts a slash-separated remote path to the backslash form the
// wire expects. The share root is the empty string.
func winPath(path string) string {
	return strings.ReplaceAll(path, "/", `\`)
}
