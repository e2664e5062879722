package spider

import (
	"errors"
	"io"

	"sharespider/internal/smb"
)

// fakeSession is an in-memory share tree implementing smb.Session. Keys are
// share + "::" + remote path.
type fakeSession struct {
	shares    []string
	sharesErr error
	dirs      map[string][]smb.Entry
	dirErrs   map[string]error
	files     map[string]string
	fileErrs  map[string]error

	listCalls []string
	loggedOff bool

	// listFn, when set, overrides the map lookup entirely.
	listFn func(share, path string) ([]smb.Entry, error)
}

func key(share, path string) string { return share + "::" + path }

func (f *fakeSession) ListShares() ([]string, error) {
	if f.sharesErr != nil {
		return nil, f.sharesErr
	}
	return f.shares, nil
}

func (f *fakeSession) ListDirectory(share, path string) ([]smb.Entry, error) {
	f.listCalls = append(f.listCalls, key(share, path))
	if f.listFn != nil {
		return f.listFn(share, path)
	}
	if err, ok := f.dirErrs[key(share, path)]; ok {
		return nil, err
	}
	entries, ok := f.dirs[key(share, path)]
	if !ok {
		return nil, errors.New("no such directory")
	}
	return entries, nil
}

func (f *fakeSession) ReadFile(share, path string, sink io.Writer) error {
	if err, ok := f.fileErrs[key(share, path)]; ok {
		return err
	}
	content, ok := f.files[key(share, path)]
	if !ok {
		return errors.New("no such file")
	}
	_, err := io.WriteString(sink, content)
	return err
}

func (f *fakeSession) Logoff() error {
	f.loggedOff = true
	return nil
}
