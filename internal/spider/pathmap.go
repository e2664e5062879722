package spider

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mapper derives local mirror paths from remote names. It is pure: the same
// inputs always yield the same path, and it never touches the filesystem.
//
// Remote names are untrusted. Share names and path segments may carry parent
// references, drive markers, or separators that would let a hostile server
// write outside the mirror; Map neutralizes them so every result stays a
// descendant of Root/<host>/<share>.
type Mapper struct {
	Root string
}

// Map returns the local path for remotePath within share on host. An empty
// remotePath addresses the share root itself.
func (m Mapper) Map(host, share, remotePath string) string {
	parts := []string{m.Root, component(host), component(share)}
	for _, seg := range splitRemote(remotePath) {
		parts = append(parts, component(seg))
	}
	return filepath.Join(parts...)
}

// splitRemote breaks a remote path into segments, accepting either
// separator and dropping empty and self-reference segments so absolute or
// doubled separators cannot shift the result out of the sandbox.
func splitRemote(remotePath string) []string {
	raw := strings.Split(strings.ReplaceAll(remotePath, `\`, "/"), "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// component neutralizes one untrusted name for use as a single local path
// component. Separator and drive-marker bytes are hex-escaped rather than
// collapsed, and the escape character itself is escaped, so two distinct
// remote names never share a local path. Parent references are rewritten
// rather than rejected so the traversal can still mirror the rest of the
// tree.
func component(name string) string {
	switch name {
	case "":
		return "%00"
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	if !strings.ContainsAny(name, `/\:%`) {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '/', '\\', ':', '%':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
