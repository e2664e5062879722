package spider

import (
	"context"
	"path"
	"strings"

	"sharespider/internal/report"
	"sharespider/internal/smb"
)

// WalkFunc receives each discovered entry. remotePath is slash-separated and
// rooted at the share top level.
type WalkFunc func(remotePath string, isDir bool)

// RecordFunc receives outcome records for listing failures and skipped
// loops. The caller stamps host and user.
type RecordFunc func(o report.Outcome)

// Walker traverses one share depth-first in pre-order: a directory's entries
// are yielded in listing order, then its first subdirectory's subtree is
// walked before later sibling subtrees.
//
// The traversal is iterative, driven by an explicit stack, with a visited
// set of remote paths. A directory entry that resolves to an already-visited
// path is reported as a loop and not entered, and MaxDepth bounds growth
// against servers that keep inventing deeper children. Either way a hostile
// or malformed server cannot drive the walk unbounded.
type Walker struct {
	MaxDepth int
}

// DefaultMaxDepth bounds traversal depth when the caller sets none.
const DefaultMaxDepth = 32

// Walk enumerates share through sess, calling visit for every entry. A
// listing failure is recorded for that directory and traversal continues
// with the remaining work; cancellation stops the walk between directory
// listings.
func (w *Walker) Walk(ctx context.Context, sess smb.Session, share string, visit WalkFunc, record RecordFunc) {
	maxDepth := w.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	stack := []string{""}
	visited := map[string]bool{"": true}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return
		default:
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := sess.ListDirectory(share, dir)
		if err != nil {
			record(report.Outcome{
				Kind:  report.DirListFailed,
				Share: share,
				Path:  dir,
				Error: err.Error(),
			})
			continue
		}

		var subdirs []string
		for _, e := range entries {
			if e.Name == "." || e.Name == ".." {
				continue
			}
			child := joinRemote(dir, e.Name)
			if e.IsDir {
				if visited[child] {
					record(report.Outcome{
						Kind:  report.LoopSkipped,
						Share: share,
						Path:  child,
						Error: "already visited",
					})
					continue
				}
				if depth(child) > maxDepth {
					record(report.Outcome{
						Kind:  report.LoopSkipped,
						Share: share,
						Path:  child,
						Error: "max depth exceeded",
					})
					continue
				}
				visited[child] = true
				visit(child, true)
				subdirs = append(subdirs, child)
				continue
			}
			visit(child, false)
		}

		// Reversed so the first subdirectory is walked next.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
}

// joinRemote appends an entry name to its directory's remote path. The
// result is cleaned so names smuggling separators or parent references
// collapse onto paths the visited set can recognize.
func joinRemote(dir, name string) string {
	p := path.Join(dir, strings.ReplaceAll(name, `\`, "/"))
	if p == "." || strings.HasPrefix(p, "..") {
		return ""
	}
	return p
}

func depth(remotePath string) int {
	if remotePath == "" {
		return 0
	}
	return strings.Count(remotePath, "/") + 1
}
