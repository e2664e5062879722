package spider

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"sharespider/internal/smb"
)

// Fetch streams one remote file to localPath, creating parent directories as
// needed. On failure any partial file is left in place; the caller records
// the failure and must not treat the path as complete.
func Fetch(sess smb.Session, share, remotePath, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	local, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer local.Close()

	buf := bufio.NewWriterSize(local, 64*1024)
	if err := sess.ReadFile(share, remotePath, buf); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return local.Sync()
}
