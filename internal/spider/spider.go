// Package spider walks authenticated shares and mirrors every reachable
// file under the local output root. Remote failures never escape their own
// scope: a share, directory, or file that fails is recorded and skipped
// while the rest of the traversal continues.
package spider

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"sharespider/internal/logger"
	"sharespider/internal/report"
	"sharespider/internal/smb"
)

// Spider mirrors all shares of one authenticated session.
type Spider struct {
	Mapper    Mapper
	Walker    Walker
	SkipAdmin bool
}

// Spider enumerates the session's shares and downloads every file it can
// reach, returning one outcome record per share event and per file.
func (sp *Spider) Spider(ctx context.Context, sess smb.Session, host, user string) []report.Outcome {
	log := logger.Get()
	var outcomes []report.Outcome
	record := func(o report.Outcome) {
		o.Host = host
		o.User = user
		outcomes = append(outcomes, o)
	}

	shares, err := sess.ListShares()
	if err != nil {
		log.WithFields(logrus.Fields{"host": host, "user": user}).
			Warnf("share listing failed: %v", err)
		record(report.Outcome{Kind: report.ShareListFailed, Error: err.Error()})
		return outcomes
	}

	shares = sp.filterShares(shares)
	if len(shares) == 0 {
		log.WithField("host", host).Info("no shares found")
		record(report.Outcome{Kind: report.NoSharesFound})
		return outcomes
	}

	for _, share := range shares {
		log.WithFields(logrus.Fields{"host": host, "share": share}).
			Info("discovered share")
		record(report.Outcome{Kind: report.ShareFound, Share: share})

		root := sp.Mapper.Map(host, share, "")
		if err := os.MkdirAll(root, 0o755); err != nil {
			log.WithField("share", share).Warnf("share directory: %v", err)
			record(report.Outcome{Kind: report.ShareDirFailed, Share: share, Error: err.Error()})
			continue
		}

		sp.Walker.Walk(ctx, sess, share, func(remotePath string, isDir bool) {
			local := sp.Mapper.Map(host, share, remotePath)
			if isDir {
				// Created as discovered so empty directories are mirrored too.
				if err := os.MkdirAll(local, 0o755); err != nil {
					log.WithField("path", remotePath).Warnf("local directory: %v", err)
					record(report.Outcome{Kind: report.LocalDirFailed, Share: share, Path: remotePath, Error: err.Error()})
				}
				return
			}
			if err := Fetch(sess, share, remotePath, local); err != nil {
				log.WithFields(logrus.Fields{"share": share, "path": remotePath}).
					Warnf("download failed: %v", err)
				record(report.Outcome{Kind: report.FileDownloadFailed, Share: share, Path: remotePath, Error: err.Error()})
				return
			}
			log.WithFields(logrus.Fields{"share": share, "path": remotePath}).
				Infof("downloaded to %s", local)
			record(report.Outcome{Kind: report.FileDownloaded, Share: share, Path: remotePath, Local: local})
		}, record)
	}
	return outcomes
}

func (sp *Spider) filterShares(shares []string) []string {
	kept := make([]string, 0, len(shares))
	for _, share := range shares {
		upper := strings.ToUpper(share)
		if upper == "IPC$" || upper == "PRINT$" {
			continue
		}
		if sp.SkipAdmin && strings.HasSuffix(upper, "$") {
			continue
		}
		kept = append(kept, share)
	}
	return kept
}
