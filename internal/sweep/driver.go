// Package sweep drives the credential enumeration: the cartesian product of
// hosts, usernames and passwords is attempted triple by triple, and every
// successful login hands the session to the share spider. No single triple's
// failure ever aborts the sweep.
package sweep

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"sharespider/internal/logger"
	"sharespider/internal/report"
	"sharespider/internal/smb"
	"sharespider/internal/spider"
)

// Driver runs the full sweep. HostWorkers bounds concurrency across hosts;
// triples for one host always run sequentially on a single worker so
// lockout thresholds are respected.
type Driver struct {
	Dialer      smb.Dialer
	Spider      *spider.Spider
	HostWorkers int
}

// Run attempts every (host, user, password) triple exactly once, host outer,
// username middle, password inner. Cancellation is honored between triples;
// an in-flight session is still logged off before Run returns.
func (d *Driver) Run(ctx context.Context, hosts, users, passwords []string) *report.Report {
	rep := &report.Report{}
	if d.HostWorkers <= 1 {
		it := NewIterator(hosts, users, passwords)
		for {
			cred, ok := it.Next()
			if !ok || ctx.Err() != nil {
				break
			}
			rep.Add(d.sweepTriple(ctx, cred)...)
		}
		return rep
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, d.HostWorkers)

	for _, host := range hosts {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(host string) {
			defer wg.Done()
			defer func() { <-sem }()

			it := NewIterator([]string{host}, users, passwords)
			for {
				cred, ok := it.Next()
				if !ok || ctx.Err() != nil {
					return
				}
				outcomes := d.sweepTriple(ctx, cred)

				mu.Lock()
				rep.Add(outcomes...)
				mu.Unlock()
			}
		}(host)
	}

	wg.Wait()
	return rep
}

// sweepTriple attempts one credential triple and returns its outcome
// records. The session, once acquired, is released on every path.
func (d *Driver) sweepTriple(ctx context.Context, cred Credential) []report.Outcome {
	log := logger.Get()
	log.WithFields(logrus.Fields{"host": cred.Host, "user": cred.User}).
		Info("trying credentials")

	sess, err := d.Dialer.Dial(ctx, cred.Host, cred.User, cred.Pass)
	if err != nil {
		kind := report.ConnectFailed
		if errors.Is(err, smb.ErrAuthFailed) {
			kind = report.AuthFailed
		}
		log.WithFields(logrus.Fields{"host": cred.Host, "user": cred.User}).
			Warnf("%s: %v", kind, err)
		return []report.Outcome{{Kind: kind, Host: cred.Host, User: cred.User, Error: err.Error()}}
	}
	defer func() {
		if err := sess.Logoff(); err != nil {
			log.WithField("host", cred.Host).Debugf("logoff: %v", err)
		}
	}()

	log.WithFields(logrus.Fields{"host": cred.Host, "user": cred.User}).
		Info("authenticated")
	outcomes := []report.Outcome{{Kind: report.AuthSucceeded, Host: cred.Host, User: cred.User}}
	return append(outcomes, d.Spider.Spider(ctx, sess, cred.Host, cred.User)...)
}
