// Package report defines the per-operation outcome records produced by the
// sweep and turns them into an end-of-run summary and exportable results.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Kind classifies a single outcome record.
type Kind string

const (
	ConnectFailed      Kind = "connect_failed"
	AuthFailed         Kind = "auth_failed"
	AuthSucceeded      Kind = "auth_succeeded"
	ShareListFailed    Kind = "share_list_failed"
	NoSharesFound      Kind = "no_shares_found"
	ShareFound         Kind = "share_found"
	ShareDirFailed     Kind = "share_dir_failed"
	LocalDirFailed     Kind = "local_dir_failed"
	DirListFailed      Kind = "dir_list_failed"
	LoopSkipped        Kind = "loop_skipped"
	FileDownloaded     Kind = "file_downloaded"
	FileDownloadFailed Kind = "file_download_failed"
)

// Outcome is one terminal result record: per credential triple, per share,
// or per entry, depending on the kind.
type Outcome struct {
	Kind  Kind   `json:"kind"`
	Host  string `json:"host"`
	User  string `json:"user,omitempty"`
	Share string `json:"share,omitempty"`
	Path  string `json:"path,omitempty"`
	Local string `json:"local,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report is the aggregate result of one sweep.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Add appends outcome records.
func (r *Report) Add(outcomes ...Outcome) {
	r.Outcomes = append(r.Outcomes, outcomes...)
}

// Count returns how many recorded outcomes have the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// ExportJSON writes the full report as indented JSON.
func ExportJSON(r *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := bufio.NewWriterSize(file, 64*1024)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return err
	}
	return buf.Flush()
}

// ExportCSV writes one row per outcome record.
func ExportCSV(r *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := bufio.NewWriterSize(file, 64*1024)
	writer := csv.NewWriter(buf)

	writer.Write([]string{"Kind", "Host", "User", "Share", "Path", "Local", "Error"})
	for _, o := range r.Outcomes {
		writer.Write([]string{string(o.Kind), o.Host, o.User, o.Share, o.Path, o.Local, o.Error})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// PrintSummary renders the per-kind and per-host totals to stdout.
func PrintSummary(r *Report) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Println("\nSWEEP SUMMARY")

	kinds := make(map[Kind]int)
	hosts := make(map[string]int)
	for _, o := range r.Outcomes {
		kinds[o.Kind]++
		if o.Kind == FileDownloaded {
			hosts[o.Host]++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Outcome", "Count"})
	for _, k := range []Kind{
		AuthSucceeded, AuthFailed, ConnectFailed,
		ShareListFailed, NoSharesFound, ShareFound, ShareDirFailed,
		LocalDirFailed, DirListFailed, LoopSkipped,
		FileDownloaded, FileDownloadFailed,
	} {
		if kinds[k] > 0 {
			t.AppendRow(table.Row{string(k), kinds[k]})
		}
	}
	t.Render()

	if len(hosts) > 0 {
		heading.Println("\nFILES PER HOST")
		names := make([]string, 0, len(hosts))
		for h := range hosts {
			names = append(names, h)
		}
		sort.Strings(names)
		ht := table.NewWriter()
		ht.SetOutputMirror(os.Stdout)
		ht.AppendHeader(table.Row{"Host", "Downloaded"})
		for _, h := range names {
			ht.AppendRow(table.Row{h, hosts[h]})
		}
		ht.Render()
	}
	fmt.Println()
}
