// Copyright 2025 Relaydesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package csvdir

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/relaydesk/ticketrag/ingest"
)

// Expected CSV header: ticket_id,timestamp,customer_id,subject,body
const (
	columnTicketID = iota
	columnTimestamp
	columnCustomerID
	columnSubject
	columnBody
	columnCount
)

// ErrDirectoryRequired is returned when the ticket directory is empty.
var ErrDirectoryRequired = errors.New("ticket directory required")

// Source reads ticket CSV files from a directory. Every Fetch re-reads
// all CSV files; dedupe against already-ingested tickets is the
// watcher's job. File writes in the directory trigger a change
// notification via fsnotify.
type Source struct {
	dir     string
	watcher *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	logger  *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSource creates a source watching the given directory for ticket
// CSV files. The directory must exist.
func NewSource(dir string, opts ...Option) (*Source, error) {
	if dir == "" {
		return nil, ErrDirectoryRequired
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	s := &Source{
		dir:     dir,
		watcher: watcher,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "csvdir-source"),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.watchLoop()
	return s, nil
}

// Fetch reads all CSV files in the directory, in filename order, and
// returns their tickets. Malformed rows are skipped with a warning;
// I/O errors fail the fetch so the cycle can retry.
func (s *Source) Fetch(ctx context.Context) ([]ingest.Item, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var items []ingest.Item
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileItems, err := s.readFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		items = append(items, fileItems...)
	}
	return items, nil
}

// Changes returns the change notification channel.
func (s *Source) Changes() <-chan struct{} {
	return s.changes
}

// Close stops the directory watcher.
func (s *Source) Close() error {
	close(s.done)
	return s.watcher.Close()
}

func (s *Source) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".csv") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// Non-blocking: one pending notification is enough.
			select {
			case s.changes <- struct{}{}:
			default:
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("directory watcher error", "err", err)
		}
	}
}

func (s *Source) readFile(path string) ([]ingest.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	name := filepath.Base(path)
	var items []ingest.Item
	for line := 0; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Parse errors affect a single row; keep going.
			s.logger.Warn("skipping unparsable row", "file", name, "line", line+1, "err", err)
			continue
		}
		if line == 0 && strings.EqualFold(row[columnTicketID], "ticket_id") {
			continue
		}

		item, err := parseRow(row, name)
		if err != nil {
			s.logger.Warn("skipping malformed row", "file", name, "line", line+1, "err", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// parseRow converts one CSV row into a ticket item. The embedded text
// is the subject and body joined with " \n ".
func parseRow(row []string, fileName string) (ingest.Item, error) {
	if len(row) < columnCount {
		return ingest.Item{}, fmt.Errorf("expected %d columns, got %d", columnCount, len(row))
	}

	ticketID := strings.TrimSpace(row[columnTicketID])
	if ticketID == "" {
		return ingest.Item{}, errors.New("empty ticket_id")
	}

	timestamp, err := parseTimestamp(strings.TrimSpace(row[columnTimestamp]))
	if err != nil {
		return ingest.Item{}, err
	}

	subject := strings.TrimSpace(row[columnSubject])
	body := strings.TrimSpace(row[columnBody])
	if subject == "" && body == "" {
		return ingest.Item{}, errors.New("empty subject and body")
	}

	return ingest.Item{
		SourceID:  ticketID,
		Text:      subject + " \n " + body,
		Timestamp: timestamp,
		Metadata: map[string]string{
			"customer_id": strings.TrimSpace(row[columnCustomerID]),
			"subject":     subject,
			"origin_file": fileName,
		},
	}, nil
}

// timestampLayouts are tried in order. Exports commonly carry either
// RFC 3339 or a plain datetime without zone (interpreted as UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}
