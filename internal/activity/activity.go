package activity

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/comptes-dev/comptes/internal/events"
	"github.com/comptes-dev/comptes/internal/model"
)

// Entry is one confirmed change in the activity log.
type Entry struct {
	Timestamp time.Time
	Op        events.Op
	AccountID model.ID
	BaseURL   string
}

// Header is the CSV header of the activity log.
const Header = "timestamp,op,account_id,base_url"

const (
	numFields    = 4
	colTimestamp = 0
	colOp        = 1
	colAccountID = 2
	colBaseURL   = 3
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colOp] = string(e.Op)
	row[colAccountID] = e.AccountID.String()
	row[colBaseURL] = e.BaseURL
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		Op:        events.Op(record[colOp]),
		AccountID: model.ID(record[colAccountID]),
		BaseURL:   record[colBaseURL],
	}, nil
}

// Append writes entries to the log at path, creating the file, its
// directory, and the header if needed.
func Append(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating activity dir: %w", err)
		}
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder appends one entry per committed event. Write failures are logged
// and never reach the user flow that produced the event.
type Recorder struct {
	path    string
	baseURL string
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewRecorder returns a recorder writing to path.
func NewRecorder(path, baseURL string, logger *slog.Logger) *Recorder {
	return &Recorder{path: path, baseURL: baseURL, logger: logger, now: time.Now}
}

// Handle is an events.Handler.
func (r *Recorder) Handle(_ context.Context, evt events.Committed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := Entry{Timestamp: r.now().UTC(), Op: evt.Op, AccountID: evt.ID, BaseURL: r.baseURL}
	if err := Append(r.path, []Entry{entry}); err != nil {
		r.logger.Warn("failed to write activity log", "path", r.path, "error", err)
	}
}
