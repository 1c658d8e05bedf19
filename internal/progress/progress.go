package progress

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pavelanni/trainer/internal/model"
)

// FileName is the progress log file kept under the training root.
const FileName = "progress.csv"

const timeLayout = "2006-01-02 15:04:05"

var header = []string{"timestamp", "module", "user", "score", "session_id"}

// Recorder appends completed quiz attempts to a shared CSV log. Each Append
// is one open-append-close cycle so a row always lands as a single write;
// the mutex keeps concurrent sessions of this process from interleaving.
type Recorder struct {
	mu   sync.Mutex
	path string
}

// NewRecorder creates a recorder for the given log path. The file is
// created on first append.
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Path returns the log file path.
func (r *Recorder) Path() string { return r.path }

// Append writes one progress row, creating the file with a header row when
// it does not exist yet.
func (r *Recorder) Append(e model.ProgressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open progress log: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat progress log: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("write progress header: %w", err)
		}
	}
	row := []string{
		e.Timestamp.Format(timeLayout),
		e.Module,
		e.User,
		strconv.Itoa(e.Score),
		e.SessionID,
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("write progress row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush progress log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close progress log: %w", err)
	}
	return nil
}

// List reads all recorded entries. A missing log yields an empty list.
func (r *Recorder) List() ([]model.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open progress log: %w", err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read progress log: %w", err)
	}

	var entries []model.ProgressEntry
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == header[0] {
			continue
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("progress log row %d: expected %d columns, got %d", i+1, len(header), len(rec))
		}
		ts, err := time.Parse(timeLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("progress log row %d: parse timestamp: %w", i+1, err)
		}
		score, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("progress log row %d: parse score: %w", i+1, err)
		}
		entries = append(entries, model.ProgressEntry{
			Timestamp: ts,
			Module:    rec[1],
			User:      rec[2],
			Score:     score,
			SessionID: rec[4],
		})
	}
	return entries, nil
}

// Summarize aggregates entries per module for export.
func Summarize(entries []model.ProgressEntry, passingScore int) []model.ModuleSummary {
	byModule := make(map[string]*model.ModuleSummary)
	var order []string
	totals := make(map[string]int)

	for _, e := range entries {
		s, ok := byModule[e.Module]
		if !ok {
			s = &model.ModuleSummary{Module: e.Module}
			byModule[e.Module] = s
			order = append(order, e.Module)
		}
		s.Attempts++
		if e.Score >= passingScore {
			s.Passed++
		}
		totals[e.Module] += e.Score
	}

	summaries := make([]model.ModuleSummary, 0, len(order))
	for _, name := range order {
		s := byModule[name]
		if s.Attempts > 0 {
			s.AverageScore = float64(totals[name]) / float64(s.Attempts)
		}
		summaries = append(summaries, *s)
	}
	return summaries
}
