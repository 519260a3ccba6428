package project

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ResultsLog appends run statistics to a JSON lines file. It is safe for concurrent use.
type ResultsLog struct {
	path string
	mu   sync.Mutex
}

// NewResultsLog returns a log writing to path. The file is created on first append.
func NewResultsLog(path string) *ResultsLog {
	return &ResultsLog{path: path}
}

// Path returns the file the log writes to.
func (l *ResultsLog) Path() string { return l.path }

// Append writes stats as one JSON line.
func (l *ResultsLog) Append(stats model.Stats) error {
	line, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open results file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to write result: %w", err)
	}
	return f.Close()
}

// ReadResults reads every JSON line from a results file. Blank lines are skipped.
func ReadResults(path string) ([]model.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	var results []model.Stats
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var s model.Stats
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("failed to parse result on line %d: %w", line, err)
		}
		results = append(results, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	return results, nil
}
