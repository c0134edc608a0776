package record

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

type FileType string

const FILE_TYPE_EXCEL FileType = "excel"
const FILE_TYPE_TEXT FileType = "text"

// Ref names one flow-authored record file.
type Ref struct {
	Type FileType
	Name string
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SanitizeName reduces an author-supplied file name to [A-Za-z0-9_-]+,
// falling back to "data" when nothing survives.
func SanitizeName(value string) string {
	cleaned := unsafeNameRe.ReplaceAllString(strings.TrimSpace(value), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "data"
	}
	return cleaned
}

// Store is the file-backed mini-database flows write to: one column-indexed
// CSV table and one line-oriented text log per (bot, logical name). Writes
// are serialized per file; there is no cross-bot contention because paths
// are namespaced by bot id.
type Store struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	for _, sub := range []string{"excel", "text"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating record dir: %w", err)
		}
	}
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) ExcelPath(botID, name string) string {
	return filepath.Join(s.dir, "excel", fmt.Sprintf("%s__%s.csv", SanitizeName(botID), SanitizeName(name)))
}

func (s *Store) TextPath(botID, name string) string {
	return filepath.Join(s.dir, "text", fmt.Sprintf("%s__%s.txt", SanitizeName(botID), SanitizeName(name)))
}

func (s *Store) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// AppendLine appends a trimmed non-empty line to the text log.
func (s *Store) AppendLine(botID, name, value string) error {
	line := strings.TrimSpace(value)
	if line == "" {
		return nil
	}
	path := s.TextPath(botID, name)
	l := s.lock(path)
	l.Lock()
	defer l.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// AppendColumn upserts the column into the header and appends a row holding
// the value under it, all other columns blank. The column set only grows.
func (s *Store) AppendColumn(botID, name, column, value string) error {
	column = strings.TrimSpace(column)
	if column == "" {
		column = "Value"
	}
	value = strings.TrimSpace(value)
	path := s.ExcelPath(botID, name)
	l := s.lock(path)
	l.Lock()
	defer l.Unlock()

	headers, rows, err := readTable(path)
	if err != nil {
		return err
	}
	found := false
	for _, h := range headers {
		if h == column {
			found = true
			break
		}
	}
	if !found {
		headers = append(headers, column)
	}
	row := make(map[string]string, len(headers))
	row[column] = value
	rows = append(rows, row)
	return writeTable(path, headers, rows)
}

// SearchColumn returns the first row whose cell in the named column equals
// the value case-insensitively.
func (s *Store) SearchColumn(botID, name, column, value string) (map[string]string, bool, error) {
	path := s.ExcelPath(botID, name)
	l := s.lock(path)
	l.Lock()
	defer l.Unlock()

	_, rows, err := readTable(path)
	if err != nil {
		return nil, false, err
	}
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row[column]), strings.TrimSpace(value)) {
			return row, true, nil
		}
	}
	return nil, false, nil
}

// SearchLine matches whole lines of the text log case-insensitively. A match
// is returned as a one-column row so downstream rendering sees {row[value]}.
func (s *Store) SearchLine(botID, name, value string) (map[string]string, bool, error) {
	path := s.TextPath(botID, name)
	l := s.lock(path)
	l.Lock()
	defer l.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	needle := strings.TrimSpace(value)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, needle) {
			return map[string]string{"value": line}, true, nil
		}
	}
	return nil, false, scanner.Err()
}

func readTable(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	headers := records[0]
	var rows []map[string]string
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func writeTable(path string, headers []string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	writer := csv.NewWriter(f)
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(headers))
		for i, h := range headers {
			rec[i] = row[h]
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
