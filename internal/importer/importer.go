// Package importer parses bank and card CSV exports into raw transactions.
// Parsers keep each source's native sign convention.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// FileMeta carries what a parser cannot read from the file body.
type FileMeta struct {
	Name        string
	Source      string
	AccountID   string
	AccountType model.AccountType
}

// SkippedRow is a row dropped because a value could not be parsed.
type SkippedRow struct {
	Reason string
	Line   int
}

// Result is the outcome of parsing one file.
type Result struct {
	Rows    []model.RawTransaction
	Skipped []SkippedRow
}

// Parser converts a CSV export into raw transactions.
type Parser interface {
	Parse(r io.Reader, meta FileMeta) (*Result, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names in sorted order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ConsolidatedParser{})
	r.Register(&AmexParser{})
	r.Register(&ChaseParser{})
	return r
}

// Format names of the built-in parsers.
const (
	FormatConsolidated = "consolidated"
	FormatAmex         = "amex"
	FormatChase        = "chase"
)

var chaseAccountPattern = regexp.MustCompile(`(?i)chase(\d+)`)

// DetectFormat guesses the parser from a file name: Amex and Chase exports
// are recognized by their prefix, anything else is the consolidated layout.
func DetectFormat(filename string) string {
	base := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.HasPrefix(base, "amex"):
		return FormatAmex
	case strings.HasPrefix(base, "chase"):
		return FormatChase
	default:
		return FormatConsolidated
	}
}

// MetaFromFilename derives source and account id from an export's file name,
// e.g. "Amex1005_20240101_20240131.csv" or "Chase4321_Activity.CSV".
func MetaFromFilename(format, filename string) FileMeta {
	base := filepath.Base(filename)
	meta := FileMeta{Name: base}

	switch format {
	case FormatAmex:
		id := strings.SplitN(strings.TrimSuffix(base, filepath.Ext(base)), "_", 2)[0]
		if len(id) > len("amex") && strings.EqualFold(id[:len("amex")], "amex") {
			id = id[len("amex"):]
		}
		meta.AccountID = id
		meta.Source = "Amex_" + id
		meta.AccountType = model.AccountCreditCard
	case FormatChase:
		meta.AccountID = "Unknown"
		if m := chaseAccountPattern.FindStringSubmatch(base); m != nil {
			meta.AccountID = m[1]
		}
		meta.Source = "Chase_" + meta.AccountID
		meta.AccountType = model.AccountCreditCard
	}
	return meta
}

// FileInfo describes a CSV file found by Scan.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the CSV files in dir, sorted by name.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// ParseFile opens path and parses it with the parser for format. An empty
// format is detected from the file name.
func (r *Registry) ParseFile(path, format string) (*Result, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	p := r.Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown import format %q (known: %s)", format, strings.Join(r.Formats(), ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	result, err := p.Parse(f, MetaFromFilename(p.Format(), path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return result, nil
}
