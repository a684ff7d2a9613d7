package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/sherine-k/prodtwin/pkg/simulation"
)

// Format is a tabular file format the table can be written in
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat resolves a format name, or the extension of path when name is empty.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch Format(name) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported output format %q", name)
}

// Metadata describes the run a table came from
type Metadata struct {
	RunID       uuid.UUID `json:"run_id"`
	Seed        *int64    `json:"seed"`
	Steps       int       `json:"steps"`
	GeneratedAt time.Time `json:"generated_at"`
}

// WriteFile writes the table to path in the given format
func WriteFile(path string, format Format, table *simulation.Table, meta Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	switch format {
	case FormatJSON:
		err = WriteJSON(f, table, meta)
	default:
		err = WriteCSV(f, table)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s output: %w", format, err)
	}

	return f.Close()
}

// WriteCSV writes a header row followed by one row per record
func WriteCSV(w io.Writer, table *simulation.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns()); err != nil {
		return err
	}

	row := make([]string, len(table.Columns()))
	for i := 0; i < table.Len(); i++ {
		for k, v := range table.Row(i) {
			row[k] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type jsonDocument struct {
	Metadata Metadata             `json:"metadata"`
	Columns  []string             `json:"columns"`
	Records  []map[string]float64 `json:"records"`
}

// WriteJSON writes the table as a document with run metadata and one
// object per record keyed by column name.
func WriteJSON(w io.Writer, table *simulation.Table, meta Metadata) error {
	columns := table.Columns()
	doc := jsonDocument{
		Metadata: meta,
		Columns:  columns,
		Records:  make([]map[string]float64, table.Len()),
	}
	for i := range doc.Records {
		rec := make(map[string]float64, len(columns))
		for k, v := range table.Row(i) {
			rec[columns[k]] = v
		}
		doc.Records[i] = rec
	}

	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
