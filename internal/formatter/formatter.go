// package formatter exports wardrobe listings and upload history to CSV, JSON, YAML and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format is an export format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats in help order.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat maps a flag value to a [Format]. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, yaml or csv)", shared.ErrInvalidArgument, s)
	}
}

// Ext is the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// ExportItems encodes items in format.
func ExportItems(items []models.WardrobeItem, format Format) ([]byte, error) {
	if items == nil {
		items = []models.WardrobeItem{}
	}

	switch format {
	case FormatJSON:
		return marshalJSON(items)
	case FormatYAML:
		return marshalYAML(items)
	case FormatCSV:
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{item.Path, item.URL, item.Category.String(), item.Tags})
		}
		return marshalCSV([]string{"Path", "URL", "Category", "Tags"}, rows)
	default:
		return itemsText(items), nil
	}
}

// ExportHistory encodes upload records in format.
func ExportHistory(records []models.UploadRecord, format Format) ([]byte, error) {
	if records == nil {
		records = []models.UploadRecord{}
	}

	switch format {
	case FormatJSON:
		return marshalJSON(records)
	case FormatYAML:
		return marshalYAML(records)
	case FormatCSV:
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				r.CreatedAt.Format(time.RFC3339),
				r.BatchID,
				r.Page.String(),
				r.Category.String(),
				r.FileName,
				strconv.FormatBool(r.Succeeded),
				r.Reason,
			})
		}
		return marshalCSV([]string{"Time", "Batch", "Page", "Category", "File", "Succeeded", "Reason"}, rows)
	default:
		return historyText(records), nil
	}
}

// WriteItems writes items to w in format.
func WriteItems(w io.Writer, items []models.WardrobeItem, format Format) error {
	data, err := ExportItems(items, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteHistory writes upload records to w in format.
func WriteHistory(w io.Writer, records []models.UploadRecord, format Format) error {
	data, err := ExportHistory(records, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteExport writes items to a file and returns its path.
//
// Defaults to {kind}.{ext} in the working directory.
func WriteExport(items []models.WardrobeItem, format Format, kind models.PageKind, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", kind, format.Ext())
	}

	data, err := ExportItems(items, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func itemsText(items []models.WardrobeItem) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Items: %d\n\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&buf, "%d. [%s] %s - %s\n", i+1, item.Category, item.URL, item.Caption())
	}
	return buf.Bytes()
}

func historyText(records []models.UploadRecord) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		mark := "✓"
		if !r.Succeeded {
			mark = "✗"
		}
		fmt.Fprintf(&buf, "%s %s %s (%s/%s)", r.CreatedAt.Local().Format("2006-01-02 15:04"), mark, r.FileName, r.Page, r.Category)
		if r.Reason != "" {
			fmt.Fprintf(&buf, ": %s", r.Reason)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}
