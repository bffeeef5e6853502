package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/apperrors"
)

const maxCategoricalSamples = 10

// CSVProcessor turns a tabular file into three chunk families: one dataset
// overview, one stats chunk per column, and blocks of rendered sample rows.
// Column chunks carry the column name in metadata so analytics queries can
// be scoped to a single column.
type CSVProcessor struct {
	chunker        *Chunker
	sampleRowBlock int
}

var _ Processor = &CSVProcessor{}

func NewCSVProcessor(chunker *Chunker, sampleRowBlock int) *CSVProcessor {
	if sampleRowBlock <= 0 {
		sampleRowBlock = 5
	}
	return &CSVProcessor{chunker: chunker, sampleRowBlock: sampleRowBlock}
}

func (p *CSVProcessor) Kind() entity.DocumentKind {
	return entity.KindTabular
}

func (p *CSVProcessor) Process(ctx context.Context, stagedPath, filename, documentId string) ([]entity.Chunk, error) {
	file, err := os.Open(stagedPath)
	if err != nil {
		return nil, apperrors.NewCorruptInputError("csv", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewCorruptInputError("csv", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewCorruptInputError("csv", errors.New("empty file"))
	}

	header := records[0]
	rows := records[1:]

	columns := analyzeColumns(header, rows)

	var chunks []entity.Chunk
	index := 0

	// Rendered texts go through the chunker so a wide dataset or a column
	// with long cell values still respects the chunk budget.
	emit := func(text, columnName string) {
		for _, piece := range p.chunker.Split(text) {
			chunk := newChunk(documentId, filename, entity.KindTabular, index, piece)
			if columnName != "" {
				chunk.Metadata[entity.MetaColumnName] = columnName
			}
			chunks = append(chunks, chunk)
			index++
		}
	}

	emit(overviewText(filename, header, rows, columns), "")

	for _, column := range columns {
		emit(column.describe(), column.name)
	}

	for start := 0; start < len(rows); start += p.sampleRowBlock {
		end := start + p.sampleRowBlock
		if end > len(rows) {
			end = len(rows)
		}
		emit(sampleRowsText(header, rows, start, end), "")
	}

	return chunks, nil
}

type columnStats struct {
	name     string
	numeric  bool
	nonEmpty int

	// numeric columns
	min  float64
	max  float64
	mean float64

	// categorical columns
	distinct int
	samples  []string
}

// analyzeColumns classifies each column as numeric when every non-empty
// cell parses as a number, otherwise categorical.
func analyzeColumns(header []string, rows [][]string) []columnStats {
	out := make([]columnStats, len(header))
	for col, name := range header {
		stats := columnStats{name: strings.TrimSpace(name), numeric: true}

		var sum float64
		seen := map[string]bool{}
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			stats.nonEmpty++

			if !seen[cell] {
				seen[cell] = true
				if len(stats.samples) < maxCategoricalSamples {
					stats.samples = append(stats.samples, cell)
				}
			}

			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				stats.numeric = false
				continue
			}
			if stats.nonEmpty == 1 || value < stats.min {
				stats.min = value
			}
			if stats.nonEmpty == 1 || value > stats.max {
				stats.max = value
			}
			sum += value
		}

		if stats.numeric && stats.nonEmpty > 0 {
			stats.mean = sum / float64(stats.nonEmpty)
		}
		stats.distinct = len(seen)
		sort.Strings(stats.samples)
		out[col] = stats
	}
	return out
}

func (c columnStats) describe() string {
	if c.numeric && c.nonEmpty > 0 {
		return fmt.Sprintf("Column '%s': numeric data, %d values, min: %.2f, max: %.2f, mean: %.2f",
			c.name, c.nonEmpty, c.min, c.max, c.mean)
	}
	return fmt.Sprintf("Column '%s': categorical data, %d values, %d distinct (examples: %s)",
		c.name, c.nonEmpty, c.distinct, strings.Join(c.samples, ", "))
}

func overviewText(filename string, header []string, rows [][]string, columns []columnStats) string {
	var numeric, categorical []string
	for _, column := range columns {
		if column.numeric && column.nonEmpty > 0 {
			numeric = append(numeric, column.name)
		} else {
			categorical = append(categorical, column.name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset overview for %s:\n", filename)
	fmt.Fprintf(&b, "Total rows: %d, Total columns: %d\n", len(rows), len(header))
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(header, ", "))
	fmt.Fprintf(&b, "Numeric columns: %s\n", strings.Join(numeric, ", "))
	fmt.Fprintf(&b, "Categorical columns: %s", strings.Join(categorical, ", "))
	return b.String()
}

func sampleRowsText(header []string, rows [][]string, start, end int) string {
	var b strings.Builder
	b.WriteString("Sample data:\n")
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "Row %d: ", i+1)
		parts := make([]string, 0, len(header))
		for col, name := range header {
			value := ""
			if col < len(rows[i]) {
				value = rows[i][col]
			}
			parts = append(parts, fmt.Sprintf("%s=%s", name, value))
		}
		b.WriteString(strings.Join(parts, ", "))
		if i+1 < end {
			b.WriteString("\n")
		}
	}
	return b.String()
}
