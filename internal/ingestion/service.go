package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
)

// Service loads the static animal outcome snapshot from its CSV file and
// maps the source columns onto RawOutcomeRecord fields by header name.
type Service struct{}

// NewService creates a new ingestion Service.
func NewService() *Service {
	return &Service{}
}

// SnapshotResult reports what a snapshot load produced. Skipped counts rows
// the CSV reader could not parse; they are logged, never fatal.
type SnapshotResult struct {
	Records []cleaning.RawOutcomeRecord
	Skipped int
}

// LoadSnapshot reads the outcome snapshot CSV at path. The first row must be
// a header row; column order does not matter. Short rows are padded with
// empty strings, matching how the source exports partial records.
func (s *Service) LoadSnapshot(path string) (*SnapshotResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot CSV %s: %w", path, err)
	}
	defer file.Close()

	result, err := s.ReadSnapshot(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot CSV %s: %w", path, err)
	}
	log.Printf("Loaded %d raw records from %s (%d unparseable rows skipped)", len(result.Records), path, result.Skipped)
	return result, nil
}

// ReadSnapshot reads snapshot rows from r. Exposed separately so callers can
// ingest from object storage streams as well as local files.
func (s *Service) ReadSnapshot(r io.Reader) (*SnapshotResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // source exports occasionally drop trailing columns

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &SnapshotResult{Records: []cleaning.RawOutcomeRecord{}}, nil
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range headers {
		headers[i] = normalizeHeader(headers[i])
	}

	result := &SnapshotResult{Records: make([]cleaning.RawOutcomeRecord, 0)}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Printf("Skipping unparseable CSV row at line %d: %v", line, err)
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV row at line %d: %w", line, err)
		}

		rowData := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				rowData[header] = row[i]
			} else {
				rowData[header] = "" // pad short rows
			}
		}
		result.Records = append(result.Records, recordFromRow(rowData))
	}
	return result, nil
}

// normalizeHeader lowercases a source column name and collapses spaces to
// underscores, so "Sex upon Outcome" and "sex_upon_outcome" map identically.
func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	return strings.ReplaceAll(header, " ", "_")
}

func recordFromRow(row map[string]string) cleaning.RawOutcomeRecord {
	return cleaning.RawOutcomeRecord{
		AnimalID:       row["animal_id"],
		Name:           row["name"],
		DateOfBirth:    row["date_of_birth"],
		OutcomeTime:    row["datetime"],
		MonthYear:      row["monthyear"],
		OutcomeType:    row["outcome_type"],
		OutcomeSubtype: row["outcome_subtype"],
		AnimalType:     row["animal_type"],
		SexUponOutcome: row["sex_upon_outcome"],
		AgeUponOutcome: row["age_upon_outcome"],
		Breed:          row["breed"],
		Color:          row["color"],
	}
}
