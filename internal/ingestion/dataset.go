package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
)

// TrainingHeader is the column order of the training dataset CSV uploaded
// for the managed trainer: the binary label followed by the canonical
// feature names from the cleaning projection.
var TrainingHeader = []string{
	"adoption",
	"animal_type",
	"sex_outcome",
	"age_in_days",
	"primary_breed",
	"color",
	"outcome_month",
}

// WriteTrainingCSV encodes cleaned records as the labeled training dataset.
// Unknown ages and months serialize as empty cells so the training container
// applies its own imputation instead of receiving a guessed zero.
func WriteTrainingCSV(w io.Writer, records []cleaning.CleanOutcomeRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TrainingHeader); err != nil {
		return fmt.Errorf("failed to write training CSV header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Adoption),
			rec.AnimalType,
			rec.SexOutcome,
			intCell(rec.AgeInDays),
			rec.PrimaryBreed,
			rec.Color,
			intCell(rec.OutcomeMonth),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write training CSV row for %s: %w", rec.AnimalID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
