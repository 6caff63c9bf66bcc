package cleaning

import (
	"fmt"
	"strings"
	"time"
)

// Textual layouts used by the upstream outcome snapshot. Timestamps that do
// not parse with these layouts become null rather than failing the record.
const (
	TimestampLayout = "01/02/2006 03:04:05 PM"
	DateLayout      = "01/02/2006"
)

// NameSentinel replaces blank or missing animal names.
const NameSentinel = "Unknown"

// RawOutcomeRecord is one row of the upstream animal outcome snapshot, loaded
// verbatim. All fields are free text exactly as they appear in the source.
type RawOutcomeRecord struct {
	AnimalID       string `json:"animal_id"`
	Name           string `json:"name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	OutcomeTime    string `json:"datetime,omitempty"`
	MonthYear      string `json:"monthyear,omitempty"`
	OutcomeType    string `json:"outcome_type"`
	OutcomeSubtype string `json:"outcome_subtype,omitempty"`
	AnimalType     string `json:"animal_type,omitempty"`
	SexUponOutcome string `json:"sex_upon_outcome,omitempty"`
	AgeUponOutcome string `json:"age_upon_outcome,omitempty"`
	Breed          string `json:"breed,omitempty"`
	Color          string `json:"color,omitempty"`
}

// CleanOutcomeRecord is the normalized projection of a RawOutcomeRecord.
// Pointer fields are nil when the source value was missing or unparseable;
// they serialize as JSON null and are imputed downstream.
type CleanOutcomeRecord struct {
	AnimalID        string     `json:"animal_id"`
	Name            string     `json:"name"`
	AnimalType      string     `json:"animal_type"`
	SexOutcome      string     `json:"sex_outcome"`
	AgeInDays       *int       `json:"age_in_days"`
	Breed           string     `json:"breed"`
	PrimaryBreed    string     `json:"primary_breed"`
	Color           string     `json:"color"`
	OutcomeType     string     `json:"outcome_type"`
	OutcomeSubtype  string     `json:"outcome_subtype"`
	Adoption        int        `json:"adoption"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	OutcomeDatetime *time.Time `json:"outcome_datetime"`
	OutcomeHour     *int       `json:"outcome_hour"`
	OutcomeMonth    *int       `json:"outcome_month"`
	OutcomeYear     *int       `json:"outcome_year"`
}

// FeatureRecord carries the canonical feature set exchanged with the model
// endpoint. Fields are named, not positional; consumers must not depend on
// ordering. AgeInDays stays null when unknown so the serving container can
// apply the same imputation used at training time.
type FeatureRecord struct {
	AnimalType   string `json:"animal_type"`
	SexOutcome   string `json:"sex_outcome"`
	AgeInDays    *int   `json:"age_in_days"`
	PrimaryBreed string `json:"primary_breed"`
	Color        string `json:"color"`
	OutcomeMonth *int   `json:"outcome_month"`
}

// PrimaryBreed derives the primary breed by truncating the breed text at the
// first occurrence of the "Mix" marker. "Labrador Retriever Mix" becomes
// "Labrador Retriever"; breeds without the marker pass through trimmed.
func PrimaryBreed(breed string) string {
	breed = strings.TrimSpace(breed)
	if idx := strings.Index(breed, "Mix"); idx >= 0 {
		return strings.TrimSpace(breed[:idx])
	}
	return breed
}

// Clean applies the per-record projection. It is a pure function: no I/O, no
// shared state, safe to run concurrently over independent records.
//
// The only error case is a violation of the usability invariant (animal ID
// and outcome type must be non-null); such records are excluded by the
// caller, which counts and logs the exclusion. Every other malformed field
// degrades to a sentinel or a null, never to a failed record.
func Clean(raw RawOutcomeRecord) (CleanOutcomeRecord, error) {
	animalID := strings.TrimSpace(raw.AnimalID)
	outcomeType := strings.TrimSpace(raw.OutcomeType)
	if animalID == "" {
		return CleanOutcomeRecord{}, fmt.Errorf("record missing animal_id")
	}
	if outcomeType == "" {
		return CleanOutcomeRecord{}, fmt.Errorf("record %s missing outcome_type", animalID)
	}

	clean := CleanOutcomeRecord{
		AnimalID:       animalID,
		Name:           cleanName(raw.Name),
		AnimalType:     strings.ToUpper(strings.TrimSpace(raw.AnimalType)),
		SexOutcome:     strings.ToUpper(strings.TrimSpace(raw.SexUponOutcome)),
		Breed:          strings.TrimSpace(raw.Breed),
		PrimaryBreed:   PrimaryBreed(raw.Breed),
		Color:          strings.TrimSpace(raw.Color),
		OutcomeType:    strings.ToUpper(outcomeType),
		OutcomeSubtype: strings.TrimSpace(raw.OutcomeSubtype),
		Adoption:       AdoptionLabel(outcomeType),
	}

	if days, ok := AgeInDays(raw.AgeUponOutcome); ok {
		clean.AgeInDays = &days
	}

	if ts, ok := parseTimestamp(raw.OutcomeTime); ok {
		clean.OutcomeDatetime = &ts
		hour, month, year := ts.Hour(), int(ts.Month()), ts.Year()
		clean.OutcomeHour = &hour
		clean.OutcomeMonth = &month
		clean.OutcomeYear = &year
	}

	if dob, ok := parseDate(raw.DateOfBirth); ok {
		clean.DateOfBirth = &dob
	}

	return clean, nil
}

// Features projects a clean record onto the canonical model feature set.
func Features(clean CleanOutcomeRecord) FeatureRecord {
	return FeatureRecord{
		AnimalType:   clean.AnimalType,
		SexOutcome:   clean.SexOutcome,
		AgeInDays:    clean.AgeInDays,
		PrimaryBreed: clean.PrimaryBreed,
		Color:        clean.Color,
		OutcomeMonth: clean.OutcomeMonth,
	}
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return NameSentinel
	}
	return name
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
