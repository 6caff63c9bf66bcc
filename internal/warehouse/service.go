package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
)

// Service issues SQL against the warehouse: one-time setup DDL, the storage
// integration for the credential bootstrap, raw loads from the stage, and
// reads of the clean view. It never transforms data itself; the clean view
// is the warehouse-side twin of the cleaning package.
type Service struct {
	db      *sql.DB
	objects Objects
}

// NewService creates a warehouse Service over an open connection.
func NewService(db *sql.DB, objects Objects) *Service {
	return &Service{db: db, objects: objects}
}

// Setup creates database, schema, file format and raw table. Idempotent.
func (s *Service) Setup(ctx context.Context) error {
	for _, stmt := range setupStatements {
		rendered, err := renderSQL(stmt, s.objects)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, rendered); err != nil {
			return fmt.Errorf("warehouse setup statement failed: %w", err)
		}
	}
	log.Printf("Warehouse setup completed for %s.%s", s.objects.Database, s.objects.Schema)
	return nil
}

// CreateStorageIntegration declares the storage integration pointing at the
// IAM role. Must run before CreateStage.
func (s *Service) CreateStorageIntegration(ctx context.Context) error {
	if s.objects.RoleARN == "" {
		return fmt.Errorf("storage integration requires a role ARN")
	}
	rendered, err := renderSQL(integrationStatement, s.objects)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, rendered); err != nil {
		return fmt.Errorf("failed to create storage integration %s: %w", s.objects.Integration, err)
	}
	return nil
}

// IntegrationDetails carries the two values the operator must copy into the
// IAM role trust policy to finish the credential bootstrap.
type IntegrationDetails struct {
	IAMUserARN string `json:"storage_aws_iam_user_arn"`
	ExternalID string `json:"storage_aws_external_id"`
}

// DescribeIntegration reads the integration properties and extracts the
// warehouse-side IAM user ARN and external ID.
func (s *Service) DescribeIntegration(ctx context.Context) (*IntegrationDetails, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("DESCRIBE INTEGRATION %s", s.objects.Integration))
	if err != nil {
		return nil, fmt.Errorf("failed to describe integration %s: %w", s.objects.Integration, err)
	}
	defer rows.Close()

	details := &IntegrationDetails{}
	for rows.Next() {
		// DESCRIBE INTEGRATION returns property, property_type,
		// property_value, property_default.
		var property, propertyType, value, defaultValue sql.NullString
		if err := rows.Scan(&property, &propertyType, &value, &defaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan integration property: %w", err)
		}
		switch strings.ToUpper(property.String) {
		case "STORAGE_AWS_IAM_USER_ARN":
			details.IAMUserARN = value.String
		case "STORAGE_AWS_EXTERNAL_ID":
			details.ExternalID = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read integration properties: %w", err)
	}
	if details.IAMUserARN == "" || details.ExternalID == "" {
		return nil, fmt.Errorf("integration %s did not report IAM user ARN and external ID", s.objects.Integration)
	}
	return details, nil
}

// CreateStage binds the external stage to the bucket. Runs after the
// credential bootstrap completed on the IAM side.
func (s *Service) CreateStage(ctx context.Context) error {
	rendered, err := renderSQL(stageStatement, s.objects)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, rendered); err != nil {
		return fmt.Errorf("failed to create stage %s: %w", s.objects.Stage, err)
	}
	return nil
}

// LoadRaw copies staged files into the raw table and returns the resulting
// raw row count. Load errors on individual rows are skipped by the copy
// (ON_ERROR = CONTINUE), mirroring how the snapshot tolerates bad rows.
func (s *Service) LoadRaw(ctx context.Context) (int, error) {
	rendered, err := renderSQL(copyStatement, s.objects)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, rendered); err != nil {
		return 0, fmt.Errorf("failed to copy staged files into raw table: %w", err)
	}
	return s.CountRows(ctx, "RAW_OUTCOMES")
}

// CreateCleanView (re)creates the clean view over the raw table.
func (s *Service) CreateCleanView(ctx context.Context) error {
	rendered, err := renderSQL(cleanViewStatement, s.objects)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, rendered); err != nil {
		return fmt.Errorf("failed to create clean view: %w", err)
	}
	return nil
}

// CountRows counts rows in a warehouse table or view.
func (s *Service) CountRows(ctx context.Context, object string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s.%s", s.objects.Database, s.objects.Schema, object)
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", object, err)
	}
	return count, nil
}

// QueryCleanRecords reads up to limit rows from the clean view. A limit of
// 0 or less reads everything.
func (s *Service) QueryCleanRecords(ctx context.Context, limit int) ([]cleaning.CleanOutcomeRecord, error) {
	query := fmt.Sprintf(`SELECT ANIMAL_ID, NAME, ANIMAL_TYPE, SEX_OUTCOME, AGE_IN_DAYS, BREED, PRIMARY_BREED,
  COLOR, OUTCOME_TYPE, OUTCOME_SUBTYPE, ADOPTION, DATE_OF_BIRTH, OUTCOME_DATETIME,
  OUTCOME_HOUR, OUTCOME_MONTH, OUTCOME_YEAR
FROM %s.%s.CLEAN_OUTCOMES`, s.objects.Database, s.objects.Schema)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clean view: %w", err)
	}
	defer rows.Close()

	var records []cleaning.CleanOutcomeRecord
	for rows.Next() {
		rec, err := scanCleanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading clean view rows: %w", err)
	}
	return records, nil
}

func scanCleanRecord(rows *sql.Rows) (cleaning.CleanOutcomeRecord, error) {
	var rec cleaning.CleanOutcomeRecord
	var subtype sql.NullString
	var age, hour, month, year sql.NullInt64
	var dob, outcome sql.NullTime

	err := rows.Scan(
		&rec.AnimalID, &rec.Name, &rec.AnimalType, &rec.SexOutcome, &age,
		&rec.Breed, &rec.PrimaryBreed, &rec.Color, &rec.OutcomeType, &subtype,
		&rec.Adoption, &dob, &outcome, &hour, &month, &year,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan clean record: %w", err)
	}

	rec.OutcomeSubtype = subtype.String
	if age.Valid {
		v := int(age.Int64)
		rec.AgeInDays = &v
	}
	if hour.Valid {
		v := int(hour.Int64)
		rec.OutcomeHour = &v
	}
	if month.Valid {
		v := int(month.Int64)
		rec.OutcomeMonth = &v
	}
	if year.Valid {
		v := int(year.Int64)
		rec.OutcomeYear = &v
	}
	if dob.Valid {
		t := dob.Time
		rec.DateOfBirth = &t
	}
	if outcome.Valid {
		t := outcome.Time
		rec.OutcomeDatetime = &t
	}
	return rec, nil
}

// Ping verifies connectivity; used by preflight validation.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("warehouse is not reachable: %w", err)
	}
	return nil
}
