package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, testObjects()), mock
}

func TestSetup_ExecutesEveryStatement(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS ANIMAL_INSIGHTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE FILE FORMAT IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.Setup(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStorageIntegration_RequiresRoleARN(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	objects := testObjects()
	objects.RoleARN = ""
	svc := NewService(db, objects)

	err = svc.CreateStorageIntegration(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role ARN")
}

func TestDescribeIntegration_ExtractsTrustValues(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("DESCRIBE INTEGRATION ANIMAL_INSIGHTS_S3").WillReturnRows(
		sqlmock.NewRows([]string{"property", "property_type", "property_value", "property_default"}).
			AddRow("ENABLED", "Boolean", "true", "false").
			AddRow("STORAGE_AWS_IAM_USER_ARN", "String", "arn:aws:iam::000000000000:user/sf-user", "").
			AddRow("STORAGE_AWS_EXTERNAL_ID", "String", "ABC_SFCRole=2_xyz", "").
			AddRow("STORAGE_ALLOWED_LOCATIONS", "List", "s3://animal-insights-data-abc123/", "[]"),
	)

	details, err := svc.DescribeIntegration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::000000000000:user/sf-user", details.IAMUserARN)
	assert.Equal(t, "ABC_SFCRole=2_xyz", details.ExternalID)
}

func TestDescribeIntegration_MissingTrustValues(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("DESCRIBE INTEGRATION").WillReturnRows(
		sqlmock.NewRows([]string{"property", "property_type", "property_value", "property_default"}).
			AddRow("ENABLED", "Boolean", "true", "false"),
	)

	_, err := svc.DescribeIntegration(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not report")
}

func TestLoadRaw_CopiesAndCounts(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("COPY INTO").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ANIMAL_INSIGHTS.OUTCOMES.RAW_OUTCOMES`).WillReturnRows(
		sqlmock.NewRows([]string{"COUNT"}).AddRow(78256))

	rows, err := svc.LoadRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 78256, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCleanRecords_ScansNulls(t *testing.T) {
	svc, mock := newTestService(t)

	outcomeTime := time.Date(2014, 7, 22, 16, 4, 0, 0, time.UTC)
	mock.ExpectQuery("FROM ANIMAL_INSIGHTS.OUTCOMES.CLEAN_OUTCOMES").WillReturnRows(
		sqlmock.NewRows([]string{
			"ANIMAL_ID", "NAME", "ANIMAL_TYPE", "SEX_OUTCOME", "AGE_IN_DAYS", "BREED",
			"PRIMARY_BREED", "COLOR", "OUTCOME_TYPE", "OUTCOME_SUBTYPE", "ADOPTION",
			"DATE_OF_BIRTH", "OUTCOME_DATETIME", "OUTCOME_HOUR", "OUTCOME_MONTH", "OUTCOME_YEAR",
		}).
			AddRow("A684346", "Bella", "DOG", "SPAYED FEMALE", 730, "Labrador Retriever Mix",
				"Labrador Retriever ", "Black/White", "ADOPTION", nil, 1,
				nil, outcomeTime, 16, 7, 2014).
			AddRow("A683115", "Unknown", "OTHER", "UNKNOWN", nil, "Bat Mix",
				"Bat ", "Brown", "EUTHANASIA", "Suffering", 0,
				nil, nil, nil, nil, nil),
	)

	records, err := svc.QueryCleanRecords(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.NotNil(t, first.AgeInDays)
	assert.Equal(t, 730, *first.AgeInDays)
	assert.Equal(t, 1, first.Adoption)
	require.NotNil(t, first.OutcomeMonth)
	assert.Equal(t, 7, *first.OutcomeMonth)
	require.NotNil(t, first.OutcomeDatetime)
	assert.Nil(t, first.DateOfBirth)

	second := records[1]
	assert.Nil(t, second.AgeInDays)
	assert.Nil(t, second.OutcomeDatetime)
	assert.Equal(t, "Suffering", second.OutcomeSubtype)
	assert.Equal(t, 0, second.Adoption)
}

func TestQueryCleanRecords_AppliesLimit(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("CLEAN_OUTCOMES LIMIT 5").WillReturnRows(
		sqlmock.NewRows([]string{
			"ANIMAL_ID", "NAME", "ANIMAL_TYPE", "SEX_OUTCOME", "AGE_IN_DAYS", "BREED",
			"PRIMARY_BREED", "COLOR", "OUTCOME_TYPE", "OUTCOME_SUBTYPE", "ADOPTION",
			"DATE_OF_BIRTH", "OUTCOME_DATETIME", "OUTCOME_HOUR", "OUTCOME_MONTH", "OUTCOME_YEAR",
		}),
	)

	records, err := svc.QueryCleanRecords(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(db, testObjects())

	mock.ExpectPing()
	assert.NoError(t, svc.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
