package warehouse

import (
	"bytes"
	"fmt"
	"text/template"
)

// Objects names the warehouse objects the pipeline owns. Everything is
// rendered into SQL with text/template; names are operator configuration,
// not user input.
type Objects struct {
	Database    string
	Schema      string
	Warehouse   string
	Stage       string
	Integration string
	BucketName  string
	RoleARN     string
	StagePrefix string
}

// setupStatements creates the database, schema, file format, stage and raw
// table. Statements are idempotent so setup can be re-run safely.
var setupStatements = []string{
	`CREATE DATABASE IF NOT EXISTS {{.Database}}`,
	`CREATE SCHEMA IF NOT EXISTS {{.Database}}.{{.Schema}}`,
	`CREATE FILE FORMAT IF NOT EXISTS {{.Database}}.{{.Schema}}.OUTCOMES_CSV
  TYPE = 'CSV'
  FIELD_DELIMITER = ','
  SKIP_HEADER = 1
  FIELD_OPTIONALLY_ENCLOSED_BY = '"'
  EMPTY_FIELD_AS_NULL = TRUE`,
	`CREATE TABLE IF NOT EXISTS {{.Database}}.{{.Schema}}.RAW_OUTCOMES (
  ANIMAL_ID        VARCHAR(32),
  NAME             VARCHAR(255),
  DATETIME         VARCHAR(64),
  MONTHYEAR        VARCHAR(32),
  DATE_OF_BIRTH    VARCHAR(32),
  OUTCOME_TYPE     VARCHAR(64),
  OUTCOME_SUBTYPE  VARCHAR(64),
  ANIMAL_TYPE      VARCHAR(32),
  SEX_UPON_OUTCOME VARCHAR(64),
  AGE_UPON_OUTCOME VARCHAR(32),
  BREED            VARCHAR(255),
  COLOR            VARCHAR(255)
)`,
}

// stageStatement binds the external stage to the S3 bucket through the
// storage integration. Separate from setupStatements because the
// integration only exists after the credential bootstrap.
const stageStatement = `CREATE STAGE IF NOT EXISTS {{.Database}}.{{.Schema}}.{{.Stage}}
  STORAGE_INTEGRATION = {{.Integration}}
  URL = 's3://{{.BucketName}}/raw/'
  FILE_FORMAT = {{.Database}}.{{.Schema}}.OUTCOMES_CSV`

// integrationStatement declares the cross-account trust toward the IAM
// role. Snowflake answers with its own IAM user ARN and external ID, which
// the operator feeds back into the role's trust policy (two-stage
// bootstrap).
const integrationStatement = `CREATE STORAGE INTEGRATION IF NOT EXISTS {{.Integration}}
  TYPE = EXTERNAL_STAGE
  STORAGE_PROVIDER = 'S3'
  ENABLED = TRUE
  STORAGE_AWS_ROLE_ARN = '{{.RoleARN}}'
  STORAGE_ALLOWED_LOCATIONS = ('s3://{{.BucketName}}/')`

const copyStatement = `COPY INTO {{.Database}}.{{.Schema}}.RAW_OUTCOMES
FROM @{{.Database}}.{{.Schema}}.{{.Stage}}{{.StagePrefix}}
ON_ERROR = 'CONTINUE'`

// cleanViewStatement recomputes the normalized projection on every read.
// It must stay field-for-field equivalent with cleaning.Clean: same name
// sentinel, same casing rules, same unit order (year, month, week, day) in
// the age CASE, same adoption-label rule, and the same usability filter.
const cleanViewStatement = `CREATE OR REPLACE VIEW {{.Database}}.{{.Schema}}.CLEAN_OUTCOMES AS
SELECT
  TRIM(ANIMAL_ID)                                  AS ANIMAL_ID,
  COALESCE(NULLIF(TRIM(NAME), ''), 'Unknown')      AS NAME,
  UPPER(TRIM(ANIMAL_TYPE))                         AS ANIMAL_TYPE,
  UPPER(TRIM(SEX_UPON_OUTCOME))                    AS SEX_OUTCOME,
  CASE
    WHEN REGEXP_SUBSTR(AGE_UPON_OUTCOME, '[0-9]+') IS NULL THEN NULL
    WHEN CONTAINS(LOWER(AGE_UPON_OUTCOME), 'year')  THEN TO_NUMBER(REGEXP_SUBSTR(AGE_UPON_OUTCOME, '[0-9]+')) * 365
    WHEN CONTAINS(LOWER(AGE_UPON_OUTCOME), 'month') THEN TO_NUMBER(REGEXP_SUBSTR(AGE_UPON_OUTCOME, '[0-9]+')) * 30
    WHEN CONTAINS(LOWER(AGE_UPON_OUTCOME), 'week')  THEN TO_NUMBER(REGEXP_SUBSTR(AGE_UPON_OUTCOME, '[0-9]+')) * 7
    WHEN CONTAINS(LOWER(AGE_UPON_OUTCOME), 'day')   THEN TO_NUMBER(REGEXP_SUBSTR(AGE_UPON_OUTCOME, '[0-9]+'))
    ELSE NULL
  END                                              AS AGE_IN_DAYS,
  TRIM(BREED)                                      AS BREED,
  CASE
    WHEN POSITION('Mix' IN BREED) > 0 THEN TRIM(LEFT(BREED, POSITION('Mix' IN BREED) - 1))
    ELSE TRIM(BREED)
  END                                              AS PRIMARY_BREED,
  TRIM(COLOR)                                      AS COLOR,
  UPPER(TRIM(OUTCOME_TYPE))                        AS OUTCOME_TYPE,
  TRIM(OUTCOME_SUBTYPE)                            AS OUTCOME_SUBTYPE,
  CASE WHEN LOWER(TRIM(OUTCOME_TYPE)) = 'adoption' THEN 1 ELSE 0 END AS ADOPTION,
  TRY_TO_DATE(DATE_OF_BIRTH, 'MM/DD/YYYY')                        AS DATE_OF_BIRTH,
  TRY_TO_TIMESTAMP(DATETIME, 'MM/DD/YYYY HH12:MI:SS AM')          AS OUTCOME_DATETIME,
  HOUR(TRY_TO_TIMESTAMP(DATETIME, 'MM/DD/YYYY HH12:MI:SS AM'))    AS OUTCOME_HOUR,
  MONTH(TRY_TO_TIMESTAMP(DATETIME, 'MM/DD/YYYY HH12:MI:SS AM'))   AS OUTCOME_MONTH,
  YEAR(TRY_TO_TIMESTAMP(DATETIME, 'MM/DD/YYYY HH12:MI:SS AM'))    AS OUTCOME_YEAR
FROM {{.Database}}.{{.Schema}}.RAW_OUTCOMES
WHERE ANIMAL_ID IS NOT NULL AND TRIM(ANIMAL_ID) <> ''
  AND OUTCOME_TYPE IS NOT NULL AND TRIM(OUTCOME_TYPE) <> ''`

// renderSQL expands one statement template with the object names.
func renderSQL(stmt string, objects Objects) (string, error) {
	tmpl, err := template.New("sql").Parse(stmt)
	if err != nil {
		return "", fmt.Errorf("failed to parse SQL template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, objects); err != nil {
		return "", fmt.Errorf("failed to render SQL template: %w", err)
	}
	return buf.String(), nil
}
