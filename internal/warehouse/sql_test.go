package warehouse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObjects() Objects {
	return Objects{
		Database:    "ANIMAL_INSIGHTS",
		Schema:      "OUTCOMES",
		Warehouse:   "ANIMAL_INSIGHTS_WH",
		Stage:       "OUTCOMES_STAGE",
		Integration: "ANIMAL_INSIGHTS_S3",
		BucketName:  "animal-insights-data-abc123",
		RoleARN:     "arn:aws:iam::123456789012:role/snowflake-s3-role",
		StagePrefix: "/austin_animal_outcomes.csv",
	}
}

func TestRenderSQL_SetupStatements(t *testing.T) {
	for _, stmt := range setupStatements {
		rendered, err := renderSQL(stmt, testObjects())
		require.NoError(t, err)
		assert.NotContains(t, rendered, "{{")
		assert.Contains(t, rendered, "ANIMAL_INSIGHTS")
	}
}

func TestRenderSQL_IntegrationStatement(t *testing.T) {
	rendered, err := renderSQL(integrationStatement, testObjects())
	require.NoError(t, err)
	assert.Contains(t, rendered, "STORAGE_AWS_ROLE_ARN = 'arn:aws:iam::123456789012:role/snowflake-s3-role'")
	assert.Contains(t, rendered, "STORAGE_ALLOWED_LOCATIONS = ('s3://animal-insights-data-abc123/')")
}

func TestRenderSQL_StageStatement(t *testing.T) {
	rendered, err := renderSQL(stageStatement, testObjects())
	require.NoError(t, err)
	assert.Contains(t, rendered, "STORAGE_INTEGRATION = ANIMAL_INSIGHTS_S3")
	assert.Contains(t, rendered, "URL = 's3://animal-insights-data-abc123/raw/'")
}

func TestRenderSQL_CopyStatement(t *testing.T) {
	rendered, err := renderSQL(copyStatement, testObjects())
	require.NoError(t, err)
	assert.Contains(t, rendered, "COPY INTO ANIMAL_INSIGHTS.OUTCOMES.RAW_OUTCOMES")
	assert.Contains(t, rendered, "@ANIMAL_INSIGHTS.OUTCOMES.OUTCOMES_STAGE/austin_animal_outcomes.csv")
	assert.Contains(t, rendered, "ON_ERROR = 'CONTINUE'")
}

// The view must stay equivalent with the cleaning package: same unit
// order, same label rule, same sentinel, same usability filter.
func TestCleanView_MirrorsCleaningRules(t *testing.T) {
	rendered, err := renderSQL(cleanViewStatement, testObjects())
	require.NoError(t, err)

	// Unit containment checks appear in the order year, month, week, day.
	yearIdx := strings.Index(rendered, "'year'")
	monthIdx := strings.Index(rendered, "'month'")
	weekIdx := strings.Index(rendered, "'week'")
	dayIdx := strings.Index(rendered, "'day'")
	require.True(t, yearIdx >= 0 && monthIdx >= 0 && weekIdx >= 0 && dayIdx >= 0)
	assert.True(t, yearIdx < monthIdx && monthIdx < weekIdx && weekIdx < dayIdx,
		"age unit order must be year, month, week, day")

	assert.Contains(t, rendered, "* 365")
	assert.Contains(t, rendered, "* 30")
	assert.Contains(t, rendered, "* 7")

	assert.Contains(t, rendered, "'Unknown'")
	assert.Contains(t, rendered, "LOWER(TRIM(OUTCOME_TYPE)) = 'adoption'")
	assert.Contains(t, rendered, "POSITION('Mix' IN BREED)")

	// Usability invariant filter.
	assert.Contains(t, rendered, "ANIMAL_ID IS NOT NULL")
	assert.Contains(t, rendered, "OUTCOME_TYPE IS NOT NULL")

	// Canonical feature columns exposed by the view.
	for _, col := range []string{"ANIMAL_TYPE", "SEX_OUTCOME", "AGE_IN_DAYS", "PRIMARY_BREED", "COLOR", "OUTCOME_MONTH"} {
		assert.Contains(t, rendered, "AS "+col)
	}
}

func TestRenderSQL_BadTemplate(t *testing.T) {
	_, err := renderSQL("SELECT {{.Missing", testObjects())
	assert.Error(t, err)
}
