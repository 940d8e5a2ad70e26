package importrow_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffimport/modules/hrm/domain/entities/reference"
	"github.com/iota-uz/staffimport/modules/hrm/domain/importrow"
	"github.com/iota-uz/staffimport/pkg/tabular"
)

func testRefs() *reference.Set {
	return reference.NewSet(
		[]reference.Department{
			{ID: uuid.New(), Name: "Engineering", Active: true},
			{ID: uuid.New(), Name: "Sales", Active: false},
		},
		[]reference.Position{
			{ID: uuid.New(), Title: "Engineer", Active: true},
			{ID: uuid.New(), Title: "Account Manager", Active: false},
		},
		[]string{"taken@acme.test"},
		[]reference.Office{
			{ID: uuid.New(), Address: "1 Main St"},
		},
	)
}

func validRow(n int, email string) importrow.Row {
	return importrow.Row{
		RowNumber: n,
		Fields: map[string]string{
			"first_name": "John",
			"last_name":  "Doe",
			"email":      email,
			"start_date": "2024-01-15",
			"department": "Engineering",
			"job_role":   "Engineer",
		},
	}
}

func TestValidateCleanRow(t *testing.T) {
	seen := importrow.NewSeenEmails()
	violations := importrow.Validate(validRow(1, "john@acme.test"), testRefs(), seen)
	require.Empty(t, violations)
}

func TestValidateReportsAllViolationsTogether(t *testing.T) {
	row := importrow.Row{
		RowNumber: 1,
		Fields: map[string]string{
			"email":      "not-an-email",
			"gender":     "robot",
			"start_date": "soon",
			"department": "Ops",
			"job_role":   "Wizard",
		},
	}

	violations := importrow.Validate(row, testRefs(), importrow.NewSeenEmails())
	require.Contains(t, violations, "first name is required")
	require.Contains(t, violations, "last name is required")
	require.Contains(t, violations, `email "not-an-email" is not a valid email address`)
	require.Contains(t, violations, `gender "robot" must be one of: male, female, other`)
	require.Contains(t, violations, `start date "soon" is not a valid date`)
	require.Contains(t, violations, `department "Ops" does not exist`)
	require.Contains(t, violations, `job role "Wizard" does not exist`)
}

func TestValidateUnknownDepartmentNamesIt(t *testing.T) {
	row := validRow(2, "jane@acme.test")
	row.Fields["department"] = "Ops"

	rows := importrow.ValidateAll([]importrow.Row{
		validRow(1, "a@acme.test"), row, validRow(3, "c@acme.test"),
	}, testRefs())

	require.Equal(t, importrow.StatusValid, rows[0].Status)
	require.Equal(t, importrow.StatusInvalid, rows[1].Status)
	require.Equal(t, []string{`department "Ops" does not exist`}, rows[1].Errors)
	require.Equal(t, importrow.StatusValid, rows[2].Status)
}

func TestValidateInactiveDistinctFromMissing(t *testing.T) {
	row := validRow(1, "a@acme.test")
	row.Fields["department"] = "Sales"
	row.Fields["job_role"] = "Account Manager"

	violations := importrow.Validate(row, testRefs(), importrow.NewSeenEmails())
	require.Contains(t, violations, `department "Sales" is inactive`)
	require.Contains(t, violations, `job role "Account Manager" is inactive`)
}

func TestValidateExistingTenantEmail(t *testing.T) {
	violations := importrow.Validate(validRow(1, "Taken@Acme.Test"), testRefs(), importrow.NewSeenEmails())
	require.Equal(t, []string{`email "Taken@Acme.Test" already exists`}, violations)
}

func TestDuplicateEmailFirstOccurrenceNeverFlagged(t *testing.T) {
	rows := importrow.ValidateAll([]importrow.Row{
		validRow(1, "other@acme.test"),
		validRow(2, "a@b.com"),
		validRow(3, "third@acme.test"),
		validRow(4, "A@B.COM"),
	}, testRefs())

	require.Equal(t, importrow.StatusValid, rows[1].Status)
	require.Equal(t, importrow.StatusInvalid, rows[3].Status)
	require.Equal(t, []string{`duplicate email "A@B.COM" in file`}, rows[3].Errors)
}

func TestInvalidEmailNeverEntersSeenSet(t *testing.T) {
	bad := validRow(1, "not-an-email")
	rows := importrow.ValidateAll([]importrow.Row{bad, bad}, testRefs())

	// the malformed email is reported on both rows, never as a duplicate
	for _, row := range rows {
		require.Equal(t, []string{`email "not-an-email" is not a valid email address`}, row.Errors)
	}
}

func TestValidateOptionalFieldsAbsentIsAllowed(t *testing.T) {
	row := validRow(1, "a@acme.test")
	row.Fields["gender"] = ""
	row.Fields["contract_type"] = ""
	row.Fields["employment_status"] = ""
	row.Fields["end_date"] = ""
	row.Fields["work_location"] = ""

	require.Empty(t, importrow.Validate(row, testRefs(), importrow.NewSeenEmails()))
}

func TestValidateEnumsCaseInsensitive(t *testing.T) {
	row := validRow(1, "a@acme.test")
	row.Fields["gender"] = "Female"
	row.Fields["contract_type"] = "PERMANENT"
	row.Fields["employment_status"] = "Probation"
	row.Fields["work_location"] = "1 MAIN st"

	require.Empty(t, importrow.Validate(row, testRefs(), importrow.NewSeenEmails()))
}

func TestValidateIdempotent(t *testing.T) {
	refs := testRefs()
	rows := []importrow.Row{
		validRow(1, "a@acme.test"),
		validRow(2, "a@acme.test"),
		validRow(3, "taken@acme.test"),
	}

	first := importrow.ValidateAll(rows, refs)
	second := importrow.ValidateAll(rows, refs)
	require.Equal(t, first, second)
}

func TestFromTableCoversFullFieldSet(t *testing.T) {
	table := &tabular.Table{
		Headers: []string{"email", "first_name", "unknown_column"},
		Rows: [][]string{
			{"a@b.test", " John ", "ignored"},
			{"c@d.test", "Jane", "ignored"},
		},
	}

	rows := importrow.FromTable(table)
	require.Len(t, rows, 2)
	for i, row := range rows {
		require.Equal(t, i+1, row.RowNumber)
		require.Len(t, row.Fields, len(importrow.Fields))
		for _, name := range importrow.Fields {
			_, ok := row.Fields[name]
			require.True(t, ok, fmt.Sprintf("missing field %s", name))
		}
	}
	require.Equal(t, "John", rows[0].Fields["first_name"])
	require.Equal(t, "", rows[0].Fields["last_name"])
}

func TestParseDateLayouts(t *testing.T) {
	for _, v := range []string{"2024-01-15", "15/01/2024", "2024/01/15"} {
		_, ok := importrow.ParseDate(v)
		require.True(t, ok, v)
	}
	_, ok := importrow.ParseDate("January 15, 2024")
	require.False(t, ok)
}
