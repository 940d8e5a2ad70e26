package importrow

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/staffimport/modules/hrm/domain/entities/reference"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SeenEmails is the intra-file duplicate accumulator, threaded across rows in
// file order. Keys are normalized emails.
type SeenEmails map[string]struct{}

func NewSeenEmails() SeenEmails {
	return make(SeenEmails)
}

// Validate applies every rule and returns all violations together; it never
// short-circuits. A syntactically valid email is added to seen only after
// this row is evaluated, so the first occurrence is never flagged as a
// duplicate.
func Validate(row Row, refs *reference.Set, seen SeenEmails) []string {
	var violations []string

	get := func(name string) string {
		return strings.TrimSpace(row.Fields[name])
	}

	for _, f := range []struct{ field, label string }{
		{"first_name", "first name"},
		{"last_name", "last name"},
		{"start_date", "start date"},
		{"department", "department"},
		{"job_role", "job role"},
	} {
		if get(f.field) == "" {
			violations = append(violations, fmt.Sprintf("%s is required", f.label))
		}
	}

	email := get("email")
	emailKey := strings.ToLower(email)
	emailValid := false
	switch {
	case email == "":
		violations = append(violations, "email is required")
	case validate.Var(email, "email") != nil:
		violations = append(violations, fmt.Sprintf("email %q is not a valid email address", email))
	default:
		emailValid = true
		if refs.EmailExists(email) {
			violations = append(violations, fmt.Sprintf("email %q already exists", email))
		}
		if _, dup := seen[emailKey]; dup {
			violations = append(violations, fmt.Sprintf("duplicate email %q in file", email))
		}
	}

	if v := get("gender"); v != "" && !oneOf(v, Genders) {
		violations = append(violations, fmt.Sprintf("gender %q must be one of: %s", v, strings.Join(Genders, ", ")))
	}
	if v := get("contract_type"); v != "" && !oneOf(v, ContractTypes) {
		violations = append(violations, fmt.Sprintf("contract type %q must be one of: %s", v, strings.Join(ContractTypes, ", ")))
	}
	if v := get("employment_status"); v != "" && !oneOf(v, EmploymentStatuses) {
		violations = append(violations, fmt.Sprintf("employment status %q must be one of: %s", v, strings.Join(EmploymentStatuses, ", ")))
	}

	if v := get("start_date"); v != "" {
		if _, ok := ParseDate(v); !ok {
			violations = append(violations, fmt.Sprintf("start date %q is not a valid date", v))
		}
	}
	if v := get("end_date"); v != "" {
		if _, ok := ParseDate(v); !ok {
			violations = append(violations, fmt.Sprintf("end date %q is not a valid date", v))
		}
	}

	if v := get("department"); v != "" {
		if dep, ok := refs.Department(v); !ok {
			violations = append(violations, fmt.Sprintf("department %q does not exist", v))
		} else if !dep.Active {
			violations = append(violations, fmt.Sprintf("department %q is inactive", v))
		}
	}

	if v := get("job_role"); v != "" {
		if pos, ok := refs.Position(v); !ok {
			violations = append(violations, fmt.Sprintf("job role %q does not exist", v))
		} else if !pos.Active {
			violations = append(violations, fmt.Sprintf("job role %q is inactive", v))
		}
	}

	if v := get("work_location"); v != "" {
		if _, ok := refs.Office(v); !ok {
			violations = append(violations, fmt.Sprintf("work location %q is not a known office", v))
		}
	}

	if emailValid {
		seen[emailKey] = struct{}{}
	}

	return violations
}

// ValidateAll runs Validate over rows in file order, threading the seen-set,
// and stamps status and errors onto each row.
func ValidateAll(rows []Row, refs *reference.Set) []Row {
	seen := NewSeenEmails()
	out := make([]Row, len(rows))
	for i, row := range rows {
		violations := Validate(row, refs, seen)
		row.Errors = violations
		if len(violations) > 0 {
			row.Status = StatusInvalid
		} else {
			row.Status = StatusValid
		}
		out[i] = row
	}
	return out
}

func oneOf(value string, allowed []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
