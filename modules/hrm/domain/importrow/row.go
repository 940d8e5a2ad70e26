// Package importrow holds the ephemeral row model flowing through one
// bulk-import validation pass.
package importrow

import (
	"strings"
	"time"

	"github.com/iota-uz/staffimport/pkg/tabular"
)

type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
)

// Fields is the canonical column set, in file order. Source files may carry
// any subset in any order; missing columns map to empty strings.
var Fields = []string{
	"first_name",
	"last_name",
	"email",
	"phone",
	"gender",
	"start_date",
	"end_date",
	"department",
	"job_role",
	"contract_type",
	"employment_status",
	"work_location",
}

var (
	Genders            = []string{"male", "female", "other"}
	ContractTypes      = []string{"permanent", "contract", "temporary", "internship"}
	EmploymentStatuses = []string{"active", "probation", "on_leave", "terminated"}
)

// DateLayouts are the accepted calendar-date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

type Row struct {
	RowNumber int
	Fields    map[string]string
	Status    Status
	Errors    []string
}

// FromTable maps every decoded data row onto the canonical field set.
// RowNumber is 1-based and excludes the header.
func FromTable(table *tabular.Table) []Row {
	index := make(map[string]int, len(table.Headers))
	for i, h := range table.Headers {
		index[h] = i
	}

	rows := make([]Row, 0, len(table.Rows))
	for i, raw := range table.Rows {
		fields := make(map[string]string, len(Fields))
		for _, name := range Fields {
			if col, ok := index[name]; ok && col < len(raw) {
				fields[name] = strings.TrimSpace(raw[col])
			} else {
				fields[name] = ""
			}
		}
		rows = append(rows, Row{
			RowNumber: i + 1,
			Fields:    fields,
			Status:    StatusValid,
		})
	}
	return rows
}

func ParseDate(value string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
