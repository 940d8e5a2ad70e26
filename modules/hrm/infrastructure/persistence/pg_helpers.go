package persistence

import (
	"fmt"
	"strings"
)

// placeholders renders "($n, $n+1, …)" for one tuple of a multi-row insert.
func placeholders(start, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
