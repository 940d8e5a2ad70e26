// Package reference models the tenant-scoped lookup data rows are validated
// against: departments, positions, existing employee emails, and offices.
package reference

import (
	"strings"

	"github.com/google/uuid"
)

type Department struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

type Position struct {
	ID     uuid.UUID
	Title  string
	Active bool
}

type Office struct {
	ID      uuid.UUID
	Address string
}

// Set is an immutable snapshot built once per validation pass. All lookups
// are case-insensitive.
type Set struct {
	departments map[string]Department
	positions   map[string]Position
	emails      map[string]struct{}
	offices     map[string]Office
}

func NewSet(departments []Department, positions []Position, emails []string, offices []Office) *Set {
	s := &Set{
		departments: make(map[string]Department, len(departments)),
		positions:   make(map[string]Position, len(positions)),
		emails:      make(map[string]struct{}, len(emails)),
		offices:     make(map[string]Office, len(offices)),
	}
	for _, d := range departments {
		s.departments[normalize(d.Name)] = d
	}
	for _, p := range positions {
		s.positions[normalize(p.Title)] = p
	}
	for _, e := range emails {
		s.emails[normalize(e)] = struct{}{}
	}
	for _, o := range offices {
		s.offices[normalize(o.Address)] = o
	}
	return s
}

func (s *Set) Department(name string) (Department, bool) {
	d, ok := s.departments[normalize(name)]
	return d, ok
}

func (s *Set) Position(title string) (Position, bool) {
	p, ok := s.positions[normalize(title)]
	return p, ok
}

func (s *Set) EmailExists(email string) bool {
	_, ok := s.emails[normalize(email)]
	return ok
}

func (s *Set) Office(address string) (Office, bool) {
	o, ok := s.offices[normalize(address)]
	return o, ok
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
