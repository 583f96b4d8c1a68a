package repositories

import (
	"fmt"
	"strings"
)

// conditions accumulates WHERE clauses with positional arguments.
type conditions struct {
	clauses []string
	args    []interface{}
}

// add appends a clause; each "?" in clause is replaced by the next
// positional placeholder.
func (c *conditions) add(clause string, args ...interface{}) {
	for _, a := range args {
		c.args = append(c.args, a)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

// arg registers a value and returns its placeholder.
func (c *conditions) arg(v interface{}) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// setList accumulates SET assignments for partial updates.
type setList struct {
	parts []string
	args  []interface{}
}

func (s *setList) set(column string, v interface{}) {
	s.args = append(s.args, v)
	s.parts = append(s.parts, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setList) arg(v interface{}) string {
	s.args = append(s.args, v)
	return fmt.Sprintf("$%d", len(s.args))
}

func (s *setList) empty() bool { return len(s.parts) == 0 }

func (s *setList) String() string { return strings.Join(s.parts, ", ") }
