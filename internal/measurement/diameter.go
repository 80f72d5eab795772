// Package measurement defines the vessel measurement records produced by the
// image analysis pipeline and the parsers that build them from CSV rows.
package measurement

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/vessel.analysis/internal/units"
)

// ErrColumnCount is returned when a row does not have exactly the columns of
// the record shape being parsed.
var ErrColumnCount = errors.New("wrong number of columns")

// FieldError reports a column that could not be converted.
type FieldError struct {
	Column int // 1-based
	Name   string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("column %d (%s): invalid value %q: %v", e.Column, e.Name, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Diameter is one vessel diameter in raw pixels.
type Diameter struct {
	ID       int
	Diameter float64
}

// Physical returns the diameter converted with the given scale.
func (d Diameter) Physical(s units.Scale) float64 {
	return s.ToPhysical(d.Diameter)
}

func (d Diameter) String() string {
	return fmt.Sprintf("Diameter(id=%d, diameter=%g)", d.ID, d.Diameter)
}

// DiameterColumns is the column layout of a diameter CSV.
var DiameterColumns = []string{"id", "diameter"}

// ParseDiameterRow builds a Diameter from an (id, diameter) row.
func ParseDiameterRow(row []string) (Diameter, error) {
	c := newCursor(row, DiameterColumns)
	if err := c.checkCount(); err != nil {
		return Diameter{}, err
	}
	d := Diameter{ID: c.readInt(), Diameter: c.readFloat()}
	if c.err != nil {
		return Diameter{}, c.err
	}
	return d, nil
}

// cursor walks a row column by column, keeping the first conversion error.
type cursor struct {
	row   []string
	names []string
	i     int
	err   error
}

func newCursor(row, names []string) *cursor {
	return &cursor{row: row, names: names}
}

func (c *cursor) checkCount() error {
	if len(c.row) != len(c.names) {
		return fmt.Errorf("%w: got %d, want %d (%s)", ErrColumnCount, len(c.row), len(c.names), strings.Join(c.names, ","))
	}
	return nil
}

func (c *cursor) next() (string, int) {
	i := c.i
	c.i++
	return strings.TrimSpace(c.row[i]), i
}

func (c *cursor) fail(i int, v string, err error) {
	if c.err == nil {
		c.err = &FieldError{Column: i + 1, Name: c.names[i], Value: v, Err: err}
	}
}

func (c *cursor) readInt() int {
	v, i := c.next()
	n, err := strconv.Atoi(v)
	if err != nil {
		c.fail(i, v, err)
	}
	return n
}

func (c *cursor) readFloat() float64 {
	v, i := c.next()
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.fail(i, v, err)
	}
	return f
}

func (c *cursor) readString() string {
	v, _ := c.next()
	return v
}
