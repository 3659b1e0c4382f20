package filter

import (
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// StringWhere provides filtering operations for string fields.
// Pattern operators match case-insensitively.
type StringWhere struct {
	Is            *string      `json:"is"`
	Not           *string      `json:"not"`
	In            []string     `json:"in"`
	NotIn         []string     `json:"not_in"`
	Lt            *string      `json:"lt"`
	Lte           *string      `json:"lte"`
	Gt            *string      `json:"gt"`
	Gte           *string      `json:"gte"`
	Contains      *string      `json:"contains"`
	NotContains   *string      `json:"not_contains"`
	StartsWith    *string      `json:"starts_with"`
	NotStartsWith *string      `json:"not_starts_with"`
	EndsWith      *string      `json:"ends_with"`
	NotEndsWith   *string      `json:"not_ends_with"`
	Between       *StringRange `json:"between"`
	NotBetween    *StringRange `json:"not_between"`
	NotNull       *bool        `json:"not_null"`
}

// DateTimeWhere provides filtering operations for timestamp fields.
type DateTimeWhere struct {
	Is    *time.Time  `json:"is"`
	Not   *time.Time  `json:"not"`
	In    []time.Time `json:"in"`
	NotIn []time.Time `json:"not_in"`
	Lt    *time.Time  `json:"lt"`
	Lte   *time.Time  `json:"lte"`
	Gt    *time.Time  `json:"gt"`
	Gte   *time.Time  `json:"gte"`
}

// BooleanWhere provides filtering operations for boolean fields.
type BooleanWhere struct {
	Is *bool `json:"is"`
}

// DateRangeWhere provides filtering operations for daterange fields.
type DateRangeWhere struct {
	ContainsDate      *Date      `json:"containsDate"`
	ContainsDateRange *DateRange `json:"containsDateRange"`
	OverlapsDateRange *DateRange `json:"overlapsDateRange"`
}

// DateRange is the operand of the date range operators.
type DateRange struct {
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
}

// StringRange is the operand of between and not_between.
type StringRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Date is a calendar date encoded as YYYY-MM-DD. It binds and scans as a
// date column through datatypes.Date.
type Date datatypes.Date

var (
	_ driver.Valuer = Date{}
	_ sql.Scanner   = (*Date)(nil)
)

func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return time.Time(d).Format(time.DateOnly)
}

func (d Date) Value() (driver.Value, error) {
	return datatypes.Date(d).Value()
}

func (d *Date) Scan(value any) error {
	return (*datatypes.Date)(d).Scan(value)
}

func (Date) GormDataType() string {
	return datatypes.Date{}.GormDataType()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(time.DateOnly, s[1:len(s)-1])
	if err != nil {
		return errors.Wrapf(err, "invalid date %s", s)
	}
	*d = Date(t)
	return nil
}
