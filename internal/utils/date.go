package util

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// LocalDate is a date-only value for goal end dates. It marshals as
// "2006-01-02" and stores as a DATE column.
type LocalDate struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewLocalDate(year int, month time.Month, day int) LocalDate {
	return LocalDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return LocalDate{}, err
	}
	return LocalDate{Time: t}, nil
}

func (ld *LocalDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	ld.Time = t
	return nil
}

func (ld LocalDate) MarshalJSON() ([]byte, error) {
	if ld.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + ld.Format(dateLayout) + `"`), nil
}

func (ld LocalDate) Equal(other LocalDate) bool {
	return ld.Format(dateLayout) == other.Format(dateLayout)
}

func (ld LocalDate) Value() (driver.Value, error) {
	if ld.IsZero() {
		return nil, nil
	}
	return ld.Time, nil
}

func (ld *LocalDate) Scan(value interface{}) error {
	if value == nil {
		ld.Time = time.Time{}
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		ld.Time = v
		return nil
	case []byte:
		if len(v) < len(dateLayout) {
			return fmt.Errorf("cannot scan %q into LocalDate", v)
		}
		parsed, err := time.Parse(dateLayout, string(v[:len(dateLayout)]))
		if err != nil {
			return err
		}
		ld.Time = parsed
		return nil
	case string:
		if len(v) < len(dateLayout) {
			return fmt.Errorf("cannot scan %q into LocalDate", v)
		}
		parsed, err := time.Parse(dateLayout, v[:len(dateLayout)])
		if err != nil {
			return err
		}
		ld.Time = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into LocalDate", value)
	}
}
