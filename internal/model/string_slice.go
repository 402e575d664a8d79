package model

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
)

// StringSlice stores a list of IDs in a single text column.
// No element may include a comma.
type StringSlice []string

// GormDataType implements schema.GormDataTypeInterface
func (StringSlice) GormDataType() string {
	return "text"
}

// Value implements the driver.Valuer interface.
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}

	for _, v := range s {
		if strings.Contains(v, ",") {
			return "", fmt.Errorf("unsafe string, %s", v)
		}
	}

	return strings.Join(s, ","), nil
}

// Scan implements the sql.Scanner interface.
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan StringSlice, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*s = StringSlice{}
	} else {
		*s = strings.Split(str, ",")
	}

	return nil
}

// Without returns a copy of s with every occurrence of id removed
func (s StringSlice) Without(id string) StringSlice {
	out := make(StringSlice, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}

	return out
}

func (s StringSlice) Contains(id string) bool {
	return slices.Contains(s, id)
}
