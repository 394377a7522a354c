package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StringList is a comma-joined text column holding an ordered list of
// strings (categories, specializations, photo references). The encoding is
// deliberately kept byte-compatible with the legacy schema: values are
// trimmed, empties dropped, and the column is NULL when the list is empty.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	cleaned := make([]string, 0, len(l))
	for _, v := range l {
		if t := strings.TrimSpace(v); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	return strings.Join(cleaned, ","), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("stringlist: cannot scan %T", src)
	}
	*l = SplitList(raw)
	return nil
}

// GormDataType tells GORM to map the list onto a plain text column.
func (StringList) GormDataType() string { return "text" }

// SplitList decodes a comma-joined column value, dropping empty items.
func SplitList(raw string) StringList {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Contains reports whether the list holds v.
func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// Intersects reports whether the list shares at least one item with other.
func (l StringList) Intersects(other []string) bool {
	if len(l) == 0 || len(other) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(other))
	for _, v := range other {
		set[v] = struct{}{}
	}
	for _, v := range l {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
