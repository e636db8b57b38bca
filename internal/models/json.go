package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringList stores a JSON array in a TEXT column. It implements
// sql.Scanner and driver.Valuer so tag lists round-trip through the store
// without callers touching raw JSON.
type StringList []string

// Scan implements the sql.Scanner interface.
func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	data, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}

// Value implements the driver.Valuer interface. Empty lists store as NULL.
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

// EntityMap stores a JSON object in a TEXT column, holding the entity
// groups extracted by the AI stage (companies, urls, salary_info, ...).
type EntityMap map[string]any

// Scan implements the sql.Scanner interface.
func (e *EntityMap) Scan(value any) error {
	if value == nil {
		*e = nil
		return nil
	}

	data, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(data, e)
}

// Value implements the driver.Valuer interface. Empty maps store as NULL.
func (e EntityMap) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	return json.Marshal(map[string]any(e))
}

// Strings returns the entity group under key as a string slice, tolerating
// the mixed scalar/list shapes models emit.
func (e EntityMap) Strings(key string) []string {
	v, ok := e[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

// FirstString returns the first non-empty string under key, or "".
func (e EntityMap) FirstString(key string) string {
	vals := e.Strings(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func jsonColumnBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, errors.New("unsupported type for JSON column")
	}
}

// unknownField reports whether a scraped field value carries no real
// information (empty or the adapters' "Unknown" sentinel).
func unknownField(s string) bool {
	t := strings.TrimSpace(strings.ToLower(s))
	return t == "" || t == "unknown"
}
