package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a map of string key-value pairs attached to domain entities
type Metadata map[string]string

// Value implements driver.Valuer so Metadata can be stored as jsonb
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for reading jsonb columns
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for metadata: %T", value)
	}

	return json.Unmarshal(data, m)
}
