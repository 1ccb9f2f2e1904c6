package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON รองรับทั้ง []byte (pgx) และ string (บาง driver คืน jsonb เป็น text)
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// StepPayload ข้อมูลเฉพาะของแต่ละ stage ใน pipeline step log
type StepPayload map[string]interface{}

// Scan implements sql.Scanner for StepPayload
func (p *StepPayload) Scan(value interface{}) error {
	*p = StepPayload{}
	return scanJSON(value, p)
}

// Value implements driver.Valuer for StepPayload
func (p StepPayload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	return valueJSON(p)
}
