package datamodel

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList is a list of ids stored as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

func (l StringList) Contains(id string) bool {
	for _, s := range l {
		if s == id {
			return true
		}
	}
	return false
}

// Subtask is one checklist item on a task.
type Subtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// SubtaskList is a checklist stored as a JSON text column.
type SubtaskList []Subtask

func (l SubtaskList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *SubtaskList) Scan(value interface{}) error {
	if value == nil {
		*l = SubtaskList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for SubtaskList")
	}
}
