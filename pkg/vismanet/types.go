package vismanet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// apiTimeLayout is the zone-less timestamp the ERP emits, e.g.
// "2021-03-09T04:04:02.257". Fractional seconds are optional.
const apiTimeLayout = "2006-01-02T15:04:05.999999999"

// filterTimeLayout is the format accepted by lastModifiedDateTime filters.
const filterTimeLayout = "2006-01-02 15:04:05"

// APITime is a custom time type that handles Visma.net date formats.
// Zone-less values are interpreted as UTC.
type APITime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for APITime
func (t *APITime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var timeStr string
	if err := json.Unmarshal(data, &timeStr); err != nil {
		return err
	}
	if timeStr == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, apiTimeLayout, "2006-01-02"} {
		if parsed, err := time.Parse(layout, timeStr); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unable to parse time string: %s", timeStr)
}

// MarshalJSON implements json.Marshaler for APITime
func (t APITime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// flexString accepts JSON strings and numbers; the ERP is not consistent
// about which one it sends for codes and identifiers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = flexString(val)
	case float64:
		*f = flexString(strconv.FormatFloat(val, 'f', -1, 64))
	default:
		return fmt.Errorf("flexString: unexpected type %T", v)
	}
	return nil
}

// DtoValue wraps a field of a write payload. The ERP only updates fields
// that are present, and expects each of them as {"value": ...}.
type DtoValue[T any] struct {
	Value T `json:"value"`
}

// Value wraps v for use in an update payload.
func Value[T any](v T) *DtoValue[T] {
	return &DtoValue[T]{Value: v}
}

// ActionResult is the response of the action endpoints (release, reverse...).
type ActionResult struct {
	ActionID     string `json:"actionId"`
	ActionResult string `json:"actionResult"`
	ErrorInfo    string `json:"errorInfo"`
}

// Err reports a failed action as an error.
func (r *ActionResult) Err() error {
	if r == nil || !strings.EqualFold(r.ActionResult, "Failed") {
		return nil
	}
	if r.ErrorInfo != "" {
		return fmt.Errorf("action %s failed: %s", r.ActionID, r.ErrorInfo)
	}
	return fmt.Errorf("action %s failed", r.ActionID)
}

// Filter narrows list endpoints. Zero fields are not sent.
type Filter struct {
	// LastModifiedDateTime with LastModifiedDateTimeCondition (">" when
	// empty) selects records changed relative to the given time.
	LastModifiedDateTime          time.Time
	LastModifiedDateTimeCondition string
	GreaterThanValue              string
	Status                        string
	PageNumber                    int
	PageSize                      int
	// Extra holds endpoint specific query parameters.
	Extra map[string]string
}

// Query renders the filter as query parameters.
func (f Filter) Query() map[string]string {
	q := make(map[string]string, len(f.Extra)+6)
	for k, v := range f.Extra {
		q[k] = v
	}
	if !f.LastModifiedDateTime.IsZero() {
		cond := f.LastModifiedDateTimeCondition
		if cond == "" {
			cond = ">"
		}
		q["lastModifiedDateTime"] = f.LastModifiedDateTime.UTC().Format(filterTimeLayout)
		q["lastModifiedDateTimeCondition"] = cond
	}
	if f.GreaterThanValue != "" {
		q["greaterThanValue"] = f.GreaterThanValue
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.PageNumber > 0 {
		q["pageNumber"] = strconv.Itoa(f.PageNumber)
	}
	if f.PageSize > 0 {
		q["pageSize"] = strconv.Itoa(f.PageSize)
	}
	return q
}
