package validate

import (
	"strconv"
	"strings"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect gathers the non-nil field errors; it returns nil when there are none.
func Collect(fields ...*ErrField) Errs {
	var out Errs
	for _, f := range fields {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinInt(field string, v, min int64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatInt(min, 10)}
	}
	return nil
}

// IntParam parses an optional integer parameter, falling back to def when
// raw is empty.
func IntParam(field, raw string, def, min int64) (int, *ErrField) {
	if strings.TrimSpace(raw) == "" {
		return int(def), nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, &ErrField{Field: field, Msg: "must be an integer"}
	}
	if ef := MinInt(field, n, min); ef != nil {
		return 0, ef
	}
	return int(n), nil
}
