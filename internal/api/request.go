package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/neume/monitor/internal/validate"
)

// body is a decoded JSON request object. JSON null is treated as absent.
type body map[string]json.RawMessage

// readBody decodes the request body as a JSON object. Empty or malformed
// bodies decode to an empty object so required fields report as missing.
func readBody(c *gin.Context) body {
	data, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return body{}
	}
	var b body
	if err := json.Unmarshal(data, &b); err != nil || b == nil {
		return body{}
	}
	return b
}

// value decodes field into a Go value, preserving numbers as json.Number.
// The second result is false when the field is absent or null.
func (b body) value(field string) (interface{}, bool) {
	raw, ok := b[field]
	if !ok {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// requiredInt reads an integer field. Integral JSON numbers (50, 50.0) and
// integer strings ("50") are accepted.
func (b body) requiredInt(field string) (int64, error) {
	v, ok := b.value(field)
	if !ok {
		return 0, validate.Required(field)
	}
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field)
		}
		f, err := x.Float64()
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field)
		}
		if err == nil && f == math.Trunc(f) {
			if math.Abs(f) >= math.MaxInt64 {
				return 0, outOfRange(field)
			}
			return int64(f), nil
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field)
		}
	}
	return 0, validate.Invalid(field, "%s must be an integer", field)
}

func outOfRange(field string) error {
	return validate.Invalid(field, "%s is out of range", field)
}

// requiredID reads a non-negative identity field.
func (b body) requiredID(field string) (uint, error) {
	n, err := b.requiredInt(field)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, validate.Invalid(field, "%s must not be negative", field)
	}
	return uint(n), nil
}

// optionalString returns a string field, or nil when it is absent or not a
// string.
func (b body) optionalString(field string) *string {
	v, ok := b.value(field)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// flag returns true only for a JSON true.
func (b body) flag(field string) bool {
	v, ok := b.value(field)
	if !ok {
		return false
	}
	t, _ := v.(bool)
	return t
}
