// Package validation reports request body problems in the field-error
// shape the admin console already understands:
//
//	{"errors":[{"type":"field","value":"","msg":"Name is required","path":"name","location":"body"}]}
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type FieldError struct {
	Type     string      `json:"type"`
	Value    interface{} `json:"value,omitempty"`
	Msg      string      `json:"msg"`
	Path     string      `json:"path"`
	Location string      `json:"location"`
}

type Errors struct {
	Errors []FieldError `json:"errors"`
}

func (e *Errors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Path + ": " + fe.Msg
	}
	return strings.Join(msgs, "; ")
}

// Validator collects field errors for one request body.
type Validator struct {
	errs []FieldError
}

func (v *Validator) Add(path, msg string, raw json.RawMessage) {
	v.errs = append(v.errs, FieldError{
		Type:     "field",
		Value:    rawValue(raw),
		Msg:      msg,
		Path:     path,
		Location: "body",
	})
}

func (v *Validator) Valid() bool { return len(v.errs) == 0 }

// Err returns nil when no field failed.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &Errors{Errors: v.errs}
}

// RequiredString checks that raw is a non-blank string. Missing fields are
// reported the same way as blank ones.
func (v *Validator) RequiredString(path string, raw json.RawMessage, msg string) string {
	s, ok := String(raw)
	if !ok || strings.TrimSpace(s) == "" {
		v.Add(path, msg, raw)
		return ""
	}
	return strings.TrimSpace(s)
}

// OptionalString validates raw only when present.
func (v *Validator) OptionalString(path string, raw json.RawMessage, msg string) *string {
	if !Present(raw) {
		return nil
	}
	s := v.RequiredString(path, raw, msg)
	return &s
}

// Numeric accepts a JSON number or a numeric string, rejecting negatives.
func (v *Validator) Numeric(path string, raw json.RawMessage, msg string) decimal.Decimal {
	d, ok := Decimal(raw)
	if !ok || d.IsNegative() {
		v.Add(path, msg, raw)
		return decimal.Zero
	}
	return d
}

func (v *Validator) OptionalNumeric(path string, raw json.RawMessage, msg string) *decimal.Decimal {
	if !Present(raw) {
		return nil
	}
	d := v.Numeric(path, raw, msg)
	return &d
}

// Int accepts an integer (or integer string) no smaller than min.
func (v *Validator) Int(path string, raw json.RawMessage, min int, msg string) int {
	n, ok := Int(raw)
	if !ok || n < min {
		v.Add(path, msg, raw)
		return 0
	}
	return n
}

func (v *Validator) OptionalInt(path string, raw json.RawMessage, min int, msg string) *int {
	if !Present(raw) {
		return nil
	}
	n := v.Int(path, raw, min, msg)
	return &n
}

// Present reports whether the field was supplied with a non-null value.
func Present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func String(raw json.RawMessage) (string, bool) {
	var s string
	if !Present(raw) || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func Decimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if !Present(raw) {
		return decimal.Zero, false
	}
	text := string(raw)
	if s, ok := String(raw); ok {
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func Int(raw json.RawMessage) (int, bool) {
	if !Present(raw) {
		return 0, false
	}
	text := string(raw)
	if s, ok := String(raw); ok {
		text = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

func rawValue(raw json.RawMessage) interface{} {
	if !Present(raw) {
		return nil
	}
	var v interface{}
	if json.Unmarshal(raw, &v) != nil {
		return string(raw)
	}
	return v
}

// DecodeStrict decodes a JSON body into dst, rejecting unknown fields and
// trailing data.
func DecodeStrict(r io.Reader, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: unexpected trailing data")
	}
	return nil
}
