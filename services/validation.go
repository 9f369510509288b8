package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/go-playground/validator/v10"
)

// Number is a numeric request field that may arrive as a JSON number or as a
// numeric string. A value that is neither leaves Set true and Valid false, so the
// caller can report the field instead of failing the whole decode.
type Number struct {
	Value float64
	Set   bool
	Valid bool
}

// Num returns a valid Number holding v.
func Num(v float64) Number {
	return Number{Value: v, Set: true, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	n.Set = true
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			n.Set = false
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Whole reports whether n is a valid integer value.
func (n Number) Whole() bool {
	return n.Valid && n.Value == math.Trunc(n.Value) && math.Abs(n.Value) < math.MaxInt32
}

// ID reads n as a positive whole identifier.
func (n Number) ID() (uint, bool) {
	if !n.Whole() || n.Value <= 0 {
		return 0, false
	}
	return uint(n.Value), true
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// label turns a json field name such as "expiryDate" into "Expiry date".
func label(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validateStruct runs the validate tags on s and returns one message per failing field.
func validateStruct(s interface{}) apperr.Fields {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Fields{"": err.Error()}
	}

	var fields apperr.Fields
	for _, fe := range validationErrors {
		name := fe.Field()
		switch fe.Tag() {
		case "required":
			fields.Add(name, label(name)+" is required!")
		case "email":
			fields.Add(name, "Invalid email address!")
		case "min":
			fields.Add(name, fmt.Sprintf("%s must be at least %s characters long", label(name), fe.Param()))
		case "max":
			fields.Add(name, fmt.Sprintf("%s must be at most %s characters long", label(name), fe.Param()))
		default:
			fields.Add(name, label(name)+" is invalid")
		}
	}
	return fields
}
