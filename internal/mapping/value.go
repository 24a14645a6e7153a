package mapping

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Stringify renders a mapped value for comparison and delimited export.
// nil renders as the empty string and whole floats drop their fraction.
func Stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		return value.String()
	case decimal.Decimal:
		return value.String()
	case fmt.Stringer:
		return value.String()
	case map[string]any, []any:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(b)
	default:
		return fmt.Sprint(value)
	}
}

// Truthy follows the usual dynamic-language notion: nil, empty strings,
// zero numbers, false and empty collections are falsy.
func Truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != ""
	case bool:
		return value
	case float64:
		return value != 0
	case float32:
		return value != 0
	case int:
		return value != 0
	case int64:
		return value != 0
	case json.Number:
		f, err := value.Float64()
		return err != nil || f != 0
	case decimal.Decimal:
		return !value.IsZero()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// FirstTruthy returns the first truthy value among fields, with the field it came from.
func FirstTruthy(mapped map[string]any, fields ...string) (any, string, bool) {
	for _, field := range fields {
		if value, ok := mapped[field]; ok && Truthy(value) {
			return value, field, true
		}
	}
	return nil, "", false
}

// CanonicalKey encodes a value for equality lookups in the record field
// index. Strings and numbers stay distinct: "100" and 100 do not match.
func CanonicalKey(v any) string {
	switch value := v.(type) {
	case json.Number:
		if f, err := value.Float64(); err == nil {
			v = f
		}
	case decimal.Decimal:
		v = value.InexactFloat64()
	case string:
		v = strings.ToValidUTF8(value, "�")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return string(b)
}
