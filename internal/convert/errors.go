package convert

import (
	"errors"
	"fmt"
	"reflect"
)

// ConversionError reports a native value with no registered encoder.
type ConversionError struct {
	Type reflect.Type // nil for an untyped nil value
}

func (e *ConversionError) Error() string {
	if e.Type == nil {
		return "convert: no encoder for nil value"
	}
	return fmt.Sprintf("convert: no encoder for type %s", e.Type)
}

// IsConversionError reports whether err is or wraps a *ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}
