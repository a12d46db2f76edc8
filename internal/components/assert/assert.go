// Package assert holds programmer-error checks, they panic instead of
// returning errors because a failure means the wiring is wrong.
package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics on nil, including typed nil pointers, maps, slices and funcs behind an interface.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("expected value of type %T to be not nil", value))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}
