// Package failfast turns violated invariants into panics. It is meant
// for programming errors only; operational failures stay on the normal
// error path.
package failfast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Err panics when err is non-nil, with the stack attached.
func Err(err error) {
	if err != nil {
		panic(fmt.Errorf("fail-fast: %w\n%s", err, debug.Stack()))
	}
}

// If panics with a formatted message when condition is false.
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf("fail-fast: "+message, args...))
	}
}

// NotNil panics when ptr is nil, including typed nil pointers and nil
// funcs hiding behind a non-nil interface value.
func NotNil(ptr interface{}, name string) {
	if ptr == nil {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
	v := reflect.ValueOf(ptr)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
	if v.Kind() == reflect.Func && v.IsNil() {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
}
