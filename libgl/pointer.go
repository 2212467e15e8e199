package libgl

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Pointer returns the address of the first element of a slice, the value a
// pointer points to, or a raw uintptr offset.
func Pointer(data any) unsafe.Pointer {
	if data == nil {
		return unsafe.Pointer(nil)
	}
	var addr unsafe.Pointer
	v := reflect.ValueOf(data)
	switch v.Type().Kind() {
	case reflect.Ptr:
		e := v.Elem()
		addr = unsafe.Pointer(e.UnsafeAddr())
	case reflect.Uintptr:
		addr = unsafe.Pointer(data.(uintptr))
	case reflect.Slice:
		if v.Len() == 0 {
			return unsafe.Pointer(nil)
		}
		addr = unsafe.Pointer(v.Index(0).UnsafeAddr())
	default:
		panic(fmt.Errorf("unsupported type %s; must be a slice, uintptr or pointer to a value", v.Type()))
	}
	return addr
}

// ByteSize returns the size in bytes of a slice's backing data.
func ByteSize(data any) int {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return int(v.Type().Size())
	}
	return v.Len() * int(v.Type().Elem().Size())
}
