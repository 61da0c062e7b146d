package maple

import (
	"reflect"
)

func reflectSliceMake(elem reflect.Type) any {
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 1).Interface()
}

func reflectSliceGet(slice any, idx int) reflect.Value {
	return reflect.ValueOf(slice).Index(idx)
}

func reflectSliceSet(slice any, idx int, val reflect.Value) {
	reflect.ValueOf(slice).Index(idx).Set(val)
}

func reflectSliceAppend(slice any, val reflect.Value) any {
	return reflect.Append(
		reflect.ValueOf(slice),
		val,
	).Interface()
}

// reflectPointerTo wraps an untyped storage pointer as a typed *elem value.
func reflectPointerTo(elem reflect.Type, ptr reflect.Value) reflect.Value {
	if !ptr.IsValid() {
		return reflect.Zero(reflect.PointerTo(elem))
	}
	return reflect.NewAt(elem, ptr.UnsafePointer())
}

// typeName is used for diagnostics only.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
