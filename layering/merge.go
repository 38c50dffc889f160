// Package layering merges and deep-copies preset patches. Patches are JSON
// trees: objects merge key by key, everything else is replaced whole.
package layering

import "reflect"

// Clone returns a deep copy of a JSON tree. Objects and arrays are copied;
// scalars and values that are not JSON containers, such as widget handles,
// are returned as is.
func Clone[T any](value T) T {
	var zero T
	out := cloneTree(any(value))
	if out == nil {
		return zero
	}
	typed, ok := out.(T)
	if !ok {
		return zero
	}
	return typed
}

// MergePatches composes patches ordered from strongest to weakest. Keys set
// by a stronger patch win; nested objects are merged recursively and a null in
// a stronger patch leaves the weaker value in place. Inputs are not modified.
func MergePatches(patches ...map[string]any) map[string]any {
	if len(patches) == 0 {
		return nil
	}
	merged := cloneObject(patches[len(patches)-1])
	for i := len(patches) - 2; i >= 0; i-- {
		merged = mergeObject(patches[i], merged)
	}
	return merged
}

// mergeObject overlays strong onto weak, which it owns and may modify.
func mergeObject(strong, weak map[string]any) map[string]any {
	if strong == nil {
		return weak
	}
	if weak == nil {
		weak = make(map[string]any, len(strong))
	}
	for key, value := range strong {
		if value == nil {
			if _, exists := weak[key]; !exists {
				weak[key] = nil
			}
			continue
		}
		strongObject, strongIsObject := value.(map[string]any)
		weakObject, weakIsObject := weak[key].(map[string]any)
		if strongIsObject && weakIsObject {
			weak[key] = mergeObject(strongObject, weakObject)
			continue
		}
		weak[key] = cloneTree(value)
	}
	return weak
}

func cloneTree(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return cloneObject(typed)
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneTree(item)
		}
		return out
	case bool, string, float64, float32, int, int64, int32:
		return typed
	}
	return cloneContainer(reflect.ValueOf(value))
}

func cloneObject(object map[string]any) map[string]any {
	if object == nil {
		return nil
	}
	out := make(map[string]any, len(object))
	for key, value := range object {
		out[key] = cloneTree(value)
	}
	return out
}

// cloneContainer copies typed slices and maps such as []float64 or
// map[string]string. Any other value is returned unchanged.
func cloneContainer(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v.Interface()
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i)))
		}
		return out.Interface()
	case reflect.Map:
		if v.IsNil() {
			return v.Interface()
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value()))
		}
		return out.Interface()
	default:
		return v.Interface()
	}
}

func cloneElem(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface && v.IsNil() {
		return v
	}
	cloned := cloneTree(v.Interface())
	if cloned == nil {
		return reflect.Zero(v.Type())
	}
	out := reflect.ValueOf(cloned)
	if !out.Type().AssignableTo(v.Type()) {
		return v
	}
	return out
}
