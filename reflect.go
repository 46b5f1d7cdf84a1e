package pupmigrate

import "reflect"

// PackageOf returns the package path of the type implementing v.
func PackageOf(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}
