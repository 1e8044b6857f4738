package dataset

import (
	"reflect"
	"time"
)

// SizeFunc estimates the in-memory footprint of a partition value in
// bytes. Footprints are estimates by nature; callers with better
// knowledge of their payloads inject their own.
type SizeFunc func(v any) float64

const (
	stringHeaderSize = 16
	sliceHeaderSize  = 24
	timeSize         = 24
	mapEntryOverhead = 16
	mapBaseOverhead  = 48
)

var timeType = reflect.TypeOf(time.Time{})

// EstimateSize is the default SizeFunc. Frames and columns take fast
// paths; anything else is walked with reflection, following pointers
// once and charging headers for strings, slices, and maps.
func EstimateSize(v any) float64 {
	if v == nil {
		return 0
	}
	switch x := v.(type) {
	case *Frame:
		var total float64
		for _, col := range x.cols {
			total += colSize(col)
		}
		return total
	case Column:
		return colSize(x)
	case string:
		return float64(stringHeaderSize + len(x))
	case []byte:
		return float64(sliceHeaderSize + len(x))
	case []float64:
		return float64(sliceHeaderSize + 8*len(x))
	}
	return float64(deepSize(reflect.ValueOf(v), make(map[uintptr]bool)))
}

func colSize(c Column) float64 {
	name := float64(stringHeaderSize + len(c.Name()))
	switch col := c.(type) {
	case *NumCol:
		return name + float64(sliceHeaderSize+8*len(col.vals)) + maskSize(col.na)
	case *CatCol:
		size := name + sliceHeaderSize + maskSize(col.na)
		for _, s := range col.vals {
			size += float64(stringHeaderSize + len(s))
		}
		return size
	case *TimeCol:
		return name + float64(sliceHeaderSize+timeSize*len(col.vals)) + maskSize(col.na)
	case *RawCol:
		size := name + sliceHeaderSize
		for _, v := range col.vals {
			size += EstimateSize(v)
		}
		return size
	default:
		return name + float64(deepSize(reflect.ValueOf(c), make(map[uintptr]bool)))
	}
}

func maskSize(na []bool) float64 {
	if na == nil {
		return 0
	}
	return float64(sliceHeaderSize + len(na))
}

func deepSize(v reflect.Value, seen map[uintptr]bool) uintptr {
	switch v.Kind() {
	case reflect.Invalid:
		return 0
	case reflect.String:
		return stringHeaderSize + uintptr(v.Len())
	case reflect.Slice:
		if v.IsNil() {
			return sliceHeaderSize
		}
		elem := v.Type().Elem()
		if isFlat(elem) {
			return sliceHeaderSize + uintptr(v.Len())*elem.Size()
		}
		size := uintptr(sliceHeaderSize)
		for i := 0; i < v.Len(); i++ {
			size += deepSize(v.Index(i), seen)
		}
		return size
	case reflect.Array:
		if isFlat(v.Type().Elem()) {
			return v.Type().Size()
		}
		var size uintptr
		for i := 0; i < v.Len(); i++ {
			size += deepSize(v.Index(i), seen)
		}
		return size
	case reflect.Map:
		if v.IsNil() {
			return 8
		}
		size := uintptr(mapBaseOverhead)
		iter := v.MapRange()
		for iter.Next() {
			size += deepSize(iter.Key(), seen) + deepSize(iter.Value(), seen) + mapEntryOverhead
		}
		return size
	case reflect.Pointer:
		if v.IsNil() {
			return 8
		}
		addr := v.Pointer()
		if seen[addr] {
			return 8
		}
		seen[addr] = true
		return 8 + deepSize(v.Elem(), seen)
	case reflect.Interface:
		if v.IsNil() {
			return 16
		}
		return 16 + deepSize(v.Elem(), seen)
	case reflect.Struct:
		if v.Type() == timeType {
			return timeSize
		}
		var size uintptr
		for i := 0; i < v.NumField(); i++ {
			size += deepSize(v.Field(i), seen)
		}
		// padding
		if size < v.Type().Size() {
			size = v.Type().Size()
		}
		return size
	default:
		return v.Type().Size()
	}
}

// isFlat reports whether a type contains no pointers, so a slice of it
// can be sized without walking elements.
func isFlat(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isFlat(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isFlat(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
