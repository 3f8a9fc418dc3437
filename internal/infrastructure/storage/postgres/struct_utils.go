package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts column names from struct "db" tags, recursing
// into embedded structs. Called once per repository at construction time.
func ExtractDBColumns[T any]() []string {
	var zero T
	return extractColumnsFromType(reflect.TypeOf(zero))
}

func extractColumnsFromType(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, extractColumnsFromType(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

type fieldMeta struct {
	index []int
	dbTag string
}

var fieldMetaCache sync.Map // reflect.Type -> []fieldMeta

func metaForType(t reflect.Type) []fieldMeta {
	if cached, ok := fieldMetaCache.Load(t); ok {
		return cached.([]fieldMeta)
	}
	var metas []fieldMeta
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			idx := append(append([]int(nil), prefix...), i)
			if field.Anonymous {
				ft := field.Type
				if ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					walk(ft, idx)
					continue
				}
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			metas = append(metas, fieldMeta{index: idx, dbTag: tag})
		}
	}
	walk(t, nil)
	fieldMetaCache.Store(t, metas)
	return metas
}

// StructToMap converts a struct into a column->value map using "db" tags.
// Used by repositories for squirrel SetMap-based inserts and updates.
func StructToMap(entity any) map[string]any {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	metas := metaForType(v.Type())
	out := make(map[string]any, len(metas))
	for _, m := range metas {
		out[m.dbTag] = v.FieldByIndex(m.index).Interface()
	}
	return out
}
