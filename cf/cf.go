// Package cf binds decoded configuration documents (YAML maps) onto tagged structs.
package cf

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load copies values from data into the exported fields of the struct pointed to by cf. Keys are taken from the
// `cf:"..."` tag, or the field name when untagged. Missing keys leave fields untouched.
func Load(data map[string]interface{}, cf interface{}) error {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() != reflect.Ptr {
		return errors.Errorf("cf type [%s] not a pointer", cfV.Type())
	}
	cfV = cfV.Elem()
	if cfV.Kind() != reflect.Struct {
		return errors.Errorf("cf type [%s] not struct", cfV.Type())
	}
	for i := 0; i < cfV.NumField(); i++ {
		field := cfV.Field(i)
		if !field.CanSet() {
			continue
		}
		key := keyName(cfV.Type().Field(i))
		v, found := data[key]
		if !found {
			continue
		}
		if err := setField(key, field, v); err != nil {
			return err
		}
	}
	return nil
}

func setField(key string, field reflect.Value, v interface{}) error {
	if field.Type() == durationType {
		switch dv := v.(type) {
		case string:
			d, err := time.ParseDuration(dv)
			if err != nil {
				return errors.Wrapf(err, "field '%s' invalid duration", key)
			}
			field.SetInt(int64(d))
			return nil
		case int:
			field.SetInt(int64(time.Duration(dv) * time.Millisecond))
			return nil
		default:
			return mismatch(key, v, field)
		}
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		if j, ok := v.(int); ok {
			field.SetInt(int64(j))
		} else {
			return mismatch(key, v, field)
		}

	case reflect.Float64:
		switch f := v.(type) {
		case float64:
			field.SetFloat(f)
		case int:
			field.SetFloat(float64(f))
		default:
			return mismatch(key, v, field)
		}

	case reflect.Bool:
		if b, ok := v.(bool); ok {
			field.SetBool(b)
		} else {
			return mismatch(key, v, field)
		}

	case reflect.String:
		if s, ok := v.(string); ok {
			field.SetString(s)
		} else {
			return mismatch(key, v, field)
		}

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return errors.Errorf("unsupported field type [%s]", field.Type())
		}
		items, ok := v.([]interface{})
		if !ok {
			return mismatch(key, v, field)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return errors.Errorf("field '%s' expects strings, got [%s]", key, reflect.TypeOf(item))
			}
			out = append(out, s)
		}
		field.Set(reflect.ValueOf(out))

	default:
		return errors.Errorf("unsupported field type [%s]", field.Type())
	}
	return nil
}

func mismatch(key string, v interface{}, field reflect.Value) error {
	return errors.Errorf("field '%s' type mismatch, got [%s], expected [%s]", key, reflect.TypeOf(v), field.Type())
}

// Dump renders the bindable fields of cf, one per line, for logging.
func Dump(label string, cf interface{}) string {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return ""
	}
	var keys []string
	values := make(map[string]interface{})
	for i := 0; i < cfV.NumField(); i++ {
		if cfV.Field(i).CanInterface() {
			key := keyName(cfV.Type().Field(i))
			keys = append(keys, key)
			values[key] = cfV.Field(i).Interface()
		}
	}
	sort.Strings(keys)

	out := new(strings.Builder)
	out.WriteString(label + " {\n")
	format := fmt.Sprintf("\t%%-%ds %%v\n", maxKeyLength(keys))
	for _, key := range keys {
		out.WriteString(fmt.Sprintf(format, key, values[key]))
	}
	out.WriteString("}\n")
	return out.String()
}

func keyName(v reflect.StructField) string {
	key := v.Name
	if tag := v.Tag.Get("cf"); tag != "" {
		key = tag
	}
	return key
}

func maxKeyLength(keys []string) int {
	maxKeyLength := 0
	for _, key := range keys {
		if len(key) > maxKeyLength {
			maxKeyLength = len(key)
		}
	}
	return maxKeyLength
}
