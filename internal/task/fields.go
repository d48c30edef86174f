package task

import (
	"encoding/json"
	"slices"
)

// Fields is an ordered map of record keys this program does not interpret.
// Values are kept as raw JSON and written back verbatim in insertion order.
//
// The zero value is an empty, usable map.
type Fields struct {
	keys   []string
	values map[string]json.RawMessage
}

// Set stores value under key. A new key is appended; an existing key keeps its
// position and has its value replaced.
func (f *Fields) Set(key string, value json.RawMessage) {
	if f.values == nil {
		f.values = make(map[string]json.RawMessage)
	}

	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}

	f.values[key] = slices.Clone(value)
}

// Get returns the raw value stored under key.
func (f Fields) Get(key string) (json.RawMessage, bool) {
	v, ok := f.values[key]

	return v, ok
}

// Delete removes key, preserving the order of the remaining keys.
func (f *Fields) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}

	delete(f.values, key)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	return slices.Clone(f.keys)
}

// Len returns the number of keys.
func (f Fields) Len() int {
	return len(f.keys)
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	var out Fields
	for _, k := range f.keys {
		out.Set(k, f.values[k])
	}

	return out
}
