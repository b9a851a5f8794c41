//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"sort"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// DictionaryEntry is one key/value pair.
type DictionaryEntry struct {
	Key   string
	Value string
}

// Dictionary is an ordered set of string options passed to FFmpeg as an
// AVDictionary. Keys keep their insertion order; setting an existing key
// replaces its value in place. The zero value is an empty dictionary.
type Dictionary struct {
	entries []DictionaryEntry
	index   map[string]int
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]int)}
}

// DictionaryFromMap returns a dictionary holding m, ordered by key.
func DictionaryFromMap(m map[string]string) *Dictionary {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := NewDictionary()
	for _, k := range keys {
		d.set(k, m[k])
	}
	return d
}

func (d *Dictionary) set(key, value string) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, DictionaryEntry{Key: key, Value: value})
}

// Set stores value under key. Empty keys are rejected.
func (d *Dictionary) Set(key, value string, slot *averror.Slot) error {
	if key == "" {
		return averror.Check(slot, averror.New(averror.InvalidArgument, "dictionary.set", "empty key"))
	}
	d.set(key, value)
	return averror.Check(slot, nil)
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key string, slot *averror.Slot) (string, error) {
	i, ok := d.index[key]
	if !ok {
		return averror.Fail[string](averror.New(averror.DictionaryKeyNotFound, "dictionary.get", "key %q not found", key)).Deliver(slot)
	}
	return averror.Ok(d.entries[i].Value).Deliver(slot)
}

// At returns the entry at position i in insertion order.
func (d *Dictionary) At(i int, slot *averror.Slot) (DictionaryEntry, error) {
	if i < 0 || i >= len(d.entries) {
		return averror.Fail[DictionaryEntry](averror.New(averror.DictionaryIndexOutOfRange, "dictionary.at",
			"index %d out of range for %d entries", i, len(d.entries))).Deliver(slot)
	}
	return averror.Ok(d.entries[i]).Deliver(slot)
}

// Delete removes key and reports whether it was present.
func (d *Dictionary) Delete(key string) bool {
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}
	return true
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// toC builds an AVDictionary holding d. A nil or empty d yields nil.
func (d *Dictionary) toC(lib ffi.Library) (ffi.Ptr, error) {
	var p ffi.Ptr
	for _, e := range d.entriesOrNil() {
		if code := lib.DictSet(&p, e.Key, e.Value); code < 0 {
			lib.DictFree(&p)
			return nil, codeErr(lib, code, "av_dict_set")
		}
	}
	return p, nil
}

func (d *Dictionary) entriesOrNil() []DictionaryEntry {
	if d == nil {
		return nil
	}
	return d.entries
}

// dictEntries is a view over the entry chain of an AVDictionary.
func dictEntries(lib ffi.Library, p ffi.Ptr) handle.List[ffi.Ptr] {
	if p == nil {
		return handle.NewList[ffi.Ptr](nil, nil, nil)
	}
	return handle.NewList(lib.DictNext(p, nil), func(e ffi.Ptr) ffi.Ptr {
		return lib.DictNext(p, e)
	}, nil)
}

// fromC copies an AVDictionary into a new Dictionary.
func fromC(lib ffi.Library, p ffi.Ptr) *Dictionary {
	d := NewDictionary()
	for _, e := range dictEntries(lib, p).All() {
		k, v := lib.DictEntry(e.Raw())
		d.set(k, v)
	}
	return d
}
