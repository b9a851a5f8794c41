//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
)

func TestDictionaryOrderAndReplace(t *testing.T) {
	d := NewDictionary()
	require.NoError(t, d.Set("preset", "fast", nil))
	require.NoError(t, d.Set("crf", "23", nil))
	require.NoError(t, d.Set("preset", "slow", nil))

	require.Equal(t, 2, d.Len())
	require.Equal(t, []string{"preset", "crf"}, d.Keys())
	v, err := d.Get("preset", nil)
	require.NoError(t, err)
	require.Equal(t, "slow", v)

	e, err := d.At(1, nil)
	require.NoError(t, err)
	require.Equal(t, DictionaryEntry{Key: "crf", Value: "23"}, e)

	require.True(t, d.Delete("preset"))
	require.False(t, d.Delete("preset"))
	e, err = d.At(0, nil)
	require.NoError(t, err)
	require.Equal(t, "crf", e.Key)
}

func TestDictionaryErrors(t *testing.T) {
	var d Dictionary

	_, err := d.Get("missing", nil)
	require.ErrorIs(t, err, averror.DictionaryKeyNotFound)

	var slot averror.Slot
	v, err := d.At(3, &slot)
	require.NoError(t, err)
	require.Zero(t, v)
	require.Equal(t, averror.DictionaryIndexOutOfRange, slot.Failure().Domain)

	require.ErrorIs(t, d.Set("", "x", nil), averror.InvalidArgument)

	slot.Reset()
	require.NoError(t, d.Set("k", "v", &slot))
	require.False(t, slot.Failed())
	require.Equal(t, 1, d.Len())
}

func TestDictionaryFromMapSorted(t *testing.T) {
	d := DictionaryFromMap(map[string]string{"b": "2", "a": "1", "c": "3"})
	require.Equal(t, []string{"a", "b", "c"}, d.Keys())

	var nilDict *Dictionary
	require.Zero(t, nilDict.Len())
	require.Nil(t, nilDict.Keys())
}

func TestDictionaryRoundTripsThroughLibrary(t *testing.T) {
	lib, _ := newFake(t)

	d := DictionaryFromMap(map[string]string{"threads": "2", "b": "64000"})
	p, err := d.toC(lib)
	require.NoError(t, err)
	defer lib.DictFree(&p)
	require.Equal(t, []string{"b", "threads"}, lib.Keys(p))
	require.Equal(t, 2, dictEntries(lib, p).Count())

	back := fromC(lib, p)
	require.Equal(t, d.Keys(), back.Keys())
	v, err := back.Get("b", nil)
	require.NoError(t, err)
	require.Equal(t, "64000", v)

	empty, err := (*Dictionary)(nil).toC(lib)
	require.NoError(t, err)
	require.Nil(t, empty)
	require.True(t, dictEntries(lib, nil).Empty())
}
