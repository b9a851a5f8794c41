package handle

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
)

type node struct {
	name string
	next *node
}

func chain(names ...string) *node {
	var head *node
	for i := len(names) - 1; i >= 0; i-- {
		head = &node{name: names[i], next: head}
	}
	return head
}

func nodeList(head *node) List[*node] {
	return NewList(head, func(n *node) *node { return n.next }, nil)
}

func TestListBounds(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			names := make([]string, n)
			for i := range names {
				names[i] = fmt.Sprintf("n%d", i)
			}
			l := nodeList(chain(names...))
			require.Equal(t, n, l.Count())
			require.Equal(t, n == 0, l.Empty())

			for i := 0; i < n; i++ {
				v, err := l.At(i)
				require.NoError(t, err)
				require.Equal(t, names[i], v.Raw().name)
			}
			for _, i := range []int{n, n + 1, -1} {
				_, err := l.At(i)
				require.ErrorIs(t, err, averror.OutOfRange)
				require.ErrorIs(t, err, averror.InvalidArgument)
			}
		})
	}
}

func TestListRestartable(t *testing.T) {
	l := nodeList(chain("a", "b", "c"))
	var first, second []string
	for _, v := range l.All() {
		first = append(first, v.Raw().name)
	}
	for i, v := range l.All() {
		if i == 2 {
			break
		}
		second = append(second, v.Raw().name)
	}
	require.Equal(t, []string{"a", "b", "c"}, first)
	require.Equal(t, []string{"a", "b"}, second)
}

func TestListSentinelArray(t *testing.T) {
	arr := []int32{0, 1, 4, -1, 7}
	l := NewList(unsafe.Pointer(&arr[0]),
		func(p unsafe.Pointer) unsafe.Pointer { return unsafe.Add(p, 4) },
		func(p unsafe.Pointer) bool { return *(*int32)(p) == -1 })

	require.Equal(t, 3, l.Count())
	v, err := l.At(2)
	require.NoError(t, err)
	require.Equal(t, int32(4), *(*int32)(v.Raw()))
	_, err = l.At(3)
	require.ErrorIs(t, err, averror.OutOfRange)
}
