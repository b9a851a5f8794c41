package averror

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func divide(a, b int) Result[int] {
	if b == 0 {
		return Fail[int](New(InvalidArgument, "divide", "division by zero"))
	}
	return Ok(a / b)
}

func TestDeliverFormsAgree(t *testing.T) {
	cases := []struct {
		name string
		a, b int
	}{
		{"ok", 6, 3},
		{"fails", 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v1, err := divide(tc.a, tc.b).Deliver(nil)

			var slot Slot
			v2, err2 := divide(tc.a, tc.b).Deliver(&slot)
			require.NoError(t, err2)

			require.Equal(t, err != nil, slot.Failed())
			require.Equal(t, v1, v2)
			if err != nil {
				require.Equal(t, DomainOf(err), slot.Failure().Domain)
				require.Equal(t, CodeOf(err), slot.Failure().Code)
				require.Equal(t, StateFailed, slot.State())
				require.Zero(t, v2)
			} else {
				require.Equal(t, StateOK, slot.State())
				require.Nil(t, slot.Err())
			}
		})
	}
}

func TestDeliverNormalizesForeignErrors(t *testing.T) {
	r := Fail[string](fmt.Errorf("read header: %w", io.EOF))

	_, err := r.Deliver(nil)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, LibraryReported, e.Domain)
	require.True(t, IsEOF(err))
	require.ErrorIs(t, err, io.EOF)

	var slot Slot
	_, _ = r.Deliver(&slot)
	require.Equal(t, e.Code, slot.Failure().Code)
	require.Equal(t, e.Domain, slot.Failure().Domain)
}

func TestSlotReuse(t *testing.T) {
	var slot Slot
	require.Equal(t, StateUnset, slot.State())

	require.NoError(t, Check(&slot, NotOpen))
	require.True(t, slot.Failed())
	require.ErrorIs(t, slot.Err(), NotOpen)

	require.NoError(t, Check(&slot, nil))
	require.Equal(t, StateOK, slot.State())

	slot.Reset()
	require.Equal(t, StateUnset, slot.State())
}

func TestDomainClass(t *testing.T) {
	err := New(OutOfRange, "list.at", "index %d out of range", 3)
	require.ErrorIs(t, err, OutOfRange)
	require.ErrorIs(t, err, InvalidArgument)
	require.False(t, errors.Is(err, NotOpen))
	require.Equal(t, int32(OutOfRange), err.Code)
	require.Contains(t, err.Error(), "list.at")
}

func TestFromCode(t *testing.T) {
	require.Nil(t, FromCode(0, "op", ""))
	require.Nil(t, FromCode(5, "op", ""))

	err := FromCode(CodeAgain, "avcodec_receive_frame", "Resource temporarily unavailable")
	require.True(t, IsAgain(err))
	require.False(t, IsEOF(err))
	require.ErrorIs(t, err, LibraryReported)
	require.ErrorIs(t, err, &Error{Domain: LibraryReported, Code: CodeAgain})
}

func TestMust(t *testing.T) {
	require.Equal(t, 2, Must(divide(4, 2).Unwrap()))

	defer func() {
		r := recover()
		e, ok := r.(*Error)
		require.True(t, ok)
		require.Equal(t, InvalidArgument, e.Domain)
	}()
	Must(divide(1, 0).Unwrap())
	t.Fatal("Must did not panic")
}

func TestInto(t *testing.T) {
	var slot Slot
	require.Equal(t, 0, divide(1, 0).Into(&slot))
	require.True(t, slot.Failed())
	require.Equal(t, 5, divide(10, 2).Into(&slot))
	require.False(t, slot.Failed())
}
