package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComputesElementCount(t *testing.T) {
	p := NewPool(4096)
	ts, err := New(p, F32, []int{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 24, ts.ElementCount())
	assert.Equal(t, 3, ts.Rank())
	assert.True(t, ts.Owned)
}

func TestNewRejectsNilPool(t *testing.T) {
	_, err := New(nil, F32, []int{1})
	require.Error(t, err)
}

func TestNewRejectsNegativeShape(t *testing.T) {
	p := NewPool(4096)
	_, err := New(p, F32, []int{-1})
	require.Error(t, err)
}

func TestSetAndGetFloat32RoundTrip(t *testing.T) {
	p := NewPool(4096)
	ts, err := New(p, F32, []int{4})
	require.NoError(t, err)

	in := []float32{1.5, -2.25, 0, 3.125}
	require.NoError(t, ts.SetFloat32(in))

	out, err := ts.Float32()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWrapExternalTensorNotOwned(t *testing.T) {
	buf := make([]byte, 16)
	ts, err := Wrap(F32, []int{4}, buf)
	require.NoError(t, err)
	assert.False(t, ts.Owned)
	assert.Nil(t, ts.Pool)
}

func TestFloat32RejectsWrongDtype(t *testing.T) {
	p := NewPool(4096)
	ts, err := New(p, Int8, []int{4})
	require.NoError(t, err)
	_, err = ts.Float32()
	require.Error(t, err)
}
