package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float32{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 2, m.Cols())
	assert.Equal(t, []float32{3, 4}, m.Row(1))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Data())
}

func TestFromRows_Ragged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestFromRows_Empty(t *testing.T) {
	_, err := FromRows[float32](nil)
	assert.Error(t, err)

	_, err = FromRows([][]float32{{}})
	assert.Error(t, err)
}

func TestFromSlice(t *testing.T) {
	m, err := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, m.Row(1))

	_, err = FromSlice([]float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	m, err := New[float32](2, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, m.Row(1))

	_, err = New[float32](2, 0)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	m, err := FromRows([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)

	c := m.Clone()
	c.Row(0)[0] = 99

	assert.Equal(t, float32(1), m.Row(0)[0])
	assert.Equal(t, float32(99), c.Row(0)[0])
}

func TestClose_HeapBacked(t *testing.T) {
	m, err := New[float64](1, 1)
	require.NoError(t, err)
	assert.NoError(t, m.Close())
}
