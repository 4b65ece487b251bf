package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderLines_StoredAsJSON(t *testing.T) {
	lines := OrderLines{{Product: "Latte", Quantity: 2}, {Product: "Burger", Quantity: 1}}

	value, err := lines.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product":"Latte","quantity":2},{"product":"Burger","quantity":1}]`, string(value.([]byte)))

	var nilLines OrderLines
	value, err = nilLines.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value.([]byte)))
}

func TestOrderLines_Scan(t *testing.T) {
	var lines OrderLines
	require.NoError(t, lines.Scan(`[{"product":"Latte","quantity":2}]`))
	assert.Equal(t, OrderLines{{Product: "Latte", Quantity: 2}}, lines)

	require.NoError(t, lines.Scan(nil))
	assert.Empty(t, lines)

	assert.Error(t, lines.Scan(42))
}

func TestOrderLines_Aggregates(t *testing.T) {
	lines := OrderLines{
		{Product: "Latte", Quantity: 2},
		{Product: "Burger", Quantity: 1},
		{Product: "Latte", Quantity: 3},
	}
	assert.Equal(t, 6, lines.TotalQuantity())
	assert.Equal(t, []string{"Latte", "Burger"}, lines.DistinctProducts())
}

func TestNewPage(t *testing.T) {
	page := NewPage[int](nil, 21, 2, 10)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.PageNumber)
	assert.NotNil(t, page.Data)

	assert.Zero(t, NewPage([]int{1}, 1, 1, 0).TotalPages)
}
