package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_EmptyLines(t *testing.T) {
	_, err := Compute(nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = Compute([]Line{})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCompute_NegativeValues(t *testing.T) {
	_, err := Compute([]Line{{Price: -1, Qty: 2}})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = Compute([]Line{{Price: 10, Qty: -1}})
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestCompute_ShippingAtThreshold(t *testing.T) {
	// 100.00 exactement : pas de livraison offerte (il faut dépasser 100)
	got, err := Compute([]Line{{Price: 60, Qty: 1}, {Price: 20, Qty: 2}})
	require.NoError(t, err)

	assert.Equal(t, 100.00, got.ItemsPrice)
	assert.Equal(t, 10.00, got.ShippingPrice)
	assert.Equal(t, 15.00, got.TaxPrice)
	assert.Equal(t, 125.00, got.TotalPrice)
}

func TestCompute_FreeShippingAboveThreshold(t *testing.T) {
	got, err := Compute([]Line{{Price: 80, Qty: 2}})
	require.NoError(t, err)

	assert.Equal(t, 160.00, got.ItemsPrice)
	assert.Equal(t, 0.00, got.ShippingPrice)
	assert.Equal(t, 24.00, got.TaxPrice)
	assert.Equal(t, 184.00, got.TotalPrice)
}

func TestCompute_TotalIsSumOfParts(t *testing.T) {
	cases := [][]Line{
		{{Price: 0.01, Qty: 1}},
		{{Price: 19.99, Qty: 3}},
		{{Price: 33.33, Qty: 3}},
		{{Price: 7.77, Qty: 13}, {Price: 0.10, Qty: 1}},
		{{Price: 250, Qty: 4}},
		{{Price: 33.33, Qty: 1}},
	}

	for _, lines := range cases {
		got, err := Compute(lines)
		require.NoError(t, err)
		assert.InDelta(t, got.ItemsPrice+got.ShippingPrice+got.TaxPrice, got.TotalPrice, 0.0001)

		if got.ItemsPrice > FreeShippingThreshold {
			assert.Equal(t, 0.00, got.ShippingPrice)
		} else {
			assert.Equal(t, FlatShippingPrice, got.ShippingPrice)
		}
	}
}

func TestCompute_TaxRoundedToCents(t *testing.T) {
	// 33.33 × 0.15 = 4.9995 → 5.00 une fois arrondi au centime
	got, err := Compute([]Line{{Price: 33.33, Qty: 1}})
	require.NoError(t, err)
	assert.Equal(t, 5.00, got.TaxPrice)
}

func TestCompute_ZeroQuantityLineAllowed(t *testing.T) {
	// qty 0 est toléré par le moteur (la validation qty >= 1 vit au checkout)
	got, err := Compute([]Line{{Price: 50, Qty: 0}, {Price: 20, Qty: 1}})
	require.NoError(t, err)
	assert.Equal(t, 20.00, got.ItemsPrice)
}
