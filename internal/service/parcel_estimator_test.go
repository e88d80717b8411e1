package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

func TestEstimateParcelWithFullAttributes(t *testing.T) {
	est := NewParcelEstimator()

	got := est.EstimateParcel([]model.ParcelItem{
		{WeightGrams: 300, WidthCm: 12, HeightCm: 19, ThicknessCm: 2, Quantity: 2},
		{WeightGrams: 500, WidthCm: 15, HeightCm: 23, ThicknessCm: 3, Quantity: 1},
	})

	// 300*2 + 500 + 60 + 20*3
	require.Equal(t, 1220, got.TotalGrams)
	require.Equal(t, 120, got.PackagingGrams)
	require.Len(t, got.Breakdown, 2)
	require.Equal(t, 600, got.Breakdown[0].Subtotal)

	// 長寬取最大書本尺寸加3cm, 高為書脊堆疊加1cm
	require.Equal(t, 26.0, got.LengthCm)
	require.Equal(t, 18.0, got.WidthCm)
	require.Equal(t, 8.0, got.HeightCm)
}

func TestEstimateParcelAppliesDefaults(t *testing.T) {
	est := NewParcelEstimator()

	got := est.EstimateParcel([]model.ParcelItem{
		{Quantity: 1},
		{WeightGrams: -5, WidthCm: -1, Quantity: 1},
	})

	// 兩件都落回預設450g, 包材60+20*2
	require.Equal(t, 450*2+60+40, got.TotalGrams)
	require.Equal(t, 24.5, got.LengthCm)
	require.Equal(t, 16.5, got.WidthCm)
	require.Equal(t, 6.0, got.HeightCm)
}

func TestEstimateParcelSkipsNonPositiveQuantity(t *testing.T) {
	est := NewParcelEstimator()

	got := est.EstimateParcel([]model.ParcelItem{
		{WeightGrams: 400, Quantity: 0},
		{WeightGrams: 400, Quantity: -2},
	})

	require.Empty(t, got.Breakdown)
	// 只剩固定包材重
	require.Equal(t, 60, got.TotalGrams)
	// 尺寸仍有1cm下限
	require.Equal(t, 3.0, got.LengthCm)
	require.Equal(t, 3.0, got.WidthCm)
	require.Equal(t, 1.0, got.HeightCm)
}

func TestEstimateParcelEmptyInput(t *testing.T) {
	est := NewParcelEstimator()

	got := est.EstimateParcel(nil)
	require.Equal(t, 60, got.TotalGrams)
	require.Equal(t, 60, got.PackagingGrams)
}

func TestEstimateParcelWeightMonotonicInQuantity(t *testing.T) {
	est := NewParcelEstimator()

	base := []model.ParcelItem{
		{WeightGrams: 320, ThicknessCm: 1.8, Quantity: 1},
		{WeightGrams: 710, ThicknessCm: 4.2, Quantity: 2},
	}
	prev := est.EstimateParcel(base).TotalGrams
	for q := 2; q <= 6; q++ {
		items := []model.ParcelItem{base[0], base[1]}
		items[0].Quantity = q
		cur := est.EstimateParcel(items).TotalGrams
		require.Greater(t, cur, prev)
		prev = cur
	}
}
