package service

import (
	"math"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

type IParcelEstimator interface {
	EstimateParcel(items []model.ParcelItem) model.ParcelEstimate
}

/*
ParcelEstimator 依購物車內容估算包裹總重與外箱尺寸
書本以平放堆疊建模, 缺漏的單品資料用預設常數補上
純計算, 不碰DB也不打外部API
*/
type ParcelEstimator struct {
	defaultWeightGrams int
	defaultWidthCm     float64
	defaultHeightCm    float64
	defaultThicknessCm float64
	packagingFixed     int
	packagingPerItem   int
	paddingLWCm        float64
	paddingHCm         float64
}

func NewParcelEstimator() *ParcelEstimator {
	return &ParcelEstimator{
		defaultWeightGrams: constants.DefaultBookWeightGrams,
		defaultWidthCm:     constants.DefaultBookWidthCm,
		defaultHeightCm:    constants.DefaultBookHeightCm,
		defaultThicknessCm: constants.DefaultBookThicknessCm,
		packagingFixed:     constants.PackagingFixedGrams,
		packagingPerItem:   constants.PackagingPerItemGrams,
		paddingLWCm:        constants.PackagingPaddingLWCm,
		paddingHCm:         constants.PackagingPaddingHCm,
	}
}

var _ IParcelEstimator = (*ParcelEstimator)(nil)

func (p *ParcelEstimator) EstimateParcel(items []model.ParcelItem) model.ParcelEstimate {
	var (
		totalGrams int
		totalCount int
		maxLength  float64
		maxWidth   float64
		stackCm    float64
		breakdown  = make([]model.WeightBreakdownEntry, 0, len(items))
	)

	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			continue
		}

		weight := item.WeightGrams
		if weight <= 0 {
			weight = p.defaultWeightGrams
		}
		width := item.WidthCm
		if width <= 0 {
			width = p.defaultWidthCm
		}
		height := item.HeightCm
		if height <= 0 {
			height = p.defaultHeightCm
		}
		thickness := item.ThicknessCm
		if thickness <= 0 {
			thickness = p.defaultThicknessCm
		}

		totalGrams += weight * qty
		totalCount += qty
		stackCm += thickness * float64(qty)
		maxLength = math.Max(maxLength, height)
		maxWidth = math.Max(maxWidth, width)
		breakdown = append(breakdown, model.WeightBreakdownEntry{
			WeightGrams: weight,
			Quantity:    qty,
			Subtotal:    weight * qty,
		})
	}

	packaging := p.packagingFixed + p.packagingPerItem*totalCount
	totalGrams += packaging
	if totalGrams < 1 {
		totalGrams = 1
	}

	return model.ParcelEstimate{
		TotalGrams:     totalGrams,
		Breakdown:      breakdown,
		PackagingGrams: packaging,
		LengthCm:       roundDim(maxLength + p.paddingLWCm),
		WidthCm:        roundDim(maxWidth + p.paddingLWCm),
		HeightCm:       roundDim(stackCm + p.paddingHCm),
	}
}

// roundDim 四捨五入到0.1cm, 下限1cm
func roundDim(v float64) float64 {
	v = math.Round(v*10) / 10
	if v < 1 {
		return 1
	}
	return v
}
