package shipping

import (
	"strings"
	"time"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

// 貨運商名稱子字串對照的運送天數, 查無對應時用最後一筆預設值
var etaFallbacks = []struct {
	substr  string
	minDays int
	maxDays int
}{
	{"dpd", 1, 2},
	{"dhl", 1, 2},
	{"deutsche_post", 1, 2},
	{"deutsche post", 1, 2},
	{"hermes", 2, 4},
	{"gls", 1, 3},
	{"", 2, 4},
}

/*
NormalizeETA 把貨運商回報或查表估算的天數轉成送達日期區間
estimatedDays > 0 表示貨運商有回報, min=max, Source標為carrier
否則以carrier名稱做子字串比對查表, Source標為estimated
*/
func NormalizeETA(carrier string, estimatedDays int, now time.Time) model.ETA {
	if estimatedDays > 0 {
		arrive := now.AddDate(0, 0, estimatedDays)
		return model.ETA{
			MinDays:  estimatedDays,
			MaxDays:  estimatedDays,
			Earliest: arrive,
			Latest:   arrive,
			Source:   model.ETASourceCarrier,
		}
	}

	name := strings.ToLower(carrier)
	for _, fb := range etaFallbacks {
		if fb.substr == "" || strings.Contains(name, fb.substr) {
			return model.ETA{
				MinDays:  fb.minDays,
				MaxDays:  fb.maxDays,
				Earliest: now.AddDate(0, 0, fb.minDays),
				Latest:   now.AddDate(0, 0, fb.maxDays),
				Source:   model.ETASourceEstimated,
			}
		}
	}
	return model.ETA{}
}
