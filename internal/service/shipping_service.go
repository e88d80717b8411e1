package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/shipping"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/pkg/cache"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// QuoteRequest 報價輸入
// EstimateOnly為true時是購物車頁的粗估, 地址允許是占位值, 只問店面報價商
type QuoteRequest struct {
	Country      string             `json:"country"`
	PostalCode   string             `json:"postal_code"`
	City         string             `json:"city"`
	Street       string             `json:"street"`
	Email        string             `json:"email"`
	Items        []model.ParcelItem `json:"items"`
	EstimateOnly bool               `json:"estimate_only"`
}

type QuoteResult struct {
	Rates    []model.Rate         `json:"rates"`
	Cheapest *model.Rate          `json:"cheapest,omitempty"`
	Parcel   model.ParcelEstimate `json:"parcel"`
	Note     string               `json:"note,omitempty"`
}

type IShippingService interface {
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error)
	PurchaseLabel(ctx context.Context, rateID string) (*model.Label, error)
}

type ShippingService struct {
	estimator   IParcelEstimator
	sendcloud   shipping.ISendcloudClient
	shippo      shipping.IShippoClient
	methodCache *cache.TTLCache[[]model.Rate]
	quoteCache  *cache.TTLCache[QuoteResult]
	allowlist   []string
	sender      shipping.Address
	logger      *zerolog.Logger
}

func NewShippingService(
	estimator IParcelEstimator,
	sendcloud shipping.ISendcloudClient,
	shippo shipping.IShippoClient,
	methodCache *cache.TTLCache[[]model.Rate],
	quoteCache *cache.TTLCache[QuoteResult],
	allowlist []string,
	sender shipping.Address,
	logger *zerolog.Logger,
) IShippingService {
	lowered := make([]string, 0, len(allowlist))
	for _, c := range allowlist {
		lowered = append(lowered, strings.ToLower(c))
	}
	return &ShippingService{
		estimator:   estimator,
		sendcloud:   sendcloud,
		shippo:      shippo,
		methodCache: methodCache,
		quoteCache:  quoteCache,
		allowlist:   lowered,
		sender:      sender,
		logger:      logger,
	}
}

var _ IShippingService = (*ShippingService)(nil)

/*
Quote 整條報價管線: 估算包裹 -> 查快取 -> 並發問報價商 -> 過濾排序
任一報價商失敗只會少它那一份候選, 全部失敗才回上游錯誤
報價商回429且快取還留著過期條目時, 寧可回舊資料也不讓報價頁開天窗
*/
func (s *ShippingService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if req.Country == "" || req.PostalCode == "" {
		return nil, er.New(er.BadRequestCode, "country and postal code are required")
	}
	if !req.EstimateOnly && (req.Street == "" || req.Email == "") {
		return nil, er.New(er.BadRequestCode, "street and email are required for checkout quotes")
	}

	parcel := s.estimator.EstimateParcel(req.Items)
	key := quoteCacheKey(req, parcel.TotalGrams)

	if cached, ok := s.quoteCache.Get(key); ok {
		return &cached, nil
	}

	candidates, queried, upstreamErrs := s.collectRates(ctx, req, parcel)

	if len(upstreamErrs) == queried && len(upstreamErrs) > 0 {
		if rateLimited(upstreamErrs) {
			if stale, ok := s.quoteCache.GetStale(key); ok {
				stale.Note = "quotes may be outdated, provider is rate limiting"
				return &stale, nil
			}
		}
		payloads := make([]string, 0, len(upstreamErrs))
		for _, e := range upstreamErrs {
			payloads = append(payloads, e.Error())
		}
		return nil, er.New(er.UpstreamErrorCode, "all shipping providers failed").WithDetails(payloads)
	}

	result := s.assemble(candidates, parcel)
	s.quoteCache.Set(key, *result)
	return result, nil
}

// collectRates 並發問兩家報價商, 店面粗估模式只問sendcloud
// 回傳候選報價、實際查詢的報價商數量與各家的錯誤
func (s *ShippingService) collectRates(ctx context.Context, req QuoteRequest, parcel model.ParcelEstimate) ([]model.Rate, int, []error) {
	var (
		sendcloudRates []model.Rate
		shippoRates    []model.Rate
		sendcloudErr   error
		shippoErr      error
	)

	g, gctx := errgroup.WithContext(ctx)
	queried := 1

	g.Go(func() error {
		methodKey := methodCacheKey(req.Country, req.PostalCode, parcel.TotalGrams)
		if cached, ok := s.methodCache.Get(methodKey); ok {
			sendcloudRates = cached
			return nil
		}

		callCtx, cancel := context.WithTimeout(gctx, constants.CarrierTimeout)
		defer cancel()
		rates, err := s.sendcloud.ShippingMethods(callCtx, req.Country, req.PostalCode, parcel.TotalGrams)
		if err != nil {
			s.logProviderError("sendcloud", err)
			sendcloudErr = err
			return nil
		}
		s.methodCache.Set(methodKey, rates)
		sendcloudRates = rates
		return nil
	})

	if !req.EstimateOnly {
		queried++
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, constants.CarrierTimeout)
			defer cancel()
			rates, err := s.shippo.CreateShipment(callCtx,
				s.sender,
				shipping.Address{
					Name:       req.Email,
					Street:     req.Street,
					City:       req.City,
					PostalCode: req.PostalCode,
					Country:    req.Country,
					Email:      req.Email,
				},
				shipping.Parcel{
					LengthCm:    parcel.LengthCm,
					WidthCm:     parcel.WidthCm,
					HeightCm:    parcel.HeightCm,
					WeightGrams: parcel.TotalGrams,
				},
			)
			if err != nil {
				s.logProviderError("shippo", err)
				shippoErr = err
				return nil
			}
			shippoRates = rates
			return nil
		})
	}

	// goroutine都只回nil, Wait不會短路
	_ = g.Wait()

	var upstreamErrs []error
	if sendcloudErr != nil {
		upstreamErrs = append(upstreamErrs, sendcloudErr)
	}
	if shippoErr != nil {
		upstreamErrs = append(upstreamErrs, shippoErr)
	}
	return append(sendcloudRates, shippoRates...), queried, upstreamErrs
}

// assemble 過濾 -> 排序 -> 挑最便宜 -> 補自取選項
func (s *ShippingService) assemble(candidates []model.Rate, parcel model.ParcelEstimate) *QuoteResult {
	rates := s.filterAllowlist(candidates)
	note := ""
	if len(rates) == 0 {
		// 允許清單過濾到空時退而求其次, 任何正價EUR報價都收
		for _, r := range candidates {
			if r.Currency == "EUR" && r.Amount.IsPositive() {
				rates = append(rates, r)
			}
		}
		if len(rates) > 0 {
			note = "no allowlisted carrier available, showing all EUR rates"
		}
	}

	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Amount.LessThan(rates[j].Amount)
	})

	result := &QuoteResult{
		Rates:  rates,
		Parcel: parcel,
		Note:   note,
	}
	if len(rates) > 0 {
		cheapest := rates[0]
		result.Cheapest = &cheapest
	} else {
		result.Note = "no shipping rates available for this destination"
	}

	result.Rates = append(result.Rates, selfPickupRate())
	return result
}

func (s *ShippingService) filterAllowlist(candidates []model.Rate) []model.Rate {
	if len(s.allowlist) == 0 {
		return candidates
	}
	filtered := make([]model.Rate, 0, len(candidates))
	for _, r := range candidates {
		carrier := strings.ToLower(r.Carrier)
		for _, allowed := range s.allowlist {
			if strings.Contains(carrier, allowed) {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered
}

// PurchaseLabel 購買運送標籤, 自取選項不需要標籤
func (s *ShippingService) PurchaseLabel(ctx context.Context, rateID string) (*model.Label, error) {
	if rateID == "" || rateID == constants.SelfPickupCarrier {
		return nil, er.New(er.BadRequestCode, "rate id is required")
	}

	callCtx, cancel := context.WithTimeout(ctx, constants.CarrierTimeout)
	defer cancel()
	label, err := s.shippo.PurchaseLabel(callCtx, rateID)
	if err != nil {
		var ue *shipping.UpstreamError
		if errors.As(err, &ue) {
			return nil, er.New(er.UpstreamErrorCode, "label purchase failed").WithDetails(ue.Payload)
		}
		return nil, er.Wrap(er.UpstreamErrorCode, "label purchase failed", err)
	}
	return label, nil
}

func selfPickupRate() model.Rate {
	return model.Rate{
		RateID:   constants.SelfPickupCarrier,
		Carrier:  constants.SelfPickupCarrier,
		Service:  "Selbstabholung",
		Amount:   decimal.Zero,
		Currency: "EUR",
		ETA:      model.ETA{Source: model.ETASourceEstimated},
	}
}

func rateLimited(errs []error) bool {
	for _, err := range errs {
		var ue *shipping.UpstreamError
		if errors.As(err, &ue) && ue.IsRateLimited() {
			return true
		}
	}
	return false
}

func (s *ShippingService) logProviderError(provider string, err error) {
	if s.logger != nil {
		s.logger.Error().Err(err).Str("provider", provider).Msg("shipping provider call failed")
	}
}

// quoteCacheKey 重量按25g分桶, 相鄰重量的購物車共用報價
// 郵遞區號/城市/是否有email與街道/粗估旗標都參與鍵值, 邏輯不同的請求不會撞鍵
func quoteCacheKey(req QuoteRequest, totalGrams int) string {
	bucket := totalGrams / constants.WeightBucketGrams
	return fmt.Sprintf("%s|%s|%s|%d|%t|%t|%t",
		strings.ToUpper(req.Country),
		req.PostalCode,
		strings.ToLower(req.City),
		bucket,
		req.Email != "",
		req.Street != "",
		req.EstimateOnly,
	)
}

func methodCacheKey(country, postalCode string, totalGrams int) string {
	return fmt.Sprintf("methods|%s|%s|%d", strings.ToUpper(country), postalCode, totalGrams/constants.WeightBucketGrams)
}
