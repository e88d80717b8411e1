package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/shipping"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/pkg/cache"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type stubSendcloud struct {
	rates []model.Rate
	err   error
	calls int
}

func (s *stubSendcloud) ShippingMethods(ctx context.Context, toCountry, toPostalCode string, weightGrams int) ([]model.Rate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

type stubShippo struct {
	rates      []model.Rate
	err        error
	label      *model.Label
	labelErr   error
	calls      int
	labelCalls int
}

func (s *stubShippo) CreateShipment(ctx context.Context, from, to shipping.Address, parcel shipping.Parcel) ([]model.Rate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func (s *stubShippo) PurchaseLabel(ctx context.Context, rateID string) (*model.Label, error) {
	s.labelCalls++
	if s.labelErr != nil {
		return nil, s.labelErr
	}
	return s.label, nil
}

func mkRate(id, carrier, amount string) model.Rate {
	return model.Rate{
		RateID:   id,
		Carrier:  carrier,
		Service:  carrier + " standard",
		Amount:   decimal.RequireFromString(amount),
		Currency: "EUR",
		ETA:      model.ETA{MinDays: 1, MaxDays: 2, Source: model.ETASourceEstimated},
	}
}

type quoteFixture struct {
	svc        IShippingService
	sendcloud  *stubSendcloud
	shippo     *stubShippo
	quoteCache *cache.TTLCache[QuoteResult]
	clock      *time.Time
}

func newQuoteFixture(t *testing.T, sendcloud *stubSendcloud, shippo *stubShippo, allowlist []string) *quoteFixture {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := &now
	nowFn := func() time.Time { return *clock }

	methodCache := cache.New[[]model.Rate](constants.RateCacheCapacity, constants.MethodCacheTTL, cache.WithNow[[]model.Rate](nowFn))
	quoteCache := cache.New[QuoteResult](constants.RateCacheCapacity, constants.QuoteCacheTTL, cache.WithNow[QuoteResult](nowFn))

	svc := NewShippingService(
		NewParcelEstimator(),
		sendcloud,
		shippo,
		methodCache,
		quoteCache,
		allowlist,
		shipping.Address{Name: "Shop", Street: "Lagerweg 1", City: "Berlin", PostalCode: "10115", Country: "DE"},
		nil,
	)
	return &quoteFixture{svc: svc, sendcloud: sendcloud, shippo: shippo, quoteCache: quoteCache, clock: clock}
}

func checkoutRequest(items ...model.ParcelItem) QuoteRequest {
	return QuoteRequest{
		Country:    "DE",
		PostalCode: "20095",
		City:       "Hamburg",
		Street:     "Hauptstr. 5",
		Email:      "kunde@example.com",
		Items:      items,
	}
}

func TestQuoteSortsAndPicksCheapest(t *testing.T) {
	fx := newQuoteFixture(t,
		&stubSendcloud{rates: []model.Rate{mkRate("sc:1", "dhl", "6.50")}},
		&stubShippo{rates: []model.Rate{mkRate("rate_a", "dpd", "4.20"), mkRate("rate_b", "hermes", "5.10")}},
		nil,
	)

	got, err := fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{WeightGrams: 400, Quantity: 1}))
	require.NoError(t, err)

	// 三家報價升冪排列, 結尾補自取
	require.Len(t, got.Rates, 4)
	require.Equal(t, "rate_a", got.Rates[0].RateID)
	require.Equal(t, "rate_b", got.Rates[1].RateID)
	require.Equal(t, "sc:1", got.Rates[2].RateID)
	require.Equal(t, constants.SelfPickupCarrier, got.Rates[3].RateID)
	require.True(t, got.Rates[3].Amount.IsZero())

	require.NotNil(t, got.Cheapest)
	require.Equal(t, "rate_a", got.Cheapest.RateID)
	require.Equal(t, 400+constants.PackagingFixedGrams+constants.PackagingPerItemGrams, got.Parcel.TotalGrams)
}

func TestQuoteAllowlistFallsBackToEURRates(t *testing.T) {
	fx := newQuoteFixture(t,
		&stubSendcloud{rates: []model.Rate{mkRate("sc:1", "ups", "7.00")}},
		&stubShippo{rates: []model.Rate{mkRate("rate_a", "fedex", "9.00")}},
		[]string{"dhl", "dpd"},
	)

	got, err := fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{Quantity: 1}))
	require.NoError(t, err)

	// 允許清單全滅但還有正價EUR報價, 全部放行並加註記
	require.Len(t, got.Rates, 3)
	require.Contains(t, got.Note, "allowlisted")
	require.Equal(t, "sc:1", got.Cheapest.RateID)
}

func TestQuoteEmptyRatesIsNormalResponse(t *testing.T) {
	fx := newQuoteFixture(t,
		&stubSendcloud{rates: nil},
		&stubShippo{rates: nil},
		nil,
	)

	got, err := fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{Quantity: 1}))
	require.NoError(t, err)

	require.Nil(t, got.Cheapest)
	require.NotEmpty(t, got.Note)
	// 只剩自取
	require.Len(t, got.Rates, 1)
	require.Equal(t, constants.SelfPickupCarrier, got.Rates[0].RateID)
}

func TestQuoteAllProvidersDownReturnsUpstreamError(t *testing.T) {
	fx := newQuoteFixture(t,
		&stubSendcloud{err: &shipping.UpstreamError{Provider: "sendcloud", StatusCode: 500, Payload: "down"}},
		&stubShippo{err: &shipping.UpstreamError{Provider: "shippo", StatusCode: 503, Payload: "down"}},
		nil,
	)

	_, err := fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{Quantity: 1}))
	anaErr, ok := er.AsAnaError(err)
	require.True(t, ok)
	require.Equal(t, er.UpstreamErrorCode, anaErr.Code)
	require.NotNil(t, anaErr.Details)
}

func TestQuoteSingleProviderDownDegrades(t *testing.T) {
	fx := newQuoteFixture(t,
		&stubSendcloud{err: &shipping.UpstreamError{Provider: "sendcloud", StatusCode: 500, Payload: "down"}},
		&stubShippo{rates: []model.Rate{mkRate("rate_a", "dhl", "5.00")}},
		nil,
	)

	got, err := fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, "rate_a", got.Cheapest.RateID)
}

func TestQuoteServesStaleOnRateLimit(t *testing.T) {
	sendcloud := &stubSendcloud{rates: []model.Rate{mkRate("sc:1", "dhl", "6.50")}}
	shippo := &stubShippo{rates: []model.Rate{mkRate("rate_a", "dpd", "4.20")}}
	fx := newQuoteFixture(t, sendcloud, shippo, nil)

	req := checkoutRequest(model.ParcelItem{Quantity: 1})
	first, err := fx.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "rate_a", first.Cheapest.RateID)

	// 快取過期後兩家都回429, 應改吐過期快取並加註記
	*fx.clock = fx.clock.Add(constants.QuoteCacheTTL + constants.MethodCacheTTL + time.Second)
	sendcloud.err = &shipping.UpstreamError{Provider: "sendcloud", StatusCode: http.StatusTooManyRequests, Payload: "slow down"}
	sendcloud.rates = nil
	shippo.err = &shipping.UpstreamError{Provider: "shippo", StatusCode: http.StatusTooManyRequests, Payload: "slow down"}
	shippo.rates = nil

	stale, err := fx.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "rate_a", stale.Cheapest.RateID)
	require.Contains(t, stale.Note, "rate limiting")
}

func TestQuoteCacheBucketsNearbyWeights(t *testing.T) {
	sendcloud := &stubSendcloud{rates: []model.Rate{mkRate("sc:1", "dhl", "6.50")}}
	shippo := &stubShippo{rates: []model.Rate{mkRate("rate_a", "dpd", "4.20")}}
	fx := newQuoteFixture(t, sendcloud, shippo, nil)

	_, err := fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{WeightGrams: 400, Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, 1, shippo.calls)

	// 總重差1克, 落同一個25g桶, 必須命中快取
	_, err = fx.svc.Quote(context.Background(), checkoutRequest(model.ParcelItem{WeightGrams: 401, Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, 1, shippo.calls)

	// 郵遞區號不同, 不可共用快取
	other := checkoutRequest(model.ParcelItem{WeightGrams: 400, Quantity: 1})
	other.PostalCode = "10117"
	_, err = fx.svc.Quote(context.Background(), other)
	require.NoError(t, err)
	require.Equal(t, 2, shippo.calls)
}

func TestQuoteEstimateOnlySkipsShippo(t *testing.T) {
	sendcloud := &stubSendcloud{rates: []model.Rate{mkRate("sc:1", "dhl", "6.50")}}
	shippo := &stubShippo{rates: []model.Rate{mkRate("rate_a", "dpd", "4.20")}}
	fx := newQuoteFixture(t, sendcloud, shippo, nil)

	got, err := fx.svc.Quote(context.Background(), QuoteRequest{
		Country:      "DE",
		PostalCode:   "20095",
		City:         "Hamburg",
		Items:        []model.ParcelItem{{Quantity: 1}},
		EstimateOnly: true,
	})
	require.NoError(t, err)
	require.Zero(t, shippo.calls)
	require.Equal(t, 1, sendcloud.calls)
	require.Equal(t, "sc:1", got.Cheapest.RateID)
}

func TestQuoteCheckoutRequiresFullAddress(t *testing.T) {
	fx := newQuoteFixture(t, &stubSendcloud{}, &stubShippo{}, nil)

	req := checkoutRequest(model.ParcelItem{Quantity: 1})
	req.Street = ""
	_, err := fx.svc.Quote(context.Background(), req)
	anaErr, ok := er.AsAnaError(err)
	require.True(t, ok)
	require.Equal(t, er.BadRequestCode, anaErr.Code)
}

func TestPurchaseLabelSelfPickupRejected(t *testing.T) {
	fx := newQuoteFixture(t, &stubSendcloud{}, &stubShippo{}, nil)

	_, err := fx.svc.PurchaseLabel(context.Background(), constants.SelfPickupCarrier)
	anaErr, ok := er.AsAnaError(err)
	require.True(t, ok)
	require.Equal(t, er.BadRequestCode, anaErr.Code)
}

func TestPurchaseLabelUpstreamFailure(t *testing.T) {
	shippo := &stubShippo{labelErr: &shipping.UpstreamError{Provider: "shippo", StatusCode: 502, Payload: "rate expired"}}
	fx := newQuoteFixture(t, &stubSendcloud{}, shippo, nil)

	_, err := fx.svc.PurchaseLabel(context.Background(), "rate_old")
	anaErr, ok := er.AsAnaError(err)
	require.True(t, ok)
	require.Equal(t, er.UpstreamErrorCode, anaErr.Code)
	require.Equal(t, "rate expired", anaErr.Details)
}
