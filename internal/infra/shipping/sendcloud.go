package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

// ISendcloudClient 店面即時報價用, 只查運送方法不買標籤
type ISendcloudClient interface {
	ShippingMethods(ctx context.Context, toCountry, toPostalCode string, weightGrams int) ([]model.Rate, error)
}

type SendcloudClient struct {
	BaseURL   string
	PublicKey string
	SecretKey string
	HTTP      *http.Client
	now       func() time.Time
}

func NewSendcloudClient(publicKey, secretKey string) *SendcloudClient {
	return &SendcloudClient{
		PublicKey: publicKey,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: constants.CarrierTimeout},
		now:       time.Now,
	}
}

var _ ISendcloudClient = (*SendcloudClient)(nil)

type sendcloudCountry struct {
	ISO2  string  `json:"iso_2"`
	Price float64 `json:"price"`
}

type sendcloudMethod struct {
	ID        int                `json:"id"`
	Name      string             `json:"name"`
	Carrier   string             `json:"carrier"`
	MinWeight string             `json:"min_weight"`
	MaxWeight string             `json:"max_weight"`
	Countries []sendcloudCountry `json:"countries"`
}

type sendcloudMethodsResp struct {
	ShippingMethods []sendcloudMethod `json:"shipping_methods"`
}

/*
ShippingMethods 依目的地郵遞區號查可用運送方法並正規化成Rate
sendcloud的重量區間單位是公斤, 價格掛在countries清單上按國別取
不回報運送天數, ETA一律走查表估算
*/
func (c *SendcloudClient) ShippingMethods(ctx context.Context, toCountry, toPostalCode string, weightGrams int) ([]model.Rate, error) {
	base := strings.TrimRight(c.baseURL(), "/")
	q := url.Values{}
	q.Set("to_country", strings.ToUpper(toCountry))
	q.Set("to_postal_code", toPostalCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/shipping_methods?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.PublicKey, c.SecretKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{Provider: "sendcloud", StatusCode: resp.StatusCode, Payload: string(body)}
	}

	var out sendcloudMethodsResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("sendcloud decode shipping methods: %w", err)
	}

	weightKg := float64(weightGrams) / 1000
	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	rates := make([]model.Rate, 0, len(out.ShippingMethods))
	for _, m := range out.ShippingMethods {
		if !weightInRange(weightKg, m.MinWeight, m.MaxWeight) {
			continue
		}
		price, ok := priceForCountry(m.Countries, toCountry)
		if !ok || price <= 0 {
			continue
		}
		rates = append(rates, model.Rate{
			RateID:   "sendcloud:" + strconv.Itoa(m.ID),
			Carrier:  m.Carrier,
			Service:  m.Name,
			Amount:   decimal.NewFromFloat(price).Round(2),
			Currency: "EUR",
			ETA:      NormalizeETA(m.Carrier, 0, now),
		})
	}
	return rates, nil
}

// 重量區間解析失敗時視為無限制, 寧可多給選項也不要漏報
func weightInRange(weightKg float64, minStr, maxStr string) bool {
	if min, err := strconv.ParseFloat(minStr, 64); err == nil && weightKg < min {
		return false
	}
	if max, err := strconv.ParseFloat(maxStr, 64); err == nil && max > 0 && weightKg > max {
		return false
	}
	return true
}

func priceForCountry(countries []sendcloudCountry, iso2 string) (float64, bool) {
	for _, country := range countries {
		if strings.EqualFold(country.ISO2, iso2) {
			return country.Price, true
		}
	}
	return 0, false
}

func (c *SendcloudClient) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://panel.sendcloud.sc/api/v2"
}

func (c *SendcloudClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: constants.CarrierTimeout}
}
