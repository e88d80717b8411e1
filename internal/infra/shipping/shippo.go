package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

// IShippoClient 結帳級報價與購買運送標籤
type IShippoClient interface {
	CreateShipment(ctx context.Context, from, to Address, parcel Parcel) ([]model.Rate, error)
	PurchaseLabel(ctx context.Context, rateID string) (*model.Label, error)
}

type ShippoClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	now     func() time.Time
}

func NewShippoClient(token string) *ShippoClient {
	return &ShippoClient{
		Token: token,
		HTTP:  &http.Client{Timeout: constants.CarrierTimeout},
		now:   time.Now,
	}
}

var _ IShippoClient = (*ShippoClient)(nil)

type shippoAddress struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Email   string `json:"email,omitempty"`
}

type shippoParcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

type shippoShipmentReq struct {
	AddressFrom shippoAddress  `json:"address_from"`
	AddressTo   shippoAddress  `json:"address_to"`
	Parcels     []shippoParcel `json:"parcels"`
	Async       bool           `json:"async"`
}

type shippoServiceLevel struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

type shippoRate struct {
	ObjectID      string             `json:"object_id"`
	Provider      string             `json:"provider"`
	ServiceLevel  shippoServiceLevel `json:"servicelevel"`
	Amount        string             `json:"amount"`
	Currency      string             `json:"currency"`
	EstimatedDays int                `json:"estimated_days"`
}

type shippoShipmentResp struct {
	ObjectID string       `json:"object_id"`
	Status   string       `json:"status"`
	Rates    []shippoRate `json:"rates"`
}

type shippoMessage struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type shippoTransactionResp struct {
	ObjectID       string          `json:"object_id"`
	Status         string          `json:"status"`
	TrackingNumber string          `json:"tracking_number"`
	TrackingURL    string          `json:"tracking_url_provider"`
	LabelURL       string          `json:"label_url"`
	Messages       []shippoMessage `json:"messages"`
}

/*
CreateShipment 建立shipment取得各貨運商報價, async=false等完整結果
回傳的rate object_id是短效token, 後續PurchaseLabel要用它購買
金額解析失敗或非正數的報價直接略過
*/
func (c *ShippoClient) CreateShipment(ctx context.Context, from, to Address, parcel Parcel) ([]model.Rate, error) {
	reqBody := shippoShipmentReq{
		AddressFrom: toShippoAddress(from),
		AddressTo:   toShippoAddress(to),
		Parcels: []shippoParcel{{
			Length:       formatCm(parcel.LengthCm),
			Width:        formatCm(parcel.WidthCm),
			Height:       formatCm(parcel.HeightCm),
			DistanceUnit: "cm",
			Weight:       strconv.Itoa(parcel.WeightGrams),
			MassUnit:     "g",
		}},
		Async: false,
	}

	var out shippoShipmentResp
	if err := c.postJSON(ctx, "/shipments", reqBody, &out); err != nil {
		return nil, err
	}

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	rates := make([]model.Rate, 0, len(out.Rates))
	for _, r := range out.Rates {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil || !amount.IsPositive() {
			continue
		}
		rates = append(rates, model.Rate{
			RateID:   r.ObjectID,
			Carrier:  r.Provider,
			Service:  r.ServiceLevel.Name,
			Amount:   amount,
			Currency: strings.ToUpper(r.Currency),
			ETA:      NormalizeETA(r.Provider, r.EstimatedDays, now),
		})
	}
	return rates, nil
}

// PurchaseLabel 用rate id購買標籤, status非SUCCESS視為上游失敗
func (c *ShippoClient) PurchaseLabel(ctx context.Context, rateID string) (*model.Label, error) {
	reqBody := map[string]any{
		"rate":            rateID,
		"label_file_type": "PDF",
		"async":           false,
	}

	var out shippoTransactionResp
	if err := c.postJSON(ctx, "/transactions", reqBody, &out); err != nil {
		return nil, err
	}
	if out.Status != "SUCCESS" {
		texts := make([]string, 0, len(out.Messages))
		for _, m := range out.Messages {
			texts = append(texts, m.Text)
		}
		return nil, &UpstreamError{
			Provider:   "shippo",
			StatusCode: http.StatusBadGateway,
			Payload:    fmt.Sprintf("transaction status %s: %s", out.Status, strings.Join(texts, "; ")),
		}
	}

	return &model.Label{
		TrackingNumber: out.TrackingNumber,
		TrackingURL:    out.TrackingURL,
		LabelURL:       out.LabelURL,
	}, nil
}

func (c *ShippoClient) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	base := c.BaseURL
	if base == "" {
		base = "https://api.goshippo.com"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ShippoToken "+c.Token)

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: constants.CarrierTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &UpstreamError{Provider: "shippo", StatusCode: resp.StatusCode, Payload: string(body)}
	}
	return json.Unmarshal(body, out)
}

func toShippoAddress(a Address) shippoAddress {
	return shippoAddress{
		Name:    a.Name,
		Street1: a.Street,
		City:    a.City,
		Zip:     a.PostalCode,
		Country: strings.ToUpper(a.Country),
		Email:   a.Email,
	}
}

func formatCm(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
