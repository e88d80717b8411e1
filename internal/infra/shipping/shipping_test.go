package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestNormalizeETACarrierReported(t *testing.T) {
	eta := NormalizeETA("dhl", 3, testNow)
	require.Equal(t, model.ETASourceCarrier, eta.Source)
	require.Equal(t, 3, eta.MinDays)
	require.Equal(t, 3, eta.MaxDays)
	require.Equal(t, testNow.AddDate(0, 0, 3), eta.Earliest)
	require.Equal(t, eta.Earliest, eta.Latest)
}

func TestNormalizeETAFallbackTable(t *testing.T) {
	cases := []struct {
		carrier string
		minDays int
		maxDays int
	}{
		{"DPD Germany", 1, 2},
		{"dhl_express", 1, 2},
		{"Deutsche Post", 1, 2},
		{"Hermes", 2, 4},
		{"gls", 1, 3},
		{"unknown_carrier", 2, 4},
	}
	for _, c := range cases {
		eta := NormalizeETA(c.carrier, 0, testNow)
		require.Equal(t, model.ETASourceEstimated, eta.Source, c.carrier)
		require.Equal(t, c.minDays, eta.MinDays, c.carrier)
		require.Equal(t, c.maxDays, eta.MaxDays, c.carrier)
		require.Equal(t, testNow.AddDate(0, 0, c.minDays), eta.Earliest, c.carrier)
		require.Equal(t, testNow.AddDate(0, 0, c.maxDays), eta.Latest, c.carrier)
	}
}

func TestSendcloudShippingMethods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "pub", user)
		require.Equal(t, "sec", pass)
		require.Equal(t, "DE", r.URL.Query().Get("to_country"))
		require.Equal(t, "10115", r.URL.Query().Get("to_postal_code"))

		json.NewEncoder(w).Encode(map[string]any{
			"shipping_methods": []map[string]any{
				{
					"id": 8, "name": "DHL Paket", "carrier": "dhl",
					"min_weight": "0.001", "max_weight": "2.000",
					"countries": []map[string]any{{"iso_2": "DE", "price": 4.99}},
				},
				{
					// 重量區間不含1.2kg, 要被過濾
					"id": 9, "name": "Letter", "carrier": "deutsche_post",
					"min_weight": "0.001", "max_weight": "0.050",
					"countries": []map[string]any{{"iso_2": "DE", "price": 1.10}},
				},
				{
					// 目的國沒有報價, 要被過濾
					"id": 10, "name": "DPD Classic", "carrier": "dpd",
					"min_weight": "0.001", "max_weight": "5.000",
					"countries": []map[string]any{{"iso_2": "NL", "price": 5.50}},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewSendcloudClient("pub", "sec")
	client.BaseURL = srv.URL
	client.now = func() time.Time { return testNow }

	rates, err := client.ShippingMethods(context.Background(), "de", "10115", 1200)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, "sendcloud:8", rates[0].RateID)
	require.Equal(t, "dhl", rates[0].Carrier)
	require.Equal(t, "DHL Paket", rates[0].Service)
	require.Equal(t, "4.99", rates[0].Amount.StringFixed(2))
	require.Equal(t, "EUR", rates[0].Currency)
	require.Equal(t, model.ETASourceEstimated, rates[0].ETA.Source)
}

func TestSendcloudRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"too many requests"}`))
	}))
	defer srv.Close()

	client := NewSendcloudClient("pub", "sec")
	client.BaseURL = srv.URL

	_, err := client.ShippingMethods(context.Background(), "DE", "10115", 500)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.True(t, ue.IsRateLimited())
	require.Equal(t, "sendcloud", ue.Provider)
	require.Contains(t, ue.Payload, "too many requests")
}

func TestShippoCreateShipmentNormalizesRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipments", r.URL.Path)
		require.Equal(t, "ShippoToken tok", r.Header.Get("Authorization"))

		var req shippoShipmentReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Async)
		require.Equal(t, "DE", req.AddressTo.Country)
		require.Equal(t, "g", req.Parcels[0].MassUnit)
		require.Equal(t, "1160", req.Parcels[0].Weight)

		json.NewEncoder(w).Encode(map[string]any{
			"object_id": "shp_1",
			"status":    "SUCCESS",
			"rates": []map[string]any{
				{
					"object_id": "rate_a", "provider": "DHL",
					"servicelevel": map[string]any{"name": "Paket", "token": "dhl_paket"},
					"amount":       "5.49", "currency": "eur", "estimated_days": 2,
				},
				{
					"object_id": "rate_b", "provider": "Hermes",
					"servicelevel": map[string]any{"name": "Standard", "token": "hermes_std"},
					"amount":       "4.10", "currency": "EUR",
				},
				{
					// 金額非正數要被略過
					"object_id": "rate_c", "provider": "GLS",
					"servicelevel": map[string]any{"name": "Business", "token": "gls_biz"},
					"amount":       "0.00", "currency": "EUR",
				},
			},
		})
	}))
	defer srv.Close()

	client := NewShippoClient("tok")
	client.BaseURL = srv.URL
	client.now = func() time.Time { return testNow }

	rates, err := client.CreateShipment(context.Background(),
		Address{Name: "Shop", Street: "Lagerweg 1", City: "Berlin", PostalCode: "10115", Country: "de"},
		Address{Name: "Kunde", Street: "Hauptstr. 5", City: "Hamburg", PostalCode: "20095", Country: "de"},
		Parcel{LengthCm: 26, WidthCm: 18, HeightCm: 8, WeightGrams: 1160},
	)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	require.Equal(t, "rate_a", rates[0].RateID)
	require.Equal(t, "DHL", rates[0].Carrier)
	require.Equal(t, "EUR", rates[0].Currency)
	require.Equal(t, model.ETASourceCarrier, rates[0].ETA.Source)
	require.Equal(t, 2, rates[0].ETA.MinDays)

	// 沒有estimated_days的報價落回查表
	require.Equal(t, model.ETASourceEstimated, rates[1].ETA.Source)
	require.Equal(t, 2, rates[1].ETA.MinDays)
	require.Equal(t, 4, rates[1].ETA.MaxDays)
}

func TestShippoPurchaseLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "rate_a", req["rate"])
		require.Equal(t, "PDF", req["label_file_type"])

		json.NewEncoder(w).Encode(map[string]any{
			"object_id":             "txn_1",
			"status":                "SUCCESS",
			"tracking_number":       "00340434161094000001",
			"tracking_url_provider": "https://tracking.example/00340434161094000001",
			"label_url":             "https://labels.example/txn_1.pdf",
		})
	}))
	defer srv.Close()

	client := NewShippoClient("tok")
	client.BaseURL = srv.URL

	label, err := client.PurchaseLabel(context.Background(), "rate_a")
	require.NoError(t, err)
	require.Equal(t, "00340434161094000001", label.TrackingNumber)
	require.Equal(t, "https://labels.example/txn_1.pdf", label.LabelURL)
}

func TestShippoPurchaseLabelFailedTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"object_id": "txn_2",
			"status":    "ERROR",
			"messages":  []map[string]any{{"source": "shippo", "text": "rate expired"}},
		})
	}))
	defer srv.Close()

	client := NewShippoClient("tok")
	client.BaseURL = srv.URL

	_, err := client.PurchaseLabel(context.Background(), "rate_old")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Contains(t, ue.Payload, "rate expired")
}

func TestShippoServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := NewShippoClient("tok")
	client.BaseURL = srv.URL

	_, err := client.CreateShipment(context.Background(), Address{}, Address{}, Parcel{})
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	require.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	require.False(t, ue.IsRateLimited())
}
