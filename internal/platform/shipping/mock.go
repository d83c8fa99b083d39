package shipping

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
)

// MockShipmentID is the shipment every canned rate belongs to.
const MockShipmentID = "shp_mock_0001"

type cannedRate struct {
	account    string
	carrier    string
	service    string
	rate       string
	retail     string
	days       int
	guaranteed bool
}

// Deterministic catalog. Rate IDs are stable so overlapping queries dedupe.
var cannedRates = []cannedRate{
	{"ca_usps", "USPS", "GroundAdvantage", "5.80", "6.25", 5, false},
	{"ca_usps", "USPS", "Priority", "8.50", "10.20", 2, false},
	{"ca_usps", "USPS", "Express", "29.75", "33.10", 1, true},
	{"ca_ups", "UPS", "Ground", "11.20", "13.00", 4, false},
	{"ca_ups", "UPS", "NextDayAir", "42.10", "48.00", 1, true},
	{"ca_fedex", "FedEx", "FEDEX_2_DAY", "24.40", "27.10", 2, false},
	{"ca_fedex", "FedEx", "FEDEX_GROUND", "10.90", "", 0, false},
	{"ca_dhl_express", "DHLExpress", "ExpressWorldwide", "55.00", "61.00", 3, true},
}

func (c cannedRate) id() string {
	return "rate_" + strings.ToLower(c.carrier) + "_" + strings.ToLower(c.service)
}

func (c cannedRate) dto() rateDTO {
	r := rateDTO{
		ID:                     c.id(),
		Carrier:                c.carrier,
		Service:                c.service,
		Rate:                   c.rate,
		Currency:               "USD",
		DeliveryDateGuaranteed: c.guaranteed,
		ShipmentID:             MockShipmentID,
	}
	if c.retail != "" {
		retail := c.retail
		r.RetailRate = &retail
	}
	if c.days > 0 {
		days := c.days
		r.DeliveryDays = &days
	}
	return r
}

func findCanned(rateID string) (cannedRate, bool) {
	for _, c := range cannedRates {
		if c.id() == rateID {
			return c, true
		}
	}
	return cannedRate{}, false
}

// decodeBody round-trips a mock request body through JSON so handlers see
// exactly what the real API would receive.
func decodeBody(req provider.Request, v any) error {
	data, err := json.Marshal(req.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// NewMock returns an offline shipping platform with a fixed rate catalog.
func NewMock() *provider.MockProvider {
	m := provider.NewMockProvider(ServiceName)

	m.Handle(http.MethodPost, "/shipments", func(req provider.Request) (int, any) {
		if strings.HasSuffix(req.Path, "/buy") {
			return buyMock(req)
		}

		var body createShipmentRequest
		if err := decodeBody(req, &body); err != nil {
			return http.StatusUnprocessableEntity, map[string]string{"error": err.Error()}
		}
		if body.Shipment.ToAddress.Zip == "" || body.Shipment.FromAddress.Zip == "" {
			return http.StatusUnprocessableEntity, map[string]any{
				"error": map[string]string{"message": "to_address and from_address require a zip"},
			}
		}

		wanted := make(map[string]bool, len(body.Shipment.CarrierAccounts))
		for _, a := range body.Shipment.CarrierAccounts {
			wanted[a] = true
		}

		resp := shipmentDTO{ID: MockShipmentID, Rates: []rateDTO{}}
		for _, c := range cannedRates {
			if len(wanted) > 0 && !wanted[c.account] {
				continue
			}
			resp.Rates = append(resp.Rates, c.dto())
		}
		return http.StatusCreated, resp
	})

	m.Handle(http.MethodPost, "/trackers", func(req provider.Request) (int, any) {
		var body createTrackerRequest
		if err := decodeBody(req, &body); err != nil || body.Tracker.TrackingCode == "" {
			return http.StatusUnprocessableEntity, map[string]string{"error": "tracking_code is required"}
		}
		return http.StatusCreated, mockTracker(body.Tracker)
	})

	return m
}

func buyMock(req provider.Request) (int, any) {
	var body buyRequest
	if err := decodeBody(req, &body); err != nil {
		return http.StatusUnprocessableEntity, map[string]string{"error": err.Error()}
	}
	c, ok := findCanned(body.Rate.ID)
	if !ok {
		return http.StatusNotFound, map[string]string{"error": "rate not found: " + body.Rate.ID}
	}

	selected := c.dto()
	return http.StatusOK, shipmentDTO{
		ID:           MockShipmentID,
		SelectedRate: &selected,
		TrackingCode: "9400" + strings.ToUpper(strings.TrimPrefix(c.id(), "rate_")),
		PostageLabel: &postageLabelDTO{LabelURL: "https://labels.mock.shipbridge.local/" + c.id() + ".pdf"},
	}
}

func mockTracker(t trackerBody) trackerDTO {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	eta := base.Add(72 * time.Hour)
	carrier := t.Carrier
	if carrier == "" {
		carrier = "USPS"
	}
	return trackerDTO{
		ID:              "trk_" + strings.ToLower(t.TrackingCode),
		TrackingCode:    t.TrackingCode,
		Carrier:         carrier,
		Status:          "in_transit",
		EstDeliveryDate: &eta,
		PublicURL:       "https://track.mock.shipbridge.local/" + t.TrackingCode,
		TrackingDetails: []trackingDetailDTO{
			{
				Status:           "pre_transit",
				Message:          "Shipping label created",
				Datetime:         base,
				TrackingLocation: trackingLocationDTO{City: "Seattle", State: "WA", Country: "US"},
			},
			{
				Status:           "in_transit",
				Message:          "Arrived at regional facility",
				Datetime:         base.Add(20 * time.Hour),
				TrackingLocation: trackingLocationDTO{City: "Portland", State: "OR", Country: "US"},
			},
		},
	}
}
