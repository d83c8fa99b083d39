package shipping

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// Wire shapes of the shipping platform. Amounts arrive as decimal strings.

type addressDTO struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type parcelDTO struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

type customsItemDTO struct {
	Description    string  `json:"description"`
	Quantity       int     `json:"quantity"`
	Value          string  `json:"value"`
	Weight         float64 `json:"weight"`
	HSTariffNumber string  `json:"hs_tariff_number,omitempty"`
	OriginCountry  string  `json:"origin_country"`
}

type customsInfoDTO struct {
	ContentsType  string           `json:"contents_type"`
	CustomsSigner string           `json:"customs_signer"`
	CustomsItems  []customsItemDTO `json:"customs_items"`
}

type shipmentBody struct {
	FromAddress     addressDTO      `json:"from_address"`
	ToAddress       addressDTO      `json:"to_address"`
	Parcel          parcelDTO       `json:"parcel"`
	CustomsInfo     *customsInfoDTO `json:"customs_info,omitempty"`
	CarrierAccounts []string        `json:"carrier_accounts,omitempty"`
}

type createShipmentRequest struct {
	Shipment shipmentBody `json:"shipment"`
}

type rateDTO struct {
	ID                     string  `json:"id"`
	Carrier                string  `json:"carrier"`
	Service                string  `json:"service"`
	Rate                   string  `json:"rate"`
	Currency               string  `json:"currency"`
	RetailRate             *string `json:"retail_rate"`
	DeliveryDays           *int    `json:"delivery_days"`
	DeliveryDateGuaranteed bool    `json:"delivery_date_guaranteed"`
	ShipmentID             string  `json:"shipment_id"`
}

type messageDTO struct {
	Carrier string `json:"carrier"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type postageLabelDTO struct {
	LabelURL string `json:"label_url"`
}

type shipmentDTO struct {
	ID           string           `json:"id"`
	Rates        []rateDTO        `json:"rates"`
	Messages     []messageDTO     `json:"messages"`
	SelectedRate *rateDTO         `json:"selected_rate"`
	TrackingCode string           `json:"tracking_code"`
	PostageLabel *postageLabelDTO `json:"postage_label"`
}

type buyRequest struct {
	Rate struct {
		ID string `json:"id"`
	} `json:"rate"`
}

type trackerBody struct {
	TrackingCode string `json:"tracking_code"`
	Carrier      string `json:"carrier,omitempty"`
}

type createTrackerRequest struct {
	Tracker trackerBody `json:"tracker"`
}

type trackingLocationDTO struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type trackingDetailDTO struct {
	Status           string              `json:"status"`
	Message          string              `json:"message"`
	Datetime         time.Time           `json:"datetime"`
	TrackingLocation trackingLocationDTO `json:"tracking_location"`
}

type trackerDTO struct {
	ID              string              `json:"id"`
	TrackingCode    string              `json:"tracking_code"`
	Carrier         string              `json:"carrier"`
	Status          string              `json:"status"`
	EstDeliveryDate *time.Time          `json:"est_delivery_date"`
	PublicURL       string              `json:"public_url"`
	TrackingDetails []trackingDetailDTO `json:"tracking_details"`
}

func toAddressDTO(a domain.Address) addressDTO {
	return addressDTO(a)
}

func toShipmentBody(req domain.ShipmentRequest, carrierAccounts []string) shipmentBody {
	body := shipmentBody{
		FromAddress:     toAddressDTO(req.From),
		ToAddress:       toAddressDTO(req.To),
		Parcel:          parcelDTO(req.Parcel),
		CarrierAccounts: carrierAccounts,
	}
	if req.Customs != nil {
		info := &customsInfoDTO{
			ContentsType:  req.Customs.ContentsType,
			CustomsSigner: req.Customs.Signer,
		}
		for _, it := range req.Customs.Items {
			info.CustomsItems = append(info.CustomsItems, customsItemDTO{
				Description:    it.Description,
				Quantity:       it.Quantity,
				Value:          it.Value.StringFixed(2),
				Weight:         it.Weight,
				HSTariffNumber: it.HSTariffNumber,
				OriginCountry:  it.OriginCountry,
			})
		}
		body.CustomsInfo = info
	}
	return body
}

func (r rateDTO) toDomain() (domain.Rate, *fault.Error) {
	amount, err := decimal.NewFromString(r.Rate)
	if err != nil {
		return domain.Rate{}, fault.Wrap(fault.KindValidation, "rate "+r.ID+": invalid amount "+r.Rate, err)
	}

	rate := domain.Rate{
		ID:         r.ID,
		Carrier:    r.Carrier,
		Service:    r.Service,
		Amount:     amount,
		Currency:   r.Currency,
		Guaranteed: r.DeliveryDateGuaranteed,
		ShipmentID: r.ShipmentID,
	}
	if r.RetailRate != nil && *r.RetailRate != "" {
		retail, err := decimal.NewFromString(*r.RetailRate)
		if err != nil {
			return domain.Rate{}, fault.Wrap(fault.KindValidation, "rate "+r.ID+": invalid retail amount", err)
		}
		rate.RetailAmount = &retail
	}
	if r.DeliveryDays != nil && *r.DeliveryDays > 0 {
		rate.DeliveryDays = *r.DeliveryDays
	}
	return rate, nil
}

func (t trackerDTO) toDomain() *domain.Tracker {
	tr := &domain.Tracker{
		ID:              t.ID,
		TrackingCode:    t.TrackingCode,
		Carrier:         t.Carrier,
		Status:          t.Status,
		EstDeliveryDate: t.EstDeliveryDate,
		PublicURL:       t.PublicURL,
		Events:          make([]domain.TrackingEvent, 0, len(t.TrackingDetails)),
	}
	for _, d := range t.TrackingDetails {
		loc := d.TrackingLocation
		where := loc.City
		if loc.State != "" {
			where += ", " + loc.State
		}
		if where == "" {
			where = loc.Country
		}
		tr.Events = append(tr.Events, domain.TrackingEvent{
			Status:   d.Status,
			Message:  d.Message,
			Location: where,
			At:       d.Datetime,
		})
	}
	return tr
}
