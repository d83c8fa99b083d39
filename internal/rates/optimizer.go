package rates

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
)

// Recommendations are the three headline picks over a filtered rate set.
// A nil pick means no rate satisfied the preferences.
type Recommendations struct {
	Fastest   *domain.Rate `json:"fastest"`
	Cheapest  *domain.Rate `json:"cheapest"`
	BestValue *domain.Rate `json:"best_value"`
}

// RankedRate is a rate with its savings against the retail price.
type RankedRate struct {
	domain.Rate
	Savings decimal.Decimal `json:"savings"`
}

// CarrierSummary aggregates the filtered rates of one carrier.
type CarrierSummary struct {
	Carrier string `json:"carrier"`
	Count   int    `json:"count"`
	// AverageCost is rounded to cents.
	AverageCost decimal.Decimal `json:"average_cost"`
	// AverageDeliveryDays covers only rates with a published estimate; 0 when none do.
	AverageDeliveryDays float64         `json:"average_delivery_days"`
	TotalSavings        decimal.Decimal `json:"total_savings"`
}

// Dedup keeps the first occurrence of each rate ID.
func Dedup(in []domain.Rate) []domain.Rate {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Rate, 0, len(in))
	for _, r := range in {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Constrain applies the carrier/service constraint carried by the request.
func Constrain(in []domain.Rate, req domain.ShipmentRequest) []domain.Rate {
	if req.Carrier == "" && req.Service == "" {
		return in
	}
	out := make([]domain.Rate, 0, len(in))
	for _, r := range in {
		if req.Carrier != "" && !strings.EqualFold(r.Carrier, req.Carrier) {
			continue
		}
		if req.Service != "" && !strings.EqualFold(r.Service, req.Service) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Filter applies max cost, then max delivery days, then the carrier allow-list.
// Rates without a delivery estimate never satisfy a max-days preference.
func Filter(in []domain.Rate, prefs *domain.Preferences) []domain.Rate {
	if prefs == nil {
		return in
	}

	out := in
	if prefs.MaxCost != nil {
		out = keep(out, func(r domain.Rate) bool {
			return r.Amount.LessThanOrEqual(*prefs.MaxCost)
		})
	}
	if prefs.MaxDeliveryDays != nil {
		maxDays := *prefs.MaxDeliveryDays
		out = keep(out, func(r domain.Rate) bool {
			return r.HasDeliveryDays() && r.DeliveryDays <= maxDays
		})
	}
	if len(prefs.Carriers) > 0 {
		allowed := make(map[string]struct{}, len(prefs.Carriers))
		for _, c := range prefs.Carriers {
			allowed[strings.ToLower(c)] = struct{}{}
		}
		out = keep(out, func(r domain.Rate) bool {
			_, ok := allowed[strings.ToLower(r.Carrier)]
			return ok
		})
	}
	return out
}

func keep(in []domain.Rate, pred func(domain.Rate) bool) []domain.Rate {
	out := make([]domain.Rate, 0, len(in))
	for _, r := range in {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Recommend picks fastest (ties by cost), cheapest and best value (cost per day).
// The first rate wins any remaining tie.
func Recommend(in []domain.Rate) Recommendations {
	var rec Recommendations
	for i := range in {
		r := &in[i]
		if rec.Cheapest == nil || r.Amount.LessThan(rec.Cheapest.Amount) {
			rec.Cheapest = r
		}
		if rec.Fastest == nil || fasterThan(*r, *rec.Fastest) {
			rec.Fastest = r
		}
		if rec.BestValue == nil || r.CostPerDay().LessThan(rec.BestValue.CostPerDay()) {
			rec.BestValue = r
		}
	}
	return rec.detach()
}

// detach copies the picks from the caller's slice.
func (rec Recommendations) detach() Recommendations {
	clone := func(r *domain.Rate) *domain.Rate {
		if r == nil {
			return nil
		}
		c := *r
		return &c
	}
	return Recommendations{
		Fastest:   clone(rec.Fastest),
		Cheapest:  clone(rec.Cheapest),
		BestValue: clone(rec.BestValue),
	}
}

func fasterThan(a, b domain.Rate) bool {
	if a.SpeedKey() != b.SpeedKey() {
		return a.SpeedKey() < b.SpeedKey()
	}
	return a.Amount.LessThan(b.Amount)
}

func cheaperThan(a, b domain.Rate) bool {
	if !a.Amount.Equal(b.Amount) {
		return a.Amount.LessThan(b.Amount)
	}
	return a.SpeedKey() < b.SpeedKey()
}

// Rank returns a sorted copy: by delivery days when prefs prioritize speed,
// otherwise by cost. Ties fall to the other key, then to input order.
func Rank(in []domain.Rate, prefs *domain.Preferences) []domain.Rate {
	out := make([]domain.Rate, len(in))
	copy(out, in)

	less := cheaperThan
	if prefs.BySpeed() {
		less = fasterThan
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// TopRates ranks in and returns at most n entries with savings attached.
func TopRates(in []domain.Rate, prefs *domain.Preferences, n int) []RankedRate {
	ranked := Rank(in, prefs)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]RankedRate, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RankedRate{Rate: r, Savings: r.Savings()})
	}
	return out
}

// SummarizeCarriers groups rates by carrier name, sorted by name.
func SummarizeCarriers(in []domain.Rate) []CarrierSummary {
	type acc struct {
		count   int
		total   decimal.Decimal
		days    int
		dated   int
		savings decimal.Decimal
	}
	groups := make(map[string]*acc)
	for _, r := range in {
		a, ok := groups[r.Carrier]
		if !ok {
			a = &acc{}
			groups[r.Carrier] = a
		}
		a.count++
		a.total = a.total.Add(r.Amount)
		a.savings = a.savings.Add(r.Savings())
		if r.HasDeliveryDays() {
			a.days += r.DeliveryDays
			a.dated++
		}
	}

	out := make([]CarrierSummary, 0, len(groups))
	for carrier, a := range groups {
		s := CarrierSummary{
			Carrier:      carrier,
			Count:        a.count,
			AverageCost:  a.total.Div(decimal.NewFromInt(int64(a.count))).Round(2),
			TotalSavings: a.savings,
		}
		if a.dated > 0 {
			s.AverageDeliveryDays = float64(a.days) / float64(a.dated)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Carrier < out[j].Carrier })
	return out
}
