package fulfillment

import (
	"fmt"
	"math"

	"github.com/vietddude/shipbridge/internal/core/domain"
)

// QuoteRanker orders quotes like cmp.Compare: negative when a ranks before b.
type QuoteRanker func(a, b domain.Quote) int

// CheapestFirst ranks by total price, then fewest delivery days (unknown last).
func CheapestFirst(a, b domain.Quote) int {
	if c := a.TotalPrice.Cmp(b.TotalPrice); c != 0 {
		return c
	}
	return daysKey(a) - daysKey(b)
}

// FastestFirst ranks by delivery days (unknown last), then total price.
func FastestFirst(a, b domain.Quote) int {
	if d := daysKey(a) - daysKey(b); d != 0 {
		return d
	}
	return a.TotalPrice.Cmp(b.TotalPrice)
}

// RankerByName resolves a configured ranking strategy: "cheapest" or "fastest".
func RankerByName(name string) (QuoteRanker, error) {
	switch name {
	case "", "cheapest":
		return CheapestFirst, nil
	case "fastest":
		return FastestFirst, nil
	default:
		return nil, fmt.Errorf("unknown quote ranking %q", name)
	}
}

func daysKey(q domain.Quote) int {
	if q.DeliveryDays <= 0 {
		return math.MaxInt32
	}
	return q.DeliveryDays
}

// SelectQuote returns a copy of the best quote under rank. Earlier quotes win
// ties. Returns nil for an empty list.
func SelectQuote(quotes []domain.Quote, rank QuoteRanker) *domain.Quote {
	if len(quotes) == 0 {
		return nil
	}
	if rank == nil {
		rank = CheapestFirst
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if rank(q, best) < 0 {
			best = q
		}
	}
	return &best
}
