package fulfillment

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
)

func quote(id, price string, days int) domain.Quote {
	return domain.Quote{ID: id, Carrier: "UPS", TotalPrice: decimal.RequireFromString(price), DeliveryDays: days}
}

func TestSelectQuote(t *testing.T) {
	tests := []struct {
		name   string
		quotes []domain.Quote
		rank   QuoteRanker
		want   string
	}{
		{"empty", nil, CheapestFirst, ""},
		{"cheapest", []domain.Quote{quote("a", "18.75", 2), quote("b", "7.45", 3)}, CheapestFirst, "b"},
		{"price tie fewer days", []domain.Quote{quote("a", "5", 4), quote("b", "5", 2)}, CheapestFirst, "b"},
		{"price tie unknown days last", []domain.Quote{quote("a", "5", 0), quote("b", "5", 6)}, CheapestFirst, "b"},
		{"full tie keeps first", []domain.Quote{quote("a", "5", 2), quote("b", "5", 2)}, CheapestFirst, "a"},
		{"fastest", []domain.Quote{quote("a", "5", 4), quote("b", "9", 1), quote("c", "1", 0)}, FastestFirst, "b"},
		{"nil ranker", []domain.Quote{quote("a", "9", 1), quote("b", "3", 5)}, nil, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectQuote(tt.quotes, tt.rank)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Fatalf("got %+v, want %s", got, tt.want)
			}
		})
	}
}

func TestRankerByName(t *testing.T) {
	quotes := []domain.Quote{quote("slow", "3", 5), quote("fast", "8", 1)}
	for name, want := range map[string]string{"": "slow", "cheapest": "slow", "fastest": "fast"} {
		rank, err := RankerByName(name)
		if err != nil {
			t.Fatalf("RankerByName(%q) failed: %v", name, err)
		}
		if got := SelectQuote(quotes, rank); got.ID != want {
			t.Errorf("RankerByName(%q) selected %s, want %s", name, got.ID, want)
		}
	}
	if _, err := RankerByName("random"); err == nil {
		t.Error("expected error for unknown ranking")
	}
}

func TestSelectQuote_ReturnsCopy(t *testing.T) {
	quotes := []domain.Quote{quote("a", "5", 2)}
	got := SelectQuote(quotes, CheapestFirst)
	got.ID = "changed"
	if quotes[0].ID != "a" {
		t.Error("selected quote aliases the input")
	}
}

func TestPlaceholderTrackingNumber(t *testing.T) {
	a, b := PlaceholderTrackingNumber(), PlaceholderTrackingNumber()
	if len(a) != 15 || a[:3] != "SB-" || a == b {
		t.Errorf("tracking numbers %q %q", a, b)
	}
}
