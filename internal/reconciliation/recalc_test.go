package reconciliation

import (
	"testing"

	"github.com/Ghiles-CTO/Versotech-sub025/internal/banktxn"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveTransactionStatus(t *testing.T) {
	amount := d("1000.00")
	tests := []struct {
		name    string
		matched string
		want    string
	}{
		{"nothing matched", "0", banktxn.StatusUnmatched},
		{"tolerance residual is unmatched", "0.01", banktxn.StatusUnmatched},
		{"first real match", "0.02", banktxn.StatusPartiallyMatched},
		{"two cents short", "999.98", banktxn.StatusPartiallyMatched},
		{"one cent short settles", "999.99", banktxn.StatusMatched},
		{"exact", "1000.00", banktxn.StatusMatched},
		{"one cent over settles", "1000.01", banktxn.StatusMatched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTransactionStatus(d(tt.matched), amount); got != tt.want {
				t.Errorf("DeriveTransactionStatus(%s, %s) = %s, want %s", tt.matched, amount, got, tt.want)
			}
		})
	}
}

func TestAmountProximity(t *testing.T) {
	if got := amountProximity(d("1000"), d("1000")); got != 1 {
		t.Errorf("equal amounts = %v, want 1", got)
	}
	if got := amountProximity(d("500"), d("1000")); got != 0.5 {
		t.Errorf("half = %v, want 0.5", got)
	}
	if got := amountProximity(d("0"), d("0")); got != 1 {
		t.Errorf("both zero are within tolerance = %v, want 1", got)
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "growth fund iii", "growth fund iii", 1},
		{"disjoint", "acme corp", "growth fund", 0},
		{"empty side", "", "growth fund", 0},
		{"punctuation ignored", "Growth-Fund, III", "growth fund iii", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nameSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("nameSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
