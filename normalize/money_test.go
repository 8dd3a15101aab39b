package normalize

import "testing"

func TestMoney(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"7k", 7000},
		{"7.5k", 7500},
		{"10 k", 10000},
		{"2 lakh", 200000},
		{"2lac", 200000},
		{"1.5 lakh", 150000},
		{"1.2cr", 12000000},
		{"12000", 12000},
		{"12,000", 12000},
		{"", 0},
		{"negotiable", 0},
		{"₹8000", 0},
	}

	for _, tt := range tests {
		got := Money(tt.raw)
		if got != tt.want {
			t.Errorf("Money(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestMoneyKDoesNotMatchInsideLakh(t *testing.T) {
	if got := Money("3 lakh"); got != 300000 {
		t.Errorf("Money(\"3 lakh\") = %d; want 300000", got)
	}
}
