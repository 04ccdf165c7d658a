package domain

import (
	"math/big"
	"testing"
)

func TestDecimalPercentToPercent(t *testing.T) {
	tests := []struct {
		value   string
		want    *big.Rat
		wantErr bool
	}{
		{value: "0.5", want: big.NewRat(1, 200)},
		{value: "0", want: new(big.Rat)},
		{value: "99.9", want: big.NewRat(999, 1000)},
		{value: "100", wantErr: true},
		{value: "-0.1", wantErr: true},
		{value: "half", wantErr: true},
		{value: "5e1", want: big.NewRat(1, 2)},
		{value: "1e20000000", wantErr: true},
		{value: "1e-20000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			p, err := DecimalPercentToPercent(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Rat().Cmp(tt.want) != 0 {
				t.Errorf("got %s, want %s", p.Rat(), tt.want)
			}
		})
	}
}

func TestPercentBpsAndFormat(t *testing.T) {
	p := NewPercent(123, 10000)
	if got := p.Bps(); got != 123 {
		t.Errorf("Bps() = %d, want 123", got)
	}
	if got := p.ToSignificant(4); got != "1.23" {
		t.Errorf("ToSignificant(4) = %s, want 1.23", got)
	}
	if got := ZeroPercent().String(); got != "0%" {
		t.Errorf("zero String() = %s", got)
	}
}

func TestPercentArithmetic(t *testing.T) {
	a := NewPercent(1, 100)
	b := NewPercent(3, 1000)

	if got := a.Sub(b).Rat(); got.Cmp(big.NewRat(7, 1000)) != 0 {
		t.Errorf("Sub = %s", got)
	}
	if got := a.Add(b).Rat(); got.Cmp(big.NewRat(13, 1000)) != 0 {
		t.Errorf("Add = %s", got)
	}
	if b.Sub(a).Sign() >= 0 {
		t.Error("expected negative difference")
	}
	if a.Cmp(b) <= 0 {
		t.Error("expected 1% > 0.3%")
	}
}
