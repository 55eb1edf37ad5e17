package types

import "testing"

func TestFormatMinorUnits(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		1:     "0.01",
		3334:  "33.34",
		10000: "100.00",
		-250:  "-2.50",
	}
	for in, want := range cases {
		if got := FormatMinorUnits(in); got != want {
			t.Fatalf("FormatMinorUnits(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestParseMajorUnits(t *testing.T) {
	if got, ok := ParseMajorUnits("12.34"); !ok || got != 1234 {
		t.Fatalf("expected 1234, got %d %v", got, ok)
	}
	if got, ok := ParseMajorUnits("5"); !ok || got != 500 {
		t.Fatalf("expected 500, got %d %v", got, ok)
	}
	if _, ok := ParseMajorUnits("0.001"); ok {
		t.Fatal("sub-minor precision must be rejected")
	}
	if _, ok := ParseMajorUnits("abc"); ok {
		t.Fatal("garbage must be rejected")
	}
}
