package units

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		value    uint64
		decimals int
		want     string
	}{
		{24981836, SOLDecimals, "0.024981836"},
		{1_000_000_000, SOLDecimals, "1.000000000"},
		{100_000_000, USDCDecimals, "100.000000"},
		{0, USDCDecimals, "0.000000"},
	}
	for _, tc := range cases {
		if got := Format(tc.value, tc.decimals); got != tc.want {
			t.Errorf("Format(%d, %d) = %q, want %q", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		s        string
		decimals int
		want     uint64
	}{
		{"0.024981836", SOLDecimals, 24981836},
		{"100", USDCDecimals, 100_000_000},
		{"60.5", USDCDecimals, 60_500_000},
		{"0.0000001", USDCDecimals, 0}, // below precision, truncated
	}
	for _, tc := range cases {
		got, err := Parse(tc.s, tc.decimals)
		if err != nil {
			t.Errorf("Parse(%q, %d): %v", tc.s, tc.decimals, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q, %d) = %d, want %d", tc.s, tc.decimals, got, tc.want)
		}
	}

	for _, bad := range []string{"", "1.2.3", "abc", "-5"} {
		if _, err := Parse(bad, USDCDecimals); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", bad)
		}
	}
}

// Amounts past uint64 must fail hard, not wrap. At 18 decimals the cutoff
// sits just above 18.4 whole tokens.
func TestParseOverflow(t *testing.T) {
	for _, bad := range []string{"20", "20.0", "18446744073709.551616"} {
		if _, err := Parse(bad, ETHDecimals); err == nil {
			t.Errorf("Parse(%q, 18) succeeded, want overflow error", bad)
		}
	}

	got, err := Parse("18", ETHDecimals)
	if err != nil {
		t.Fatalf("Parse(\"18\", 18): %v", err)
	}
	if want := uint64(18_000_000_000_000_000_000); got != want {
		t.Errorf("Parse(\"18\", 18) = %d, want %d", got, want)
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.5", "1.5", 0},
		{"1.4", "1.5", -1},
		{"2", "1.999999", 1},
	}
	for _, tc := range cases {
		got, err := Compare(tc.a, tc.b, USDCDecimals)
		if err != nil {
			t.Errorf("Compare(%q, %q): %v", tc.a, tc.b, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
