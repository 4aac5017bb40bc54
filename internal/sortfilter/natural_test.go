package sortfilter

import "testing"

func TestCompareNatural(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected int
	}{
		{"file2", "file10", -1},
		{"file10", "file2", 1},
		{"file1", "file2", -1},
		{"A", "a", 0},
		{"File10", "file10", 0},
		{"abc", "abcd", -1},
		{"", "", 0},
		{"", "a", -1},
		{"img007", "img7", 0},
		{"v1.10", "v1.9", 1},
		{"a99999999999999999999999b", "a1b", -1},
		{"x", "10", 1},
	}
	for _, tc := range testCases {
		if got := CompareNatural(tc.a, tc.b); got != tc.expected {
			t.Errorf("CompareNatural(%q, %q): expected %d, got %d", tc.a, tc.b, tc.expected, got)
		}
	}
}

func TestDigitRunOverflowIsZero(t *testing.T) {
	n, next := digitRun([]rune("18446744073709551616x"), 0)
	if n != 0 {
		t.Errorf("Expected overflowing run to parse as 0, got %d", n)
	}
	if next != 20 {
		t.Errorf("Expected run to end at 20, got %d", next)
	}

	n, _ = digitRun([]rune("18446744073709551615"), 0)
	if n != 18446744073709551615 {
		t.Errorf("Expected max uint64, got %d", n)
	}
}
