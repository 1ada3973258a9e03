package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"012024", true},
		{"122024", true},
		{"132024", false},
		{"002024", false},
		{"1/2024", false},
		{"12024", false},
		{"abcdef", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseRef(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestRefArithmetic(t *testing.T) {
	r := NewRef(12, 2024)
	if string(r) != "122024" {
		t.Fatalf("expected 122024, got %s", r)
	}
	if r.Display() != "12/2024" {
		t.Fatalf("expected 12/2024, got %s", r.Display())
	}
	if n := r.Next(); string(n) != "012025" {
		t.Fatalf("next of december should wrap the year, got %s", n)
	}
	if got := RefOf(date(2024, time.March, 15)); string(got) != "032024" {
		t.Fatalf("expected 032024, got %s", got)
	}
}

func TestDateClamped(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		day   int
		want  time.Time
	}{
		{2024, time.February, 31, date(2024, time.February, 29)}, // leap year
		{2023, time.February, 31, date(2023, time.February, 28)},
		{2024, time.April, 31, date(2024, time.April, 30)},
		{2024, time.January, 15, date(2024, time.January, 15)},
		{2024, time.March, 0, date(2024, time.March, 1)},
		{2024, 13, 10, date(2025, time.January, 10)}, // month overflow normalizes
	}
	for _, tc := range cases {
		if got := DateClamped(tc.year, tc.month, tc.day); !got.Equal(tc.want) {
			t.Fatalf("DateClamped(%d, %d, %d) = %v, want %v", tc.year, tc.month, tc.day, got, tc.want)
		}
	}
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{date(2024, time.January, 31), 3, date(2024, time.April, 30)},
		{date(2024, time.November, 15), 2, date(2025, time.January, 15)},
		{date(2024, time.March, 31), -1, date(2024, time.February, 29)},
	}
	for _, tc := range cases {
		if got := AddMonths(tc.in, tc.n); !got.Equal(tc.want) {
			t.Fatalf("AddMonths(%v, %d) = %v, want %v", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestInvoicePeriod(t *testing.T) {
	cases := []struct {
		ref      Ref
		closeDay int
		from, to time.Time
	}{
		{"032024", 10, date(2024, time.February, 11), date(2024, time.March, 11)},
		{"012024", 10, date(2023, time.December, 11), date(2024, time.January, 11)},
		// closeDay+1 past the end of the month clamps each boundary within
		// its own month, so the start does not drift with the end
		{"022024", 30, date(2024, time.January, 31), date(2024, time.February, 29)},
		{"022023", 31, date(2023, time.January, 31), date(2023, time.February, 28)},
		{"042024", 31, date(2024, time.March, 31), date(2024, time.April, 30)},
	}
	for _, tc := range cases {
		from, to := InvoicePeriod(tc.ref, tc.closeDay)
		if !from.Equal(tc.from) || !to.Equal(tc.to) {
			t.Fatalf("InvoicePeriod(%s, %d) = (%v, %v), want (%v, %v)",
				tc.ref, tc.closeDay, from, to, tc.from, tc.to)
		}
	}
}
