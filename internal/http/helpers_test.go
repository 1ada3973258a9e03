package http

import (
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-03-15")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got, err = parseDate("")
	if err != nil || !got.IsZero() {
		t.Fatalf("empty date should parse to zero, got %v (%v)", got, err)
	}

	if _, err := parseDate("15/03/2024"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestSplitParam(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , ,b ", []string{"a", "b"}},
	}
	for _, tc := range cases {
		got := splitParam(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitParam(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/bills", nil)
	if got := bearerToken(r); got != "" {
		t.Fatalf("missing header should yield empty token, got %q", got)
	}

	r.Header.Set("Authorization", "Bearer abc123")
	if got := bearerToken(r); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}

	r.Header.Set("Authorization", "Basic abc123")
	if got := bearerToken(r); got != "" {
		t.Fatalf("non-bearer scheme should yield empty token, got %q", got)
	}
}
