package numparse

import (
	"reflect"
	"testing"
)

func TestCount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		st   Status
	}{
		{"12,345", 12345, OK},
		{" 987 ", 987, OK},
		{"1, 234", 1234, OK},
		{"n/a", 0, Blank},
		{"", 0, Blank},
		{"—", 0, Blank},
		{"45%", 0, Invalid},
		{"abc", 0, Invalid},
	}
	for _, c := range cases {
		got, st := Count(c.in)
		if got != c.want || st != c.st {
			t.Fatalf("Count(%q) = %d,%v; want %d,%v", c.in, got, st, c.want, c.st)
		}
	}
}

func TestMoney(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		st   Status
	}{
		{"$65,146", 65146, OK},
		{"$ 1,280.50", 1281, OK},
		{"18000", 18000, OK},
		{"N/A", 0, Blank},
	}
	for _, c := range cases {
		got, st := Money(c.in)
		if got != c.want || st != c.st {
			t.Fatalf("Money(%q) = %d,%v; want %d,%v", c.in, got, st, c.want, c.st)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		st   Status
	}{
		{"5.2%", 0.052, OK},
		{"52", 0.52, OK},
		{"0.43", 0.43, OK},
		{"1", 0.01, OK},
		{"0", 0, OK},
		{"1.0", 1, OK},
		{"100%", 1, OK},
		{"n/a", 0, Blank},
		{"x%", 0, Invalid},
	}
	for _, c := range cases {
		got, st := Percent(c.in)
		if got != c.want || st != c.st {
			t.Fatalf("Percent(%q) = %v,%v; want %v,%v", c.in, got, st, c.want, c.st)
		}
	}
}

func TestTokens_SkipsItemCodes(t *testing.T) {
	got := Tokens("C1 Total first-time, first-year men who applied 25,417 $1,200 5.2%")
	want := []string{"25,417", "$1,200", "5.2%"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens = %v; want %v", got, want)
	}
}
