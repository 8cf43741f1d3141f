package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"tenant@example.com", true},
		{"owner+tag@sub.example.org", true},
		{"not-an-email", false},
		{"", false},
		{"a@b", false},
	}
	for _, tc := range cases {
		if got := IsValidEmail(tc.in); got != tc.valid {
			t.Fatalf("IsValidEmail(%q) expected %v, got %v", tc.in, tc.valid, got)
		}
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 {
		t.Fatalf("expected 3 unique values, got %v", got)
	}
}

func TestMergeIntSlices(t *testing.T) {
	got := MergeIntSlices([]int{1, 2}, []int{2, 3})
	if len(got) != 3 {
		t.Fatalf("expected merged unique slice of 3, got %v", got)
	}
}

func TestSanitizeSegment(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Living Room", "living-room"},
		{"  a/b\\c  ", "a-b-c"},
		{"kitchen", "kitchen"},
	}
	for _, tc := range cases {
		if got := SanitizeSegment(tc.in); got != tc.expected {
			t.Fatalf("SanitizeSegment(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}
