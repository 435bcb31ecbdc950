// internal/core/validation_test.go
package core

import (
	"testing"
)

func TestIsValidPincode(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid metro", "110001", true},
		{"valid", "560034", true},
		{"invalid leading zero", "012345", false},
		{"invalid too short", "11000", false},
		{"invalid too long", "1100011", false},
		{"invalid letters", "11000a", false},
		{"invalid empty", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidPincode(tc.input); got != tc.want {
				t.Errorf("IsValidPincode(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeAddressType(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantType string
		wantOk   bool
	}{
		{"valid home lower", "home", "home", true},
		{"valid home upper", "HOME", "home", true},
		{"valid work mixed", "Work", "work", true},
		{"valid other padded", " other ", "other", true},
		{"invalid type", "office", "", false},
		{"invalid empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotOk := NormalizeAddressType(tc.input)
			if gotOk != tc.wantOk {
				t.Errorf("NormalizeAddressType(%q): gotOk = %v; wantOk %v", tc.input, gotOk, tc.wantOk)
			}
			if gotType != tc.wantType {
				t.Errorf("NormalizeAddressType(%q): gotType = %q; wantType %q", tc.input, gotType, tc.wantType)
			}
		})
	}
}
