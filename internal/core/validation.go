// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Indian postal codes: six digits, no leading zero.
var pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// IsValidPincode checks the delivery pincode format.
func IsValidPincode(pincode string) bool {
	return pincodeRegex.MatchString(pincode)
}

// NormalizeAddressType lower-cases and validates the address-book entry type.
func NormalizeAddressType(addrType string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(addrType))
	switch lower {
	case "home", "work", "other":
		return lower, true
	}
	return "", false
}
