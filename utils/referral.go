package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// ReferralType represents the party type a referral code is generated for
type ReferralType string

const (
	TenantType   ReferralType = "TEN"
	LandlordType ReferralType = "LLD"
	ProspectType ReferralType = "PRO"
)

// GenerateReferralCode generates a referral code for the given party type.
// Format: {TYPE}-{RANDOM} where RANDOM is 8 alphanumeric characters.
// Example: TEN-ABC123XY, LLD-XYZ789QD
func GenerateReferralCode(partyType ReferralType) (string, error) {
	// 5 random bytes give us 8 characters in base32
	randomBytes := make([]byte, 5)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:8]

	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 8 {
		randomStr = randomStr + strings.Repeat("0", 8-len(randomStr))
	}

	return string(partyType) + "-" + randomStr, nil
}

// ReferralTypeFor maps a user type string to its code prefix. Unknown types
// fall back to prospect.
func ReferralTypeFor(userType string) ReferralType {
	switch userType {
	case "tenant":
		return TenantType
	case "landlord":
		return LandlordType
	default:
		return ProspectType
	}
}
