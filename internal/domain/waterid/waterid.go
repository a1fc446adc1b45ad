// Package waterid generates property root identifiers and composes, splits and
// allocates the "<rootId>_<tenantCode>" water identifiers derived from them.
package waterid

import (
	"crypto/rand"
	"math/big"
	"strings"

	"water-app-go/pkg/apperr"
)

const (
	RootIDLength    = 15
	TenantCodeWidth = 3
	OwnerTenantCode = "000"
	separator       = "_"
	rootIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var ErrMalformed = apperr.New(apperr.KindMalformedIdentifier, "malformed water identifier")

// GenerateRootID draws RootIDLength characters uniformly from [A-Za-z0-9].
// Uniqueness against persisted properties is the caller's job.
func GenerateRootID() (string, error) {
	max := big.NewInt(int64(len(rootIDAlphabet)))

	var builder strings.Builder
	builder.Grow(RootIDLength)

	for i := 0; i < RootIDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(rootIDAlphabet[n.Int64()])
	}

	return builder.String(), nil
}

func Compose(rootID, tenantCode string) string {
	return rootID + separator + tenantCode
}

// Parse splits a water identifier on its first separator. The tenant segment
// runs to the second separator (or the end) and must be exactly three digits.
func Parse(waterID string) (rootID, tenantCode string, err error) {
	rootID, rest, ok := strings.Cut(waterID, separator)
	if !ok || rootID == "" {
		return "", "", ErrMalformed
	}
	tenantCode, _, _ = strings.Cut(rest, separator)
	if !isTenantCode(tenantCode) {
		return "", "", ErrMalformed
	}
	return rootID, tenantCode, nil
}

func RootID(waterID string) (string, error) {
	rootID, _, err := Parse(waterID)
	return rootID, err
}

func TenantCode(waterID string) (string, error) {
	_, code, err := Parse(waterID)
	return code, err
}

func isTenantCode(value string) bool {
	if len(value) != TenantCodeWidth {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
