package waterid

import "fmt"

const maxTenantCode = 999

func FormatTenantCode(n int) string {
	return fmt.Sprintf("%0*d", TenantCodeWidth, n)
}

// NextTenantCode returns the lowest code absent from inUse, scanning from
// "000". Freed codes are reused before higher ones. It returns "" once all
// 1000 codes are taken.
func NextTenantCode(inUse []string) string {
	taken := make(map[string]struct{}, len(inUse))
	for _, code := range inUse {
		taken[code] = struct{}{}
	}

	for n := 0; n <= maxTenantCode; n++ {
		code := FormatTenantCode(n)
		if _, ok := taken[code]; !ok {
			return code
		}
	}
	return ""
}

// CodesOf extracts tenant codes from water identifiers, skipping malformed ones.
func CodesOf(waterIDs []string) []string {
	codes := make([]string, 0, len(waterIDs))
	for _, waterID := range waterIDs {
		code, err := TenantCode(waterID)
		if err != nil {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
