package cache

import "fmt"

// KeyHours identifies one computed total. The feed fingerprint is part of
// the key so a refreshed feed never serves stale totals.
func KeyHours(agencyKey, fingerprint, startDate, endDate, policy string) string {
	return fmt.Sprintf("hours:%s:%s:%s:%s:%s", agencyKey, fingerprint, startDate, endDate, policy)
}
