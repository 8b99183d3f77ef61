package utils

import "time"

// Nairobi time location (EAT, +03:00). Daraja timestamps and password
// derivation are expressed in this zone.
var nairobiLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Africa/Nairobi"); err == nil {
		return loc
	}
	return time.FixedZone("EAT", 3*3600)
}()

// DarajaTimestamp renders t the way the gateway expects it: YYYYMMDDHHmmss
// in East Africa Time.
func DarajaTimestamp(t time.Time) string {
	return t.In(nairobiLoc).Format("20060102150405")
}
