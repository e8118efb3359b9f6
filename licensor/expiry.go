package licensor

import "time"

// SetExpiry stores the expiry date. Only the calendar date of t is kept.
func (d *Document) SetExpiry(t time.Time) {
	d.SetDate(FeatureExpiryDate, t)
}

// ExpiresAt returns the stored expiry date at local midnight.
func (d *Document) ExpiresAt() (time.Time, error) {
	return d.Date(FeatureExpiryDate)
}

// IsExpired reports whether the license expired before today. A license is
// still valid on its expiry date. A missing or malformed expiry date counts
// as expired.
//
// IsExpired does not check the signature; call IsVerified separately.
func (d *Document) IsExpired() bool {
	return d.IsExpiredAt(time.Now())
}

// IsExpiredAt is IsExpired evaluated at now instead of the wall clock.
func (d *Document) IsExpiredAt(now time.Time) bool {
	expiry, err := d.ExpiresAt()
	if err != nil {
		return true
	}
	local := now.In(time.Local)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	return today.After(expiry)
}
