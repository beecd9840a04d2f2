package domain

import "strconv"

// Immutable geographic position reported by the device (latitude, longitude).
type Location struct {
	Lat float64
	Lng float64
}

// Return "lat,lng" with full float precision, as used in map links.
func (l Location) QueryString() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}
