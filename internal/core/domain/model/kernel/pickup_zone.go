package kernel

import (
	"fmt"
	"math"
)

// zoneResolution quantizes coordinates to a ~0.1 degree grid. At that
// resolution a zone spans roughly 11 km of latitude, coarse enough to group
// orders whose restaurants are candidates for a shared delivery run.
const zoneResolution = 10

// PickupZone derives the geographic bucket used as the grouping key for
// order batching. Coordinates are scaled by the grid resolution and rounded
// down, so (40.7128, -74.0060) maps to "zone-407--741". Rounding down (not
// toward zero) keeps neighboring negative coordinates in distinct, stable
// buckets on either side of each grid line.
func PickupZone(point GeoPoint) string {
	return fmt.Sprintf("zone-%d-%d",
		int(math.Floor(point.Latitude()*zoneResolution)),
		int(math.Floor(point.Longitude()*zoneResolution)),
	)
}
