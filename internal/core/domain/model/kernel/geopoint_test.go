package kernel_test

import (
	"testing"

	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("valid coordinates", func(t *testing.T) {
		point, err := kernel.NewGeoPoint(40.7128, -74.0060)

		require.NoError(t, err)
		assert.InDelta(t, 40.7128, point.Latitude(), 1e-9)
		assert.InDelta(t, -74.0060, point.Longitude(), 1e-9)
		require.NoError(t, point.Validate())
	})

	t.Run("boundary coordinates", func(t *testing.T) {
		testCases := []struct {
			name     string
			lat, lon float64
		}{
			{name: "north pole", lat: 90, lon: 0},
			{name: "south pole", lat: -90, lon: 0},
			{name: "antimeridian east", lat: 0, lon: 180},
			{name: "antimeridian west", lat: 0, lon: -180},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := kernel.NewGeoPoint(tc.lat, tc.lon)
				require.NoError(t, err)
			})
		}
	})

	t.Run("out of range coordinates", func(t *testing.T) {
		testCases := []struct {
			name     string
			lat, lon float64
		}{
			{name: "latitude too high", lat: 90.1, lon: 0},
			{name: "latitude too low", lat: -90.1, lon: 0},
			{name: "longitude too high", lat: 0, lon: 180.1},
			{name: "longitude too low", lat: 0, lon: -180.1},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := kernel.NewGeoPoint(tc.lat, tc.lon)
				require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
			})
		}
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var point kernel.GeoPoint
		require.Error(t, point.Validate())
	})
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	t.Run("known distance", func(t *testing.T) {
		// Empire State Building to Times Square, roughly 1.6 km apart.
		a, err := kernel.NewGeoPoint(40.7484, -73.9857)
		require.NoError(t, err)
		b, err := kernel.NewGeoPoint(40.7580, -73.9855)
		require.NoError(t, err)

		distance, err := a.DistanceKm(b)
		require.NoError(t, err)
		assert.InDelta(t, 1.07, distance, 0.05)
	})

	t.Run("distance to self is zero", func(t *testing.T) {
		point, err := kernel.NewGeoPoint(40.7128, -74.0060)
		require.NoError(t, err)

		distance, err := point.DistanceKm(point)
		require.NoError(t, err)
		assert.InDelta(t, 0, distance, 1e-9)
	})

	t.Run("unconstructed point fails", func(t *testing.T) {
		point, err := kernel.NewGeoPoint(40.7128, -74.0060)
		require.NoError(t, err)

		var zero kernel.GeoPoint
		_, err = point.DistanceKm(zero)
		require.Error(t, err)
	})
}

func TestPickupZone(t *testing.T) {
	testCases := []struct {
		name     string
		lat, lon float64
		expected string
	}{
		{name: "new york, negative longitude", lat: 40.7128, lon: -74.0060, expected: "zone-407--741"},
		{name: "berlin, positive longitude", lat: 52.5200, lon: 13.4050, expected: "zone-525-134"},
		{name: "southern hemisphere", lat: -33.8688, lon: 151.2093, expected: "zone--339-1512"},
		{name: "origin", lat: 0, lon: 0, expected: "zone-0-0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			point, err := kernel.NewGeoPoint(tc.lat, tc.lon)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, kernel.PickupZone(point))
		})
	}

	t.Run("same zone for nearby restaurants", func(t *testing.T) {
		a, err := kernel.NewGeoPoint(40.7128, -74.0060)
		require.NoError(t, err)
		b, err := kernel.NewGeoPoint(40.7190, -74.0021)
		require.NoError(t, err)

		assert.Equal(t, kernel.PickupZone(a), kernel.PickupZone(b))
	})
}
