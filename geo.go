package railswitch

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

// geoToLocation projects WGS84 point into track space (meters).
// X grows to the east, Z grows to the south, so that "left" of a northbound train is west.
func geoToLocation(gp GeoPoint, elevation float64) Location {
	x, y := epsg4326To3857(gp.Lon, gp.Lat)
	return Location{X: x, Y: elevation, Z: 0 - y}
}

// planar drops elevation and returns point on X/Z plane. Z axis is flipped back so exports are north-up.
// 0 - Z keeps zero positive in exported text.
func (loc Location) planar() orb.Point {
	return orb.Point{loc.X, 0 - loc.Z}
}

// planarLine returns two-point line on X/Z plane
func planarLine(from, to Location) orb.LineString {
	return orb.LineString{from.planar(), to.planar()}
}
