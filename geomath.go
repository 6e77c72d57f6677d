package railswitch

import (
	"fmt"
	"math"
)

const (
	earthRadius = 6370.986884258304
	pi180       = math.Pi / 180.0
)

// Location is a point of the track graph. Nodes are identified by their Location.
type Location struct {
	X float64
	Y float64
	Z float64
}

// String returns pretty printed value for Location
func (loc Location) String() string {
	return fmt.Sprintf("(%g, %g, %g)", loc.X, loc.Y, loc.Z)
}

// VectorTo returns vector pointing from loc to other
func (loc Location) VectorTo(other Location) Vec3 {
	return Vec3{X: other.X - loc.X, Y: other.Y - loc.Y, Z: other.Z - loc.Z}
}

// DistSqr returns squared euclidean distance between two locations
func (loc Location) DistSqr(other Location) float64 {
	v := loc.VectorTo(other)
	return v.Dot(v)
}

// Less orders locations lexicographically by X, then Y, then Z
func (loc Location) Less(other Location) bool {
	if loc.X != other.X {
		return loc.X < other.X
	}
	if loc.Y != other.Y {
		return loc.Y < other.Y
	}
	return loc.Z < other.Z
}

// Vec3 is a direction in track space
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Dot returns dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length returns euclidean length of vector
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns unit vector with the same direction. Zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-4 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// sideOf returns signed cross-track value of dir relative to forward in the horizontal plane.
// Negative is left, zero is straight on, positive is right.
func sideOf(forward, dir Vec3) float64 {
	return forward.X*dir.Z - forward.Z*dir.X
}

// GeoPoint representation of point on Earth
type GeoPoint struct {
	Lat float64
	Lon float64
}

// String returns pretty printed value for for GeoPoint
func (gp GeoPoint) String() string {
	return fmt.Sprintf("Lon: %f | Lat: %f", gp.Lon, gp.Lat)
}

// degreesToRadians deg = r * pi / 180
func degreesToRadians(d float64) float64 {
	return d * pi180
}

// greatCircleDistance returns distance between two geo-points (kilometers)
func greatCircleDistance(p, q GeoPoint) float64 {
	lat1 := degreesToRadians(p.Lat)
	lon1 := degreesToRadians(p.Lon)
	lat2 := degreesToRadians(q.Lat)
	lon2 := degreesToRadians(q.Lon)
	diffLat := lat2 - lat1
	diffLon := lon2 - lon1
	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(diffLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c * earthRadius
}
