package domain

import "math"

// Vec3 is a point or direction in simulator world coordinates.
type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Dist is the euclidean distance between two points.
func (v Vec3) Dist(o Vec3) float64 {
	dx, dy, dz := v[0]-o[0], v[1]-o[1], v[2]-o[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Quat is a rotation quaternion (x, y, z, w).
type Quat [4]float64

// Pose is a spawn position and rotation.
type Pose struct {
	Pos Vec3 `json:"pos"`
	Rot Quat `json:"rot_quat"`
}

// PathNode is one node of a timed driving script.
type PathNode struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	T float64 `json:"t"`
}

// Pos returns the node position.
func (n PathNode) Pos() Vec3 { return Vec3{n.X, n.Y, n.Z} }

// Waypoint is a named checkpoint an AI driver can be sent to.
type Waypoint struct {
	Name string `json:"name"`
	Pos  Vec3   `json:"pos"`
}
