// Package mesh builds the procedural geometry used by the sky: ellipsoid
// shells for the atmosphere and moon, and flat discs for billboards.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/geo"
)

// Topology describes how a Geometry's indices (or vertices) form primitives.
type Topology int

const (
	Triangles Topology = iota
	Points
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case Points:
		return "points"
	default:
		return "unknown"
	}
}

// Geometry is a GPU-ready vertex buffer set. TexCoords, Normals and Colors
// are either empty or parallel to Vertices. Indices is empty for Points.
type Geometry struct {
	Vertices  []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Normals   []mgl32.Vec3
	Colors    []mgl32.Vec4
	Indices   []uint32
	Topology  Topology
}

// PrimitiveCount returns the number of triangles or points.
func (g *Geometry) PrimitiveCount() int {
	if g.Topology == Points {
		return len(g.Vertices)
	}
	return len(g.Indices) / 3
}

const (
	latSegments  = 100
	lonSegments  = 2 * latSegments
	discSegments = 48
)

// BuildEllipsoid tessellates a shell around e whose equator sits at
// outerRadius. Vertices run latitude-major from the south pole; the
// longitude seam wraps without duplicated vertices. When texAndNormals is
// set, texture coordinates map longitude and latitude onto [0,1] and normals
// are the normalized vertex positions.
func BuildEllipsoid(e *geo.Ellipsoid, outerRadius float64, texAndNormals bool) *Geometry {
	hae := outerRadius - e.RadiusEquator()
	step := 180.0 / float64(latSegments)

	n := (latSegments + 1) * lonSegments
	g := &Geometry{
		Vertices: make([]mgl32.Vec3, 0, n),
		Indices:  make([]uint32, 0, latSegments*lonSegments*6),
		Topology: Triangles,
	}
	if texAndNormals {
		g.TexCoords = make([]mgl32.Vec2, 0, n)
		g.Normals = make([]mgl32.Vec3, 0, n)
	}

	for y := 0; y <= latSegments; y++ {
		lat := -90 + step*float64(y)
		for x := 0; x < lonSegments; x++ {
			lon := -180 + step*float64(x)
			p := e.LatLongHeightToXYZ(mgl64.DegToRad(lat), mgl64.DegToRad(lon), hae)
			g.Vertices = append(g.Vertices, vec3f(p))

			if texAndNormals {
				g.TexCoords = append(g.TexCoords, mgl32.Vec2{
					float32((lon + 180) / 360),
					float32((lat + 90) / 180),
				})
				g.Normals = append(g.Normals, vec3f(p.Normalize()))
			}

			if y < latSegments {
				x1 := (x + 1) % lonSegments
				y1 := y + 1
				g.Indices = append(g.Indices,
					idx(y, x), idx(y1, x), idx(y, x1),
					idx(y, x1), idx(y1, x), idx(y1, x1),
				)
			}
		}
	}
	return g
}

func idx(y, x int) uint32 {
	return uint32(y*lonSegments + x)
}

// BuildDisc returns a triangle fan of the given radius in the XY plane,
// centred on the origin and facing +Z.
func BuildDisc(radius float64) *Geometry {
	g := &Geometry{
		Vertices: make([]mgl32.Vec3, 0, 1+discSegments),
		Indices:  make([]uint32, 0, 3*discSegments),
		Topology: Triangles,
	}
	g.Vertices = append(g.Vertices, mgl32.Vec3{})

	delta := 360.0 / float64(discSegments)
	for i := 0; i < discSegments; i++ {
		s, c := math.Sincos(mgl64.DegToRad(delta * float64(i)))
		g.Vertices = append(g.Vertices, mgl32.Vec3{float32(radius * c), float32(radius * s), 0})

		next := (i + 1) % discSegments
		g.Indices = append(g.Indices, 0, uint32(1+next), uint32(1+i))
	}
	return g
}

// BuildPoints returns a point cloud. colors may be nil.
func BuildPoints(positions []mgl64.Vec3, colors []mgl32.Vec4) *Geometry {
	g := &Geometry{
		Vertices: make([]mgl32.Vec3, len(positions)),
		Colors:   colors,
		Topology: Points,
	}
	for i, p := range positions {
		g.Vertices[i] = vec3f(p)
	}
	return g
}

func vec3f(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
