package mapcontainer

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/utils/number"
	"github.com/bytearena/skirmish/common/utils/vector"
)

// MaxPolygonVertices mirrors the physics engine's limit for convex polygons
const MaxPolygonVertices = 8

type MapContainer struct {
	Meta struct {
		Readme string `json:"readme"`
		Kind   string `json:"kind"`
		Theme  string `json:"theme"`
		Date   string `json:"date"`
	} `json:"meta"`
	Data struct {
		// Bounds is the map half-extent used to normalize positions and to size team B spawns
		Bounds float64 `json:"bounds"`
		// Size is the half-extent of the walled arena; the fog grid covers [-Size, Size)
		Size      float64       `json:"size"`
		Walls     bool          `json:"walls"`
		Obstacles []MapObstacle `json:"obstacles"`
	} `json:"data"`
}

type MapPoint struct {
	X float64
	Y float64
}

func (p MapPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{
		number.ToFixed(p.X, 5),
		number.ToFixed(p.Y, 5),
	})
}

func (a *MapPoint) UnmarshalJSON(b []byte) error {
	var floats []float64
	if err := json.Unmarshal(b, &floats); err != nil {
		return err
	}

	if len(floats) != 2 {
		return errors.Errorf("map point must have 2 coordinates, got %d", len(floats))
	}

	a.X = floats[0]
	a.Y = floats[1]

	return nil
}

func (p MapPoint) ToVector2() vector.Vector2 {
	return vector.MakeVector2(p.X, p.Y)
}

type MapPolygon struct {
	Points []MapPoint
}

func (p MapPolygon) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Points)
}

func (a *MapPolygon) UnmarshalJSON(b []byte) error {
	var points []MapPoint
	if err := json.Unmarshal(b, &points); err != nil {
		return err
	}

	a.Points = points

	return nil
}

func (p MapPolygon) Vertices() []vector.Vector2 {
	vertices := make([]vector.Vector2, len(p.Points))
	for i, point := range p.Points {
		vertices[i] = point.ToVector2()
	}

	return vertices
}

// IsConvex reports whether the polygon is strictly convex, whatever its winding
func (p MapPolygon) IsConvex() bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}

	sign := 0.0
	for i := 0; i < n; i++ {
		a := p.Points[i].ToVector2()
		b := p.Points[(i+1)%n].ToVector2()
		c := p.Points[(i+2)%n].ToVector2()

		cross := b.Sub(a).Cross(c.Sub(b))
		if number.IsZero(cross) {
			return false
		}

		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}

	return true
}

type MapObstacle struct {
	Id      string     `json:"id"`
	Polygon MapPolygon `json:"polygon"`
}

func MakeBoxObstacle(id string, center vector.Vector2, halfWidth float64, halfHeight float64) MapObstacle {
	cx, cy := center.Get()
	return MapObstacle{
		Id: id,
		Polygon: MapPolygon{
			Points: []MapPoint{
				{cx - halfWidth, cy - halfHeight},
				{cx + halfWidth, cy - halfHeight},
				{cx + halfWidth, cy + halfHeight},
				{cx - halfWidth, cy + halfHeight},
			},
		},
	}
}

// BoundaryObstacles returns the four walls enclosing [-Size, Size]²
func (m *MapContainer) BoundaryObstacles() []MapObstacle {
	if !m.Data.Walls {
		return nil
	}

	size := m.Data.Size
	thickness := 1.0
	half := thickness / 2

	return []MapObstacle{
		MakeBoxObstacle("wall-north", vector.MakeVector2(0, size+half), size+thickness, half),
		MakeBoxObstacle("wall-south", vector.MakeVector2(0, -size-half), size+thickness, half),
		MakeBoxObstacle("wall-east", vector.MakeVector2(size+half, 0), half, size),
		MakeBoxObstacle("wall-west", vector.MakeVector2(-size-half, 0), half, size),
	}
}

// AllObstacles returns the authored obstacles followed by the boundary walls
func (m *MapContainer) AllObstacles() []MapObstacle {
	return append(append([]MapObstacle{}, m.Data.Obstacles...), m.BoundaryObstacles()...)
}

// FogGridExtent returns the integer cell rectangle covering the arena
func (m *MapContainer) FogGridExtent() (minX int, minY int, width int, height int) {
	lo := int(math.Floor(-m.Data.Size))
	hi := int(math.Ceil(m.Data.Size))
	return lo, lo, hi - lo, hi - lo
}

func (m *MapContainer) Validate() error {
	if m.Data.Bounds <= 0 {
		return errors.Errorf("map bounds must be positive, got %v", m.Data.Bounds)
	}

	if m.Data.Size <= 0 {
		return errors.Errorf("map size must be positive, got %v", m.Data.Size)
	}

	for _, obstacle := range m.Data.Obstacles {
		if len(obstacle.Polygon.Points) > MaxPolygonVertices {
			return errors.Errorf("obstacle %s has %d vertices; at most %d are supported", obstacle.Id, len(obstacle.Polygon.Points), MaxPolygonVertices)
		}

		if !obstacle.Polygon.IsConvex() {
			return errors.Errorf("obstacle %s is not a convex polygon", obstacle.Id)
		}
	}

	return nil
}

func Load(path string) (*MapContainer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read map %s", path)
	}

	var arenaMap MapContainer
	if err := json.Unmarshal(data, &arenaMap); err != nil {
		return nil, errors.Wrapf(err, "could not decode map %s", path)
	}

	if err := arenaMap.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid map %s", path)
	}

	return &arenaMap, nil
}

// Default is the built-in training map: a walled 40x40 arena with four pillars
func Default() *MapContainer {
	arenaMap := &MapContainer{}
	arenaMap.Meta.Readme = "Skirmish training map"
	arenaMap.Meta.Kind = "skirmish"
	arenaMap.Meta.Theme = "dojo"
	arenaMap.Data.Bounds = 18.5
	arenaMap.Data.Size = 20
	arenaMap.Data.Walls = true
	arenaMap.Data.Obstacles = []MapObstacle{
		MakeBoxObstacle("pillar-ne", vector.MakeVector2(7, 7), 1.5, 1.5),
		MakeBoxObstacle("pillar-nw", vector.MakeVector2(-7, 7), 1.5, 1.5),
		MakeBoxObstacle("pillar-se", vector.MakeVector2(7, -7), 1.5, 1.5),
		MakeBoxObstacle("pillar-sw", vector.MakeVector2(-7, -7), 1.5, 1.5),
	}

	return arenaMap
}
