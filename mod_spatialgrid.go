package maple

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// BoundsComponent is a box around the entity's origin, in local space.
type BoundsComponent struct {
	HalfExtents mgl32.Vec3
}

type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (a AABB) Overlaps(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || b.Max[i] < a.Min[i] {
			return false
		}
	}
	return true
}

// distanceSq is the squared distance from p to the box, zero inside it.
func (a AABB) distanceSq(p mgl32.Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		if p[i] < a.Min[i] {
			d += (a.Min[i] - p[i]) * (a.Min[i] - p[i])
		} else if p[i] > a.Max[i] {
			d += (p[i] - a.Max[i]) * (p[i] - a.Max[i])
		}
	}
	return d
}

// worldAABB encloses the transformed local box.
func worldAABB(world mgl32.Mat4, half mgl32.Vec3) AABB {
	center := world.Col(3).Vec3()
	var extents mgl32.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			extents[i] += float32(math.Abs(float64(world.At(i, j)))) * half[j]
		}
	}
	return AABB{Min: center.Sub(extents), Max: center.Add(extents)}
}

// SpatialHashGrid buckets entity boxes into uniform cells. It is updated
// incrementally from SceneTransformChanged, so only moved entities are
// rehashed each frame.
type SpatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]EntityId
	entries  map[EntityId]AABB
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	if cellSize <= 0 {
		cellSize = 2
	}
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]EntityId),
		entries:  make(map[EntityId]AABB),
	}
}

func (grid *SpatialHashGrid) Len() int {
	return len(grid.entries)
}

func (grid *SpatialHashGrid) Bounds(id EntityId) (AABB, bool) {
	aabb, ok := grid.entries[id]
	return aabb, ok
}

func (grid *SpatialHashGrid) Clear() {
	clear(grid.cells)
	clear(grid.entries)
}

// Insert places id at aabb, moving it if it was already present.
func (grid *SpatialHashGrid) Insert(id EntityId, aabb AABB) {
	grid.Remove(id)
	grid.entries[id] = aabb
	grid.eachCell(aabb, func(key uint64) {
		grid.cells[key] = append(grid.cells[key], id)
	})
}

func (grid *SpatialHashGrid) Remove(id EntityId) {
	old, ok := grid.entries[id]
	if !ok {
		return
	}
	delete(grid.entries, id)
	grid.eachCell(old, func(key uint64) {
		ids := slices.DeleteFunc(grid.cells[key], func(e EntityId) bool { return e == id })
		if len(ids) == 0 {
			delete(grid.cells, key)
		} else {
			grid.cells[key] = ids
		}
	})
}

// QueryAABB returns the entities whose box overlaps aabb.
func (grid *SpatialHashGrid) QueryAABB(aabb AABB) []EntityId {
	unique := make(map[EntityId]struct{})
	var results []EntityId

	grid.eachCell(aabb, func(key uint64) {
		for _, id := range grid.cells[key] {
			if _, ok := unique[id]; ok {
				continue
			}
			unique[id] = struct{}{}
			// cells can collide, so check the stored box
			if grid.entries[id].Overlaps(aabb) {
				results = append(results, id)
			}
		}
	})
	return results
}

// QueryRadius returns the entities whose box intersects the sphere.
func (grid *SpatialHashGrid) QueryRadius(center mgl32.Vec3, radius float32) []EntityId {
	r := mgl32.Vec3{radius, radius, radius}
	candidates := grid.QueryAABB(AABB{Min: center.Sub(r), Max: center.Add(r)})

	return slices.DeleteFunc(candidates, func(id EntityId) bool {
		return grid.entries[id].distanceSq(center) > radius*radius
	})
}

func (grid *SpatialHashGrid) eachCell(aabb AABB, fn func(key uint64)) {
	minX, maxX := grid.getCellIndex(aabb.Min.X()), grid.getCellIndex(aabb.Max.X())
	minY, maxY := grid.getCellIndex(aabb.Min.Y()), grid.getCellIndex(aabb.Max.Y())
	minZ, maxZ := grid.getCellIndex(aabb.Min.Z()), grid.getCellIndex(aabb.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				fn(grid.hashKey(x, y, z))
			}
		}
	}
}

func (grid *SpatialHashGrid) getCellIndex(pos float32) int {
	return int(math.Floor(float64(pos / grid.cellSize)))
}

func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}

// SpatialGridModule keeps a SpatialHashGrid of every entity carrying both a
// TransformComponent and a BoundsComponent. Install it after HierarchyModule.
type SpatialGridModule struct {
	CellSize float32
}

func (m SpatialGridModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewSpatialHashGrid(m.CellSize))

	OnConstruct[BoundsComponent](app, spatialGridInsertHook)
	OnDestroy[BoundsComponent](app, spatialGridRemoveHook)

	app.UseSystem(
		System(spatialGridSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

// spatialGridSystem rehashes the entities whose world matrix changed this frame.
func spatialGridSystem(cmd *Commands, changed Read[SceneTransformChanged], grid *SpatialHashGrid) {
	ecs := cmd.app.ecs
	for _, eid := range changed.Get().Entities {
		bounds := GetComponent[BoundsComponent](ecs, eid)
		tr := GetComponent[TransformComponent](ecs, eid)
		if bounds == nil || tr == nil {
			continue
		}
		grid.Insert(eid, worldAABB(tr.WorldMatrix(), bounds.HalfExtents))
	}
}

// spatialGridInsertHook indexes an entity as soon as it gains bounds, using
// whatever world matrix it has now; propagation corrects it later. Hooks are
// entity scoped, so the grid is taken as Opt to reach the context.
func spatialGridInsertHook(eid EntityId, bounds *BoundsComponent, ecs *Ecs, grid Opt[SpatialHashGrid]) {
	tr := GetComponent[TransformComponent](ecs, eid)
	if tr == nil || !grid.Ok() {
		return
	}
	grid.Get().Insert(eid, worldAABB(tr.WorldMatrix(), bounds.HalfExtents))
}

func spatialGridRemoveHook(eid EntityId, grid Opt[SpatialHashGrid]) {
	if grid.Ok() {
		grid.Get().Remove(eid)
	}
}
