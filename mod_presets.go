package maple

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type TransformData struct {
	Position [3]float32 `yaml:"position,flow"`
	Rotation [4]float32 `yaml:"rotation,flow"` // w, x, y, z
	Scale    [3]float32 `yaml:"scale,flow"`
}

type EntityData struct {
	Id        string         `yaml:"id"`
	Name      string         `yaml:"name,omitempty"`
	Parent    string         `yaml:"parent,omitempty"`
	Transform *TransformData `yaml:"transform,omitempty"`
}

// PresetData lists entities parents-first; siblings keep their child order.
type PresetData struct {
	Entities []EntityData `yaml:"entities"`
}

// SavePreset snapshots every entity that has a transform or takes part in a
// hierarchy. Entities without a SceneIdComponent are given one.
func SavePreset(cmd *Commands, w io.Writer) error {
	app := cmd.app
	ecs := app.ecs

	var roots []EntityId
	MakeQuery1[TransformComponent](cmd).Map(func(eid EntityId, _ *TransformComponent) bool {
		if h := GetComponent[HierarchyComponent](ecs, eid); h == nil {
			roots = append(roots, eid)
		}
		return true
	})
	MakeQuery1[HierarchyComponent](cmd).Map(func(eid EntityId, h *HierarchyComponent) bool {
		if h.Parent == NullEntity {
			roots = append(roots, eid)
		}
		return true
	})
	slices.Sort(roots)

	var preset PresetData
	var visit func(eid EntityId, parent string)
	visit = func(eid EntityId, parent string) {
		data := entityData(ecs, eid, parent)
		preset.Entities = append(preset.Entities, data)
		for _, child := range app.Entity(eid).Children() {
			visit(child.Id, data.Id)
		}
	}
	for _, root := range roots {
		visit(root, "")
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&preset); err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	return enc.Close()
}

func entityData(ecs *Ecs, eid EntityId, parent string) EntityData {
	sceneId := GetComponent[SceneIdComponent](ecs, eid)
	if sceneId == nil {
		sceneId = AddComponent(ecs, eid, NewSceneId())
	}
	data := EntityData{Id: sceneId.Id.String(), Parent: parent}

	if name := GetComponent[NameComponent](ecs, eid); name != nil {
		data.Name = name.Name
	}
	if tr := GetComponent[TransformComponent](ecs, eid); tr != nil {
		r := tr.LocalRotation()
		data.Transform = &TransformData{
			Position: tr.LocalPosition(),
			Rotation: [4]float32{r.W, r.V.X(), r.V.Y(), r.V.Z()},
			Scale:    tr.LocalScale(),
		}
	}
	return data
}

// LoadPreset spawns the preset's entities and rebuilds their hierarchy.
// The whole preset is checked first; on error nothing is spawned.
func LoadPreset(cmd *Commands, r io.Reader) ([]Entity, error) {
	var preset PresetData
	if err := yaml.NewDecoder(r).Decode(&preset); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}

	sceneIds, err := validatePreset(preset)
	if err != nil {
		return nil, err
	}

	app := cmd.app
	byId := make(map[string]Entity, len(preset.Entities))
	entities := make([]Entity, 0, len(preset.Entities))
	for i, data := range preset.Entities {
		components := []any{SceneIdComponent{Id: sceneIds[i]}}
		if data.Name != "" {
			components = append(components, NameComponent{Name: data.Name})
		}
		if data.Transform != nil {
			components = append(components, data.Transform.component())
		}

		e := app.Spawn(components...)
		byId[data.Id] = e
		entities = append(entities, e)
	}

	for i, data := range preset.Entities {
		if data.Parent != "" {
			entities[i].SetParent(byId[data.Parent])
		}
	}

	app.Logger().Infof("preset: loaded %d entities", len(entities))
	return entities, nil
}

func validatePreset(preset PresetData) ([]uuid.UUID, error) {
	sceneIds := make([]uuid.UUID, len(preset.Entities))
	seen := make(map[string]struct{}, len(preset.Entities))
	for i, data := range preset.Entities {
		id, err := uuid.Parse(data.Id)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", data.Id, err)
		}
		if _, dup := seen[data.Id]; dup {
			return nil, fmt.Errorf("entity %q: duplicate id", data.Id)
		}
		seen[data.Id] = struct{}{}
		sceneIds[i] = id
	}
	for _, data := range preset.Entities {
		if _, ok := seen[data.Parent]; data.Parent != "" && !ok {
			return nil, fmt.Errorf("entity %q: unknown parent %q", data.Id, data.Parent)
		}
	}
	return sceneIds, nil
}

func (t TransformData) component() TransformComponent {
	tr := NewTransform()
	tr.SetLocalPosition(t.Position)
	tr.SetLocalRotation(mgl32.Quat{W: t.Rotation[0], V: mgl32.Vec3{t.Rotation[1], t.Rotation[2], t.Rotation[3]}})
	tr.SetLocalScale(t.Scale)
	return tr
}

func SavePresetFile(cmd *Commands, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create preset %s: %w", filename, err)
	}
	if err := SavePreset(cmd, f); err != nil {
		f.Close()
		return fmt.Errorf("save preset %s: %w", filename, err)
	}
	return f.Close()
}

func LoadPresetFile(cmd *Commands, filename string) ([]Entity, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open preset %s: %w", filename, err)
	}
	defer f.Close()

	entities, err := LoadPreset(cmd, f)
	if err != nil {
		return entities, fmt.Errorf("load preset %s: %w", filename, err)
	}
	return entities, nil
}
