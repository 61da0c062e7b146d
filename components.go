package maple

import (
	"github.com/google/uuid"
)

// NameComponent is a human-readable label for editors and logs.
type NameComponent struct {
	Name string
}

// SceneIdComponent is an identity that survives save and load, unlike
// EntityId which is only meaningful inside one store.
type SceneIdComponent struct {
	Id uuid.UUID
}

func NewSceneId() SceneIdComponent {
	return SceneIdComponent{Id: uuid.New()}
}
