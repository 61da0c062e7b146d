package maple

import (
	"reflect"
)

// componentHook runs synchronously inside the store mutation that triggered it.
type componentHook func(ecs *Ecs, entityId EntityId)

type componentHooks struct {
	construct []componentHook
	destroy   []componentHook
	replace   []componentHook
	update    []componentHook
}

type hookKind int

const (
	hookConstruct hookKind = iota
	hookDestroy
	hookUpdate
	// fires before an existing component is overwritten, old value in storage
	hookReplace
)

func (k hookKind) String() string {
	switch k {
	case hookConstruct:
		return "construct"
	case hookDestroy:
		return "destroy"
	case hookUpdate:
		return "update"
	case hookReplace:
		return "replace"
	}
	return "unknown"
}

func (ecs *Ecs) connectHook(componentType reflect.Type, kind hookKind, hook componentHook) {
	id := ecs.getComponentId(componentType)
	hooks, ok := ecs.hooks[id]
	if !ok {
		hooks = &componentHooks{}
		ecs.hooks[id] = hooks
	}

	switch kind {
	case hookConstruct:
		hooks.construct = append(hooks.construct, hook)
	case hookDestroy:
		hooks.destroy = append(hooks.destroy, hook)
	case hookUpdate:
		hooks.update = append(hooks.update, hook)
	case hookReplace:
		hooks.replace = append(hooks.replace, hook)
	}
}

func (ecs *Ecs) fireConstruct(id componentId, entityId EntityId) {
	if hooks, ok := ecs.hooks[id]; ok {
		ecs.fire(hooks.construct, entityId)
	}
}

func (ecs *Ecs) fireDestroy(id componentId, entityId EntityId) {
	if hooks, ok := ecs.hooks[id]; ok {
		ecs.fire(hooks.destroy, entityId)
	}
}

func (ecs *Ecs) fireReplace(id componentId, entityId EntityId) {
	if hooks, ok := ecs.hooks[id]; ok {
		ecs.fire(hooks.replace, entityId)
	}
}

func (ecs *Ecs) fireUpdate(id componentId, entityId EntityId) {
	if hooks, ok := ecs.hooks[id]; ok {
		ecs.fire(hooks.update, entityId)
	}
}

func (ecs *Ecs) fire(hooks []componentHook, entityId EntityId) {
	for _, hook := range hooks {
		if !ecs.Valid(entityId) {
			return
		}
		hook(ecs, entityId)
	}
}
