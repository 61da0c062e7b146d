package maple

import (
	"reflect"
)

// Parameter forms understood by the resolver:
//
//	T           value, always available
//	*T          mutable reference, the system is skipped when T is missing
//	Read[T]     read-only reference, the system is skipped when T is missing
//	Opt[T]      mutable pointer, nil when T is missing
//	OptRead[T]  read-only pointer, not ok when T is missing

type Read[T any] struct{ ptr *T }

func (r Read[T]) Get() T { return *r.ptr }

type Opt[T any] struct{ ptr *T }

// Get returns nil when nothing was bound.
func (o Opt[T]) Get() *T { return o.ptr }
func (o Opt[T]) Ok() bool { return o.ptr != nil }

type OptRead[T any] struct{ ptr *T }

func (o OptRead[T]) Get() (T, bool) {
	if o.ptr == nil {
		var zero T
		return zero, false
	}
	return *o.ptr, true
}

type bindingKind int

const (
	bindValue bindingKind = iota
	bindMutableRef
	bindConstRef
	bindMutablePtr
	bindConstPtr
	bindInjected
)

func (k bindingKind) String() string {
	return [...]string{"value", "ref", "const ref", "ptr", "const ptr", "injected"}[k]
}

// paramWrapper is implemented by the generic parameter forms so the resolver
// can learn their element type and build them from a storage pointer.
type paramWrapper interface {
	bindingKind() bindingKind
	elemType() reflect.Type
	wrap(ptr reflect.Value) reflect.Value
}

var typeOfParamWrapper = reflect.TypeFor[paramWrapper]()

func (Read[T]) bindingKind() bindingKind { return bindConstRef }
func (Read[T]) elemType() reflect.Type   { return reflect.TypeFor[T]() }
func (Read[T]) wrap(ptr reflect.Value) reflect.Value {
	return reflect.ValueOf(Read[T]{ptr: ptr.Interface().(*T)})
}

func (Opt[T]) bindingKind() bindingKind { return bindMutablePtr }
func (Opt[T]) elemType() reflect.Type   { return reflect.TypeFor[T]() }
func (Opt[T]) wrap(ptr reflect.Value) reflect.Value {
	if !ptr.IsValid() {
		return reflect.ValueOf(Opt[T]{})
	}
	return reflect.ValueOf(Opt[T]{ptr: ptr.Interface().(*T)})
}

func (OptRead[T]) bindingKind() bindingKind { return bindConstPtr }
func (OptRead[T]) elemType() reflect.Type   { return reflect.TypeFor[T]() }
func (OptRead[T]) wrap(ptr reflect.Value) reflect.Value {
	if !ptr.IsValid() {
		return reflect.ValueOf(OptRead[T]{})
	}
	return reflect.ValueOf(OptRead[T]{ptr: ptr.Interface().(*T)})
}

// paramBinding decides whether a parameter can be satisfied in a scope and
// builds the argument when it can.
type paramBinding interface {
	kind() bindingKind
	available(s resolveScope) bool
	build(s resolveScope) reflect.Value
}

type valueBinding struct {
	t reflect.Type
}

func (b valueBinding) kind() bindingKind              { return bindValue }
func (b valueBinding) available(s resolveScope) bool { return true }

func (b valueBinding) build(s resolveScope) reflect.Value {
	if b.t == typeOfEntityId {
		return reflect.ValueOf(s.entity)
	}
	if ptr, ok := s.lookupPointer(b.t); ok {
		return ptr.Elem()
	}
	return reflect.Zero(b.t)
}

type mutableRefBinding struct {
	elem reflect.Type
}

func (b mutableRefBinding) kind() bindingKind { return bindMutableRef }

func (b mutableRefBinding) available(s resolveScope) bool {
	_, ok := s.lookupReference(b.elem)
	return ok
}

func (b mutableRefBinding) build(s resolveScope) reflect.Value {
	ptr, _ := s.lookupReference(b.elem)
	return ptr
}

type constRefBinding struct {
	elem    reflect.Type
	wrapper paramWrapper
}

func (b constRefBinding) kind() bindingKind { return bindConstRef }

func (b constRefBinding) available(s resolveScope) bool {
	_, ok := s.lookupReference(b.elem)
	return ok
}

func (b constRefBinding) build(s resolveScope) reflect.Value {
	ptr, _ := s.lookupReference(b.elem)
	return b.wrapper.wrap(ptr)
}

// pointerBinding covers both Opt and OptRead; they differ only in the wrapper.
type pointerBinding struct {
	elem    reflect.Type
	wrapper paramWrapper
}

func (b pointerBinding) kind() bindingKind              { return b.wrapper.bindingKind() }
func (b pointerBinding) available(s resolveScope) bool { return true }

func (b pointerBinding) build(s resolveScope) reflect.Value {
	ptr, _ := s.lookupPointer(b.elem)
	return b.wrapper.wrap(ptr)
}

type injectedBinding struct {
	inject func(s resolveScope) reflect.Value
}

func (b injectedBinding) kind() bindingKind              { return bindInjected }
func (b injectedBinding) available(s resolveScope) bool { return true }
func (b injectedBinding) build(s resolveScope) reflect.Value {
	return b.inject(s)
}

// makeBinding classifies a parameter type that is not in the injection table.
func makeBinding(argType reflect.Type) paramBinding {
	if argType.Implements(typeOfParamWrapper) {
		wrapper := reflect.Zero(argType).Interface().(paramWrapper)
		switch wrapper.bindingKind() {
		case bindConstRef:
			return constRefBinding{elem: wrapper.elemType(), wrapper: wrapper}
		default:
			return pointerBinding{elem: wrapper.elemType(), wrapper: wrapper}
		}
	}

	if argType.Kind() == reflect.Pointer {
		return mutableRefBinding{elem: argType.Elem()}
	}

	return valueBinding{t: argType}
}
