package vulkan

// Option holds a value that may be unset.
type Option[T any] struct {
	v   T
	set bool
}

func Some[T any](value T) Option[T] {
	return Option[T]{v: value, set: true}
}
func None[T any]() Option[T] {
	return Option[T]{set: false}
}
func (option Option[T]) IsSet() bool { return option.set }
func (option Option[T]) Some() T {
	return option.SomeOr(func() T { panic("attempt to get from None") })
}
func (option Option[T]) SomeOr(callback func() T) T {
	if option.set {
		return option.v
	}
	return callback()
}

// queueFamily is what queue selection needs to know about a family.
type queueFamily struct {
	graphics bool
	present  bool
}

// pickQueueFamilies prefers one family that does both graphics and
// presentation, and otherwise takes the first family of each kind.
func pickQueueFamilies(families []queueFamily) (graphics, present Option[uint32]) {
	for k, f := range families {
		if f.graphics && f.present {
			return Some(uint32(k)), Some(uint32(k))
		}
	}
	for k, f := range families {
		if f.graphics && !graphics.IsSet() {
			graphics = Some(uint32(k))
		}
		if f.present && !present.IsSet() {
			present = Some(uint32(k))
		}
	}
	return graphics, present
}
