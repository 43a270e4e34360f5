package arc

// Guard holds the strong unit promoted by Weak.Get.
// The value stays alive until Release; nothing leaks once it is called.
type Guard[T any] struct {
	s *Strong[T]
}

// Ptr returns a pointer to the value. Same aliasing caveat as
// Strong.MutUnchecked; valid until Release.
func (g *Guard[T]) Ptr() *T {
	return g.s.MutUnchecked()
}

// Strong returns the handle backing the guard. It is released with the guard.
func (g *Guard[T]) Strong() *Strong[T] {
	return g.s
}

// Release returns the promoted strong unit. Further calls do nothing.
func (g *Guard[T]) Release() {
	g.s.Release()
}
