package editor

// Region is a hit-test area that keeps focus when the pointer lands inside it.
type Region interface {
	Contains(target any) bool
}

// RegionFunc adapts a function to Region.
type RegionFunc func(target any) bool

// Contains implements Region.
func (f RegionFunc) Contains(target any) bool { return f(target) }

// PointerSource delivers pointer-down events. Subscribe returns a function that
// removes the listener.
type PointerSource interface {
	SubscribePointerDown(fn func(target any)) (unsubscribe func())
}

// FocusResolver clears focus when the pointer goes down outside every tracked region.
type FocusResolver struct {
	store   *Store
	regions map[string]Region
	detach  func()
}

// NewFocusResolver tracks regions for store.
func NewFocusResolver(store *Store) *FocusResolver {
	return &FocusResolver{store: store, regions: make(map[string]Region)}
}

// Track registers or replaces the region stored under key.
func (r *FocusResolver) Track(key string, region Region) {
	if region == nil {
		delete(r.regions, key)
		return
	}
	r.regions[key] = region
}

// Untrack drops the region stored under key.
func (r *FocusResolver) Untrack(key string) {
	delete(r.regions, key)
}

// Attach subscribes to src, replacing any earlier subscription, and returns the
// detach function.
func (r *FocusResolver) Attach(src PointerSource) func() {
	r.Close()
	if src == nil {
		return func() {}
	}
	unsubscribe := src.SubscribePointerDown(r.PointerDown)
	detached := false
	r.detach = func() {
		if detached {
			return
		}
		detached = true
		if unsubscribe != nil {
			unsubscribe()
		}
	}
	return r.detach
}

// Close removes the current subscription. It is safe to call more than once.
func (r *FocusResolver) Close() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
}

// PointerDown handles one pointer-down event.
func (r *FocusResolver) PointerDown(target any) {
	if r.store.EditingID() == NoFocus {
		return
	}
	for _, region := range r.regions {
		if region.Contains(target) {
			return
		}
	}
	r.store.ClearFocus()
}
