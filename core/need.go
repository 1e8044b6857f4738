package core

import "divstats/dataset"

// Object is the dataset descriptor surface the engine consumes. Both the
// in-memory dataset.Dataset and the persistent storage.Store satisfy it.
type Object interface {
	Kind() dataset.Kind
	Columns() []dataset.ColumnSpec
	Attr(name dataset.Attr) (any, bool)
	SetAttrs(attrs map[dataset.Attr]any)
	Cursor() dataset.Cursor
	Deferred() bool
}

// need is the plan of one invocation: the attributes that must be
// computed.
type need map[dataset.Attr]bool

// plan decides what to compute: attributes required for the object's
// kind, implemented by this engine, and not already present. An object
// with a pending deferred transform fails fast, before any distributed
// work.
func plan(obj Object, caps *Capabilities) (need, error) {
	if obj.Deferred() {
		return nil, &PreconditionError{
			Reason: "dataset has an unresolved deferred transform, resolve it first",
		}
	}
	nd := make(need)
	for _, attr := range caps.Required(obj.Kind()) {
		if !caps.Implemented(attr) {
			continue
		}
		target := attr
		if attr == dataset.AttrKeyHashes {
			// hashes derive from keys, so a missing hash list schedules
			// the keys pass instead
			target = dataset.AttrKeys
		}
		if _, ok := obj.Attr(attr); ok {
			continue
		}
		nd[target] = true
	}
	return nd, nil
}
