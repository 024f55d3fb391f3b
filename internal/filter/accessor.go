package filter

import (
	"strings"
	"sync"
)

// Source is anything the engine can read field values from. Entities
// backed by dynamic property bags implement it directly; hosts with typed
// structs can register accessors instead (see RegisterAccessors).
type Source interface {
	// TypeName identifies the item's type for accessor caching.
	TypeName() string
	// FieldValue reads a field by name, case-insensitively. The second
	// return value is false when the item carries no such field.
	FieldValue(name string) (any, bool)
}

// Accessor reads one field from an item.
type Accessor func(Source) (any, bool)

var (
	// accessorCache memoizes resolved accessors per (type, field) pair.
	// Entries are immutable once inserted, so concurrent evaluations only
	// ever race on identical values.
	accessorCache sync.Map // "<type>\x00<lower(field)>" -> Accessor

	// registeredAccessors holds host-supplied typed getters.
	registeredAccessors sync.Map // same key -> Accessor
)

func accessorKey(typeName, field string) string {
	return typeName + "\x00" + strings.ToLower(field)
}

// RegisterAccessors installs typed getters for a host type, replacing the
// generic FieldValue lookup for the named fields. Registration is expected
// once per type at startup; later registrations for already-resolved
// fields are ignored by live caches.
func RegisterAccessors(typeName string, accessors map[string]Accessor) {
	for field, accessor := range accessors {
		if accessor == nil {
			continue
		}
		registeredAccessors.Store(accessorKey(typeName, field), accessor)
	}
}

// lookupAccessor resolves the accessor for a (type, field) pair, preferring
// a registered typed getter and falling back to the item's own FieldValue.
func lookupAccessor(typeName, field string) Accessor {
	key := accessorKey(typeName, field)
	if cached, ok := accessorCache.Load(key); ok {
		return cached.(Accessor)
	}

	var accessor Accessor
	if registered, ok := registeredAccessors.Load(key); ok {
		accessor = registered.(Accessor)
	} else {
		name := field
		accessor = func(item Source) (any, bool) {
			return item.FieldValue(name)
		}
	}

	actual, _ := accessorCache.LoadOrStore(key, accessor)
	return actual.(Accessor)
}
