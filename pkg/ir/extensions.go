package ir

// Host metadata lives under a single namespace in Token.Extensions.
const ExtensionNamespace = "com.figma"

// Keys inside the host namespace.
const (
	// ExtCollectionName records the collection name the host knows the
	// token by. A disagreement with Path[0] blocks materialization.
	ExtCollectionName = "collectionName"
	// ExtModeName names the mode of a single-context document entry.
	ExtModeName = "modeName"
	// ExtType carries a host type hint; "boolean" enables the
	// "true"/"false" string escape hatch.
	ExtType = "type"
	// ExtModes holds one metadata block per mode name.
	ExtModes = "modes"
)

// HostExtensions returns the host namespace block, or nil.
func (t *Token) HostExtensions() map[string]any {
	if t.Extensions == nil {
		return nil
	}
	m, _ := t.Extensions[ExtensionNamespace].(map[string]any)
	return m
}

// HostString returns a string field from the host namespace.
func (t *Token) HostString(key string) (string, bool) {
	s, ok := t.HostExtensions()[key].(string)
	return s, ok
}

// SetHost stores a field in the host namespace, creating it as needed.
func (t *Token) SetHost(key string, v any) {
	if t.Extensions == nil {
		t.Extensions = make(map[string]any)
	}
	m := t.HostExtensions()
	if m == nil {
		m = make(map[string]any)
		t.Extensions[ExtensionNamespace] = m
	}
	m[key] = v
}

// HasBooleanHint reports whether host metadata marks the token as boolean.
func (t *Token) HasBooleanHint() bool {
	s, _ := t.HostString(ExtType)
	return s == string(TypeBoolean)
}

// DisplayCollection returns the host-recorded collection name when present,
// otherwise the path-derived one.
func (t *Token) DisplayCollection() string {
	if s, ok := t.HostString(ExtCollectionName); ok && s != "" {
		return s
	}
	return t.Collection()
}
