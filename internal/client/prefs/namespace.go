package prefs

// Namespace partitions preference keys: a user identity or Global.
type Namespace struct {
	identity string
}

// Global is the device-wide namespace.
var Global = Namespace{}

// User returns the namespace of identity. An empty identity is Global.
func User(identity string) Namespace {
	return Namespace{identity: identity}
}

// IsGlobal reports whether ns is the Global namespace.
func (ns Namespace) IsGlobal() bool { return ns.identity == "" }

// Identity returns the user identity, or "" for Global.
func (ns Namespace) Identity() string { return ns.identity }

func (ns Namespace) String() string {
	if ns.IsGlobal() {
		return "GLOBAL"
	}
	return ns.identity
}

// storageKey is the namespace column value. Identities are never empty,
// so "" cannot collide with a user.
func (ns Namespace) storageKey() string { return ns.identity }
