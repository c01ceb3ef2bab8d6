package apigraph

import "strings"

// IsDunder reports whether name has the form __x__.
func IsDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// IsPrivateName applies the naming convention: a leading underscore makes a name
// private unless it is a dunder name.
func IsPrivateName(name string) bool {
	if IsDunder(name) {
		return false
	}
	return strings.HasPrefix(name, "_")
}

// VisibilityOf computes the visibility of a name given its container's visibility and
// the container's export list. exports is nil when the container declares no __all__.
func VisibilityOf(name string, parent Visibility, exports map[string]bool) Visibility {
	if parent == Private {
		return Private
	}
	if exports != nil {
		if exports[name] {
			return Public
		}
		return Private
	}
	if IsPrivateName(name) {
		return Private
	}
	return Public
}

// machineryAttributes are assigned by users but belong to the interpreter's object model.
var machineryAttributes = map[string]bool{
	"__all__":              true,
	"__slots__":            true,
	"__doc__":              true,
	"__module__":           true,
	"__qualname__":         true,
	"__dict__":             true,
	"__weakref__":          true,
	"__annotations__":      true,
	"__match_args__":       true,
	"__path__":             true,
	"__file__":             true,
	"__name__":             true,
	"__package__":          true,
	"__spec__":             true,
	"__loader__":           true,
	"__builtins__":         true,
	"__dataclass_fields__": true,
	"__dataclass_params__": true,
	"__orig_bases__":       true,
	"__parameters__":       true,
}

// IsMachineryAttribute reports whether an attribute name is interpreter machinery rather
// than user-declared interface.
func IsMachineryAttribute(name string) bool {
	return machineryAttributes[name]
}

// Join builds a qualified name.
func Join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// ParentOf returns the qualified name of the container of qname.
func ParentOf(qname string) string {
	if i := strings.LastIndexByte(qname, '.'); i >= 0 {
		return qname[:i]
	}
	return ""
}
