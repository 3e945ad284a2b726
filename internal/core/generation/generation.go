// Package generation owns cache partition naming. A partition name
// encodes its scope namespace, resource class and version tag, so
// activation can tell current partitions from retired ones by name
// alone.
package generation

import "strings"

// Partition classes. One partition exists per class per scope per
// version.
const (
	ClassStatic  = "static"
	ClassRuntime = "runtime"
	ClassImages  = "images"
	ClassAPI     = "api"
)

// Classes lists every partition class in a generation.
var Classes = []string{ClassStatic, ClassRuntime, ClassImages, ClassAPI}

// Parsed is a partition name split into its parts.
type Parsed struct {
	Namespace string
	Class     string
	Version   string
}

// Name builds a partition name: <namespace>-<class>-<version>.
func Name(namespace, class, version string) string {
	return namespace + "-" + class + "-" + version
}

// Parse splits a partition name. Namespaces may themselves contain
// hyphens, so class and version are taken from the right.
func Parse(name string) (Parsed, bool) {
	i := strings.LastIndex(name, "-")
	if i <= 0 {
		return Parsed{}, false
	}
	version := name[i+1:]
	rest := name[:i]

	j := strings.LastIndex(rest, "-")
	if j <= 0 {
		return Parsed{}, false
	}
	class := rest[j+1:]
	namespace := rest[:j]

	if version == "" || class == "" || namespace == "" {
		return Parsed{}, false
	}
	return Parsed{Namespace: namespace, Class: class, Version: version}, true
}

// IsStale reports whether a partition belongs to the given namespace
// but carries a version tag other than current. Partitions from other
// namespaces are never stale from this scope's point of view.
func IsStale(name, namespace, currentVersion string) bool {
	p, ok := Parse(name)
	if !ok {
		return false
	}
	return p.Namespace == namespace && p.Version != currentVersion
}

// Current returns the full set of partition names for a namespace at
// the given version.
func Current(namespace, version string) []string {
	names := make([]string, 0, len(Classes))
	for _, class := range Classes {
		names = append(names, Name(namespace, class, version))
	}
	return names
}
