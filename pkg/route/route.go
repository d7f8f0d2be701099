// Package route decides which storage backend holds a file, purely from its
// name. The decision must never change for a given name: a file created on
// one backend and reopened on the other reads garbage offsets.
package route

import "strings"

type Backend int

const (
	Filesystem Backend = iota
	PersistentMemory
)

func (b Backend) String() string {
	switch b {
	case Filesystem:
		return "filesystem"
	case PersistentMemory:
		return "pmem"
	default:
		return "unknown"
	}
}

// Markers that route a file to persistent memory: write-ahead logs, table
// files, manifests, the CURRENT pointer and temporary files.
const (
	LogSuffix      = ".log"
	TableSuffix    = ".ldb"
	ManifestMarker = "MANIFEST"
	CurrentMarker  = "CURRENT"
	TempSuffix     = ".dbtmp"
)

// Policy is a disjunction of substring markers. The zero value routes
// everything to the filesystem.
type Policy struct {
	markers []string
}

// Default is the policy the engine's own file names are laid out for.
var Default = New(LogSuffix, TableSuffix, ManifestMarker, CurrentMarker, TempSuffix)

func New(markers ...string) Policy {
	m := make([]string, 0, len(markers))
	for _, marker := range markers {
		if marker != "" {
			m = append(m, marker)
		}
	}
	return Policy{markers: m}
}

// Classify returns PersistentMemory if name contains any marker. Matching is
// on the full name, directory included.
func (p Policy) Classify(name string) Backend {
	for _, marker := range p.markers {
		if strings.Contains(name, marker) {
			return PersistentMemory
		}
	}
	return Filesystem
}

func (p Policy) Markers() []string {
	return append([]string(nil), p.markers...)
}
