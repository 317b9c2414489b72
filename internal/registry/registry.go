// Package registry maintains the declared file types and the directed
// conversion graph between them.
//
// Types are interned: declaring a name twice returns the same [FileType]
// value, so type identity can be compared by pointer throughout the spooler.
// Conversions are edges keyed by an ordered (from, to) pair; redeclaring a
// pair replaces the command while keeping the edge's original position, so
// path search stays deterministic across redeclarations.
//
// Key types:
//   - [FileType] - An interned, immutable file type
//   - [Conversion] - A directed edge carrying the converter argv
//   - [Registry] - The type table plus the adjacency structure
//
// [Registry.FindPath] performs a breadth-first search and returns the
// fewest-stage conversion sequence, with ties broken by edge insertion order.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownType is returned when a referenced file type was never declared.
var ErrUnknownType = errors.New("unknown file type")

// ErrEmptyName is returned when a type is declared with an empty name.
var ErrEmptyName = errors.New("empty type name")

// ErrEmptyCommand is returned when a conversion is declared without an argv.
var ErrEmptyCommand = errors.New("empty conversion command")

// FileType is a declared file type. Values are interned by [Registry], so
// two FileType pointers are equal iff they name the same type.
type FileType struct {
	// Name identifies the type; it doubles as the filename extension used
	// by [Registry.InferType].
	Name string
}

// Conversion is a directed edge in the conversion graph. Argv is the
// converter program invocation: argv[0] is the program (PATH search
// applies), the rest are its arguments. The converter reads the source
// format on stdin and writes the target format to stdout.
type Conversion struct {
	From *FileType
	To   *FileType
	Argv []string
}

// Program returns the converter program name without its directory prefix.
func (c *Conversion) Program() string {
	return filepath.Base(c.Argv[0])
}

// Registry holds the declared types and conversions.
//
// It is not safe for concurrent use; all spooler state is mutated from the
// shell goroutine only.
type Registry struct {
	log   *zap.Logger
	types map[string]*FileType
	order []*FileType

	// edges is the adjacency list, keyed by source type name. Edge slices
	// preserve declaration order, which FindPath relies on for
	// deterministic tie-breaking.
	edges map[string][]*Conversion
}

// New creates an empty Registry. A nil logger is replaced with a no-op one.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:   log.Named("registry"),
		types: make(map[string]*FileType),
		edges: make(map[string][]*Conversion),
	}
}

// DefineType declares a file type. Declaring an existing name is a no-op
// that returns the original interned value.
func (r *Registry) DefineType(name string) (*FileType, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	t := &FileType{Name: name}
	r.types[name] = t
	r.order = append(r.order, t)
	r.log.Debug("type defined", zap.String("type", name))
	return t, nil
}

// Type looks up a declared type by name.
func (r *Registry) Type(name string) (*FileType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns all declared types in declaration order.
func (r *Registry) Types() []*FileType {
	return r.order
}

// InferType determines the file type of path from its extension, the
// text after the final dot. The extension must match a declared type.
func (r *Registry) InferType(path string) (*FileType, error) {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 || dot == len(path)-1 {
		return nil, fmt.Errorf("%q has no extension: %w", path, ErrUnknownType)
	}
	ext := path[dot+1:]
	t, ok := r.types[ext]
	if !ok {
		return nil, fmt.Errorf("%q: %w", ext, ErrUnknownType)
	}
	return t, nil
}

// DefineConversion declares a conversion edge from one declared type to
// another. Redeclaring an existing (from, to) pair replaces its command in
// place: the last declaration wins, but the edge keeps its original
// position in the adjacency list.
func (r *Registry) DefineConversion(fromName, toName string, argv []string) (*Conversion, error) {
	from, ok := r.types[fromName]
	if !ok {
		return nil, fmt.Errorf("%q: %w", fromName, ErrUnknownType)
	}
	to, ok := r.types[toName]
	if !ok {
		return nil, fmt.Errorf("%q: %w", toName, ErrUnknownType)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	for _, c := range r.edges[from.Name] {
		if c.To == to {
			c.Argv = append([]string(nil), argv...)
			r.log.Debug("conversion replaced",
				zap.String("from", fromName), zap.String("to", toName),
				zap.Strings("argv", argv))
			return c, nil
		}
	}

	c := &Conversion{From: from, To: to, Argv: append([]string(nil), argv...)}
	r.edges[from.Name] = append(r.edges[from.Name], c)
	r.log.Debug("conversion defined",
		zap.String("from", fromName), zap.String("to", toName),
		zap.Strings("argv", argv))
	return c, nil
}

// FindPath returns the shortest conversion sequence from one type to
// another, or nil if no sequence exists. The result is empty (but non-nil)
// iff from == to. Among equally short paths the one whose edges were
// declared earliest wins, so repeated searches are reproducible.
//
// The returned slice is a fresh value owned by the caller; the Conversion
// elements it references stay owned by the registry.
func (r *Registry) FindPath(from, to *FileType) []*Conversion {
	if from == nil || to == nil {
		return nil
	}
	if from == to {
		return []*Conversion{}
	}

	// Standard BFS over type names. prev records the edge that first
	// reached each type, which is enough to rebuild the path.
	prev := map[string]*Conversion{from.Name: nil}
	queue := []*FileType{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, edge := range r.edges[cur.Name] {
			if _, seen := prev[edge.To.Name]; seen {
				continue
			}
			prev[edge.To.Name] = edge
			if edge.To == to {
				return r.rebuild(prev, to)
			}
			queue = append(queue, edge.To)
		}
	}
	return nil
}

// Reachable reports whether some conversion sequence leads from one type
// to another. A type is always reachable from itself.
func (r *Registry) Reachable(from, to *FileType) bool {
	return r.FindPath(from, to) != nil
}

func (r *Registry) rebuild(prev map[string]*Conversion, to *FileType) []*Conversion {
	var path []*Conversion
	for edge := prev[to.Name]; edge != nil; edge = prev[edge.From.Name] {
		path = append(path, edge)
	}
	// Reverse in place; BFS walked back from the target.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
