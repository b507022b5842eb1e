package schema

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vk/modelkit/internal/typeref"
)

// schemaCacheSize bounds the pure function cache. Type structure is
// immutable for the process lifetime, so eviction only costs re-analysis.
const schemaCacheSize = 512

// baseInterfaces is the whitelisted set of supertypes every managed type
// may extend without the supertype itself being declared.
var baseInterfaces = map[string]struct{}{
	"ModelElement": {},
	"Named":        {},
}

// Store produces and caches structural schemas for declared types.
type Store struct {
	mu    sync.RWMutex
	decls map[string]*ManagedType
	cache *lru.Cache[string, result]
}

type result struct {
	schema *Schema
	err    *InvalidManagedTypeError
}

// NewStore creates an empty schema store.
func NewStore() *Store {
	cache, err := lru.New[string, result](schemaCacheSize)
	if err != nil {
		// lru.New fails only for a non-positive size.
		panic(err)
	}
	return &Store{
		decls: make(map[string]*ManagedType),
		cache: cache,
	}
}

// Register adds a managed type declaration to the store.
func (s *Store) Register(decl *ManagedType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decls[decl.Name()]; exists {
		return fmt.Errorf("managed type %q is already declared", decl.Name())
	}
	s.decls[decl.Name()] = decl
	return nil
}

// MustRegister registers a declaration known not to collide.
func (s *Store) MustRegister(decl *ManagedType) {
	if err := s.Register(decl); err != nil {
		panic(err)
	}
}

// Declaration returns the named managed type declaration, or nil.
func (s *Store) Declaration(name string) *ManagedType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decls[name]
}

// SchemaFor classifies the type reference and validates it recursively. The
// returned error, when non-nil, is always an *InvalidManagedTypeError
// carrying the dependency trail to the offending type.
func (s *Store) SchemaFor(ref typeref.Ref) (*Schema, error) {
	key := ref.String()
	if cached, ok := s.cache.Get(key); ok {
		if cached.err != nil {
			return nil, cached.err
		}
		return cached.schema, nil
	}

	trail := []TrailEntry{{Type: ref.String()}}
	schema, err := s.analyze(ref, trail)
	if err != nil {
		s.cache.Add(key, result{err: err})
		return nil, err
	}
	s.cache.Add(key, result{schema: schema})
	return schema, nil
}

// analyze performs one depth-first step. The trail always ends with the
// type currently under analysis; it doubles as the cycle-detection stack.
func (s *Store) analyze(ref typeref.Ref, trail []TrailEntry) (*Schema, *InvalidManagedTypeError) {
	switch ref.Kind() {
	case typeref.Primitive, typeref.Variable:
		return &Schema{Kind: ValueKind, Type: ref}, nil

	case typeref.List, typeref.Set, typeref.Map:
		elem, err := s.analyze(ref.Elem(), appendTrail(trail, TrailEntry{Property: "<element>", Type: ref.Elem().String()}))
		if err != nil {
			return nil, err
		}
		return &Schema{Kind: CollectionKind, Type: ref, Element: elem}, nil

	case typeref.Named:
		return s.analyzeManaged(ref, trail)

	default:
		return nil, &InvalidManagedTypeError{Reason: "the void type has no schema", Trail: trail}
	}
}

func (s *Store) analyzeManaged(ref typeref.Ref, trail []TrailEntry) (*Schema, *InvalidManagedTypeError) {
	if ref.IsParameterized() {
		return nil, &InvalidManagedTypeError{
			Reason: "type parameters are not supported for managed types",
			Trail:  trail,
		}
	}

	// A managed type appearing twice on the trail is a property cycle, not
	// grounds for infinite recursion.
	for _, entry := range trail[:len(trail)-1] {
		if entry.Type == ref.Name() {
			return nil, &InvalidManagedTypeError{
				Reason: "managed type dependency cycle",
				Trail:  trail,
			}
		}
	}

	decl := s.Declaration(ref.Name())
	if decl == nil {
		return nil, &InvalidManagedTypeError{
			Reason: "it is not an interface or abstract type declared in the schema store",
			Trail:  trail,
		}
	}
	if len(decl.TypeParams()) > 0 {
		return nil, &InvalidManagedTypeError{
			Reason: "type parameters are not supported for managed types",
			Trail:  trail,
		}
	}

	var properties []PropertySchema

	for _, super := range decl.Supertypes() {
		if _, whitelisted := baseInterfaces[super]; whitelisted {
			continue
		}
		superRef := typeref.NamedType(super)
		superSchema, err := s.analyze(superRef, appendTrail(trail, TrailEntry{Supertype: true, Type: super}))
		if err != nil {
			return nil, err
		}
		properties = append(properties, superSchema.Properties...)
	}

	for _, prop := range decl.Properties() {
		propSchema, err := s.analyze(prop.Type, appendTrail(trail, TrailEntry{Property: prop.Name, Type: prop.Type.String()}))
		if err != nil {
			return nil, err
		}
		properties = append(properties, PropertySchema{Name: prop.Name, Type: prop.Type, Schema: propSchema})
	}

	return &Schema{Kind: ManagedKind, Type: ref, Properties: properties}, nil
}

// appendTrail extends the trail without aliasing the caller's backing array.
func appendTrail(trail []TrailEntry, entry TrailEntry) []TrailEntry {
	out := make([]TrailEntry, 0, len(trail)+1)
	out = append(out, trail...)
	return append(out, entry)
}
