package segment

import (
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
)

// fieldTemplate maps a glob pattern over field names to a FieldType
// preset, resolved in registration order (first match wins). This is
// the dynamic-mapping layer SPEC_FULL 3 adds on top of spec.md's static
// field list.
type fieldTemplate struct {
	pattern string
	ft      FieldType
}

// Schema is the ordered set of field specifications a segment is
// written against. A Schema is frozen the first time it backs a written
// segment: explicit fields and templates may still resolve new field
// numbers for previously unseen names, but existing bindings never
// rebind (spec 3: "a field number, once assigned, never rebinds").
type Schema struct {
	mu sync.Mutex

	explicit  map[string]FieldType
	templates []fieldTemplate
	defaultFT *FieldType

	fieldNums map[string]ixtypes.FieldNum
	names     []string // index i holds the name bound to FieldNum(i+1)
	next      ixtypes.FieldNum

	frozen bool
}

// NewSchema returns an empty, unfrozen Schema.
func NewSchema() *Schema {
	return &Schema{
		explicit:  make(map[string]FieldType),
		fieldNums: make(map[string]ixtypes.FieldNum),
		next:      1,
	}
}

// AddField registers an explicit field. Panics-free: returns an error if
// the schema is already frozen and name was not previously registered.
func (s *Schema) AddField(name string, ft FieldType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.explicit[name]; !exists && s.frozen {
		return ixerrors.Newf(ixerrors.KindInvalidSchema, "cannot add field %q: schema is frozen", name)
	}
	s.explicit[name] = ft
	return nil
}

// AddTemplate registers a glob pattern → FieldType mapping, tried in
// registration order against names with no explicit entry.
func (s *Schema) AddTemplate(pattern string, ft FieldType) error {
	if _, err := doublestar.Match(pattern, "probe"); err != nil {
		return ixerrors.WrapKind(ixerrors.KindBadArgument, "AddTemplate", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, fieldTemplate{pattern: pattern, ft: ft})
	return nil
}

// SetDefault configures the FieldType used for names matching neither an
// explicit field nor a template.
func (s *Schema) SetDefault(ft FieldType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := ft
	s.defaultFT = &cp
}

// Resolve returns the FieldType a field name should use, checking
// explicit fields first, then templates in order, then the configured
// default. ok is false if no explicit field, template, or default
// applies.
func (s *Schema) Resolve(name string) (FieldType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(name)
}

func (s *Schema) resolveLocked(name string) (FieldType, bool) {
	if ft, ok := s.explicit[name]; ok {
		return ft, true
	}
	for _, t := range s.templates {
		if matched, _ := doublestar.Match(t.pattern, name); matched {
			return t.ft, true
		}
	}
	if s.defaultFT != nil {
		return *s.defaultFT, true
	}
	return FieldType{}, false
}

// FieldNum returns the field number bound to name, assigning and
// permanently binding a new one (via resolveLocked) on first use. It
// returns ixtypes.NoField if name resolves to no FieldType at all.
func (s *Schema) FieldNum(name string) ixtypes.FieldNum {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.fieldNums[name]; ok {
		return n
	}
	if _, ok := s.resolveLocked(name); !ok {
		return ixtypes.NoField
	}
	n := s.next
	s.next++
	s.fieldNums[name] = n
	s.names = append(s.names, name)
	s.frozen = true
	return n
}

// FieldName reverse-looks-up a previously bound field number, per a
// segment's segmeta.json field-number→name mapping.
func (s *Schema) FieldName(n ixtypes.FieldNum) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == ixtypes.NoField || int(n) > len(s.names) {
		return "", false
	}
	return s.names[n-1], true
}

// Frozen reports whether any field number has been bound yet.
func (s *Schema) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// FieldNumTable snapshots the current name→number bindings, for
// embedding into segmeta.json.
func (s *Schema) FieldNumTable() map[string]ixtypes.FieldNum {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]ixtypes.FieldNum, len(s.fieldNums))
	for k, v := range s.fieldNums {
		out[k] = v
	}
	return out
}
