package segment

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
)

// schemaDocSchema is the meta-schema a user-supplied schema-definition
// document must satisfy before ixo builds FieldTypes from it (spec_full
// 3: "Schema validation"): a "fields" object mapping field name to a
// type descriptor, and an optional "templates" array of glob→descriptor
// pairs.
var schemaDocSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"fields": {
			Type:                 "object",
			AdditionalProperties: fieldDescriptorSchema,
		},
		"templates": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{
					"pattern": {Type: "string"},
					"field":   fieldDescriptorSchema,
				},
				Required: []string{"pattern", "field"},
			},
		},
	},
	Required: []string{"fields"},
}

var fieldDescriptorSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"primitive": {
			Type: "string",
			Enum: []any{"text", "blob", "i32", "i64", "f32", "f64"},
		},
		"indexed":       {Type: "boolean"},
		"stored":        {Type: "boolean"},
		"highlightable": {Type: "boolean"},
		"analyzer":      {Type: "string"},
		"similarity":    {Type: "string"},
	},
	Required: []string{"primitive"},
}

type fieldDescriptor struct {
	Primitive     string `json:"primitive"`
	Indexed       bool   `json:"indexed"`
	Stored        bool   `json:"stored"`
	Highlightable bool   `json:"highlightable"`
	Analyzer      string `json:"analyzer"`
	Similarity    string `json:"similarity"`
}

type templateDoc struct {
	Pattern string          `json:"pattern"`
	Field   fieldDescriptor `json:"field"`
}

type schemaDoc struct {
	Fields    map[string]fieldDescriptor `json:"fields"`
	Templates []templateDoc              `json:"templates"`
}

func primitiveFromString(s string) (ixtypes.Primitive, error) {
	switch s {
	case "text":
		return ixtypes.PrimitiveText, nil
	case "blob":
		return ixtypes.PrimitiveBlob, nil
	case "i32":
		return ixtypes.PrimitiveInt32, nil
	case "i64":
		return ixtypes.PrimitiveInt64, nil
	case "f32":
		return ixtypes.PrimitiveFloat32, nil
	case "f64":
		return ixtypes.PrimitiveFloat64, nil
	default:
		return 0, ixerrors.Newf(ixerrors.KindInvalidSchema, "unknown primitive %q", s)
	}
}

func fieldTypeFromDescriptor(d fieldDescriptor) (FieldType, error) {
	p, err := primitiveFromString(d.Primitive)
	if err != nil {
		return FieldType{}, err
	}
	ft := FieldType{
		Primitive:     p,
		Indexed:       d.Indexed,
		Stored:        d.Stored,
		Highlightable: d.Highlightable,
		Analyzer:      d.Analyzer,
		Similarity:    d.Similarity,
	}
	switch {
	case !d.Indexed || d.Analyzer == "keyword":
		ft.PostingVariant = ixtypes.PostingMatchOnly
	case p == ixtypes.PrimitiveText && d.Analyzer != "":
		ft.PostingVariant = ixtypes.PostingRich
	default:
		ft.PostingVariant = ixtypes.PostingScoreOnly
	}
	return ft, nil
}

// LoadSchemaDoc validates data against the embedded schema-definition
// meta-schema via jsonschema-go, then builds a *Schema from it. A
// validation failure returns ixerrors.InvalidSchema carrying the
// validator's detail (spec_full 3).
func LoadSchemaDoc(data []byte) (*Schema, error) {
	resolved, err := schemaDocSchema.Resolve(nil)
	if err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindInternal, "segment.LoadSchemaDoc: resolve meta-schema", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindDecodeError, "segment.LoadSchemaDoc", err)
	}
	if err := resolved.Validate(raw); err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindInvalidSchema, "segment.LoadSchemaDoc", err)
	}

	var doc schemaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindDecodeError, "segment.LoadSchemaDoc", err)
	}

	s := NewSchema()
	for name, d := range doc.Fields {
		ft, err := fieldTypeFromDescriptor(d)
		if err != nil {
			return nil, err
		}
		if err := s.AddField(name, ft); err != nil {
			return nil, err
		}
	}
	for _, t := range doc.Templates {
		ft, err := fieldTypeFromDescriptor(t.Field)
		if err != nil {
			return nil, err
		}
		if err := s.AddTemplate(t.Pattern, ft); err != nil {
			return nil, err
		}
	}
	return s, nil
}
