package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
)

func TestMetaRoundTrip(t *testing.T) {
	folder := storage.NewRAMFolder()
	m := Meta{
		DocMax:    10,
		DelCount:  2,
		FieldNums: map[string]ixtypes.FieldNum{"title": 1, "body": 2},
	}
	require.NoError(t, WriteMeta(folder, m))

	got, err := ReadMeta(folder)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, got.FormatVersion)
	assert.Equal(t, m.DocMax, got.DocMax)
	assert.Equal(t, m.DelCount, got.DelCount)
	assert.Equal(t, uint32(8), got.DocCount())
	assert.Equal(t, m.FieldNums, got.FieldNums)
}

func TestSegmentNameRoundTrip(t *testing.T) {
	n := ixtypes.SegmentNum(123456)
	name := Name(n)
	got, ok := ParseName(name)
	require.True(t, ok)
	assert.Equal(t, n, got)

	_, ok = ParseName("not_a_segment")
	assert.False(t, ok)
}

func TestSchemaExplicitFieldAndFreeze(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddField("title", TextField()))

	ft, ok := s.Resolve("title")
	require.True(t, ok)
	assert.True(t, ft.Indexed)

	n1 := s.FieldNum("title")
	assert.Equal(t, ixtypes.FieldNum(1), n1)
	assert.True(t, s.Frozen())

	// Same field resolves to the same number, never rebinds.
	n2 := s.FieldNum("title")
	assert.Equal(t, n1, n2)

	name, ok := s.FieldName(1)
	require.True(t, ok)
	assert.Equal(t, "title", name)
}

func TestSchemaTemplateResolution(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddTemplate("tags.*", KeywordField()))
	s.SetDefault(StoredOnlyField(ixtypes.PrimitiveText))

	ft, ok := s.Resolve("tags.color")
	require.True(t, ok)
	assert.Equal(t, ixtypes.PostingMatchOnly, ft.PostingVariant)

	ft, ok = s.Resolve("unrelated")
	require.True(t, ok)
	assert.False(t, ft.Indexed)
}

func TestSchemaUnresolvedFieldHasNoFieldNum(t *testing.T) {
	s := NewSchema()
	assert.Equal(t, ixtypes.NoField, s.FieldNum("ghost"))
}

func TestLoadSchemaDocValid(t *testing.T) {
	doc := []byte(`{
  "fields": {
    "title": {"primitive": "text", "indexed": true, "stored": true, "analyzer": "default"},
    "id": {"primitive": "i64", "indexed": true, "stored": true}
  },
  "templates": [
    {"pattern": "tags.*", "field": {"primitive": "text", "indexed": true, "analyzer": "keyword"}}
  ]
}`)
	s, err := LoadSchemaDoc(doc)
	require.NoError(t, err)

	ft, ok := s.Resolve("title")
	require.True(t, ok)
	assert.Equal(t, ixtypes.PostingRich, ft.PostingVariant)

	ft, ok = s.Resolve("tags.color")
	require.True(t, ok)
	assert.Equal(t, ixtypes.PostingMatchOnly, ft.PostingVariant)
}

func TestLoadSchemaDocInvalidMissingPrimitive(t *testing.T) {
	doc := []byte(`{"fields": {"title": {"indexed": true}}}`)
	_, err := LoadSchemaDoc(doc)
	require.Error(t, err)
}

func TestLoadSchemaDocInvalidTopLevel(t *testing.T) {
	doc := []byte(`{"nope": true}`)
	_, err := LoadSchemaDoc(doc)
	require.Error(t, err)
}
