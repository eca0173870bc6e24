package indexer

import (
	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// writeNorms persists one field's per-doc length norms as a flat array
// of fixed-width F32 values, one per doc-id in [0, docCount) (glossary:
// "Field norm: per-doc, per-field scalar encoding field length for
// length-normalization"). Docs the field never touched get norm 0,
// which the similarity layer (exec's fieldNormMatcher) treats as a
// factor of 1.
func writeNorms(folder storage.Folder, field string, norms []float32) error {
	out, err := folder.OpenOut("norms-" + field + ".dat")
	if err != nil {
		return err
	}
	var buf []byte
	for _, n := range norms {
		buf = varint.PutF32(buf, n)
	}
	if _, err := out.Write(buf); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadNorms loads a field's norms array written by writeNorms.
func ReadNorms(folder storage.Folder, field string, docCount uint32) ([]float32, error) {
	name := "norms-" + field + ".dat"
	if !folder.Exists(name) {
		return make([]float32, docCount), nil // field never indexed in this segment
	}
	in, err := folder.OpenIn(name)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	out := make([]float32, docCount)
	for i := range out {
		v, err := varint.ReadF32(in)
		if err != nil {
			break
		}
		out[i] = v
	}
	return out, nil
}
