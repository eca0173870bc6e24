// Package lexicon implements the sorted per-field term dictionary (spec
// 4.3): a primary .dat stream of prefix-compressed term deltas, a sparse
// .ix stream holding every Nth term verbatim with its .dat offset (a key
// frame), and a fixed-width .ixix stream of pointers into .ix for binary
// search. Grounded on the teacher's layered low-level-codec convention
// (internal/idcodec, internal/encoding): this package is the typed
// caller built on package varint's no-dependency primitives.
package lexicon

import (
	"io"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/varint"
)

// TermInfo is the per-term payload stored alongside the sorted key.
type TermInfo struct {
	DocFreq        uint32
	PostingsOffset int64
	SkipOffset     int64
}

func putTermInfo(dst []byte, ti TermInfo) []byte {
	dst = varint.PutC32(dst, ti.DocFreq)
	dst = varint.PutC64(dst, uint64(ti.PostingsOffset))
	dst = varint.PutC64(dst, uint64(ti.SkipOffset))
	return dst
}

func readTermInfo(br io.ByteReader) (TermInfo, error) {
	df, err := varint.ReadC32(br)
	if err != nil {
		return TermInfo{}, err
	}
	po, err := varint.ReadC64(br)
	if err != nil {
		return TermInfo{}, err
	}
	so, err := varint.ReadC64(br)
	if err != nil {
		return TermInfo{}, err
	}
	return TermInfo{DocFreq: df, PostingsOffset: int64(po), SkipOffset: int64(so)}, nil
}

// DefaultIndexInterval is how often a key frame is written to .ix.
const DefaultIndexInterval = 32

func datName(field string) string  { return "lexicon-" + field + ".dat" }
func ixName(field string) string   { return "lexicon-" + field + ".ix" }
func ixixName(field string) string { return "lexicon-" + field + ".ixix" }

func errDecode(op string, err error) error {
	return ixerrors.WrapKind(ixerrors.KindDecodeError, op, err)
}

var errMissingStream = ixerrors.New(ixerrors.KindInternal, "lexicon writer stream not open")
