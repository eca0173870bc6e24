package lexicon

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/standardbeagle/ixo/internal/storage"
	"github.com/standardbeagle/ixo/internal/varint"
)

// Reader resolves terms to TermInfo by binary-searching the sparse .ix
// index via .ixix, then sequentially scanning .dat from the matched
// anchor (spec 4.3).
type Reader struct {
	datIn   storage.InStream
	ixIn    storage.InStream
	ixixIn  storage.InStream
	keyFrameCount int
}

// OpenField opens a field's three lexicon streams for reading, verifying
// and stripping each one's trailing xxhash64 checksum footer (spec_full
// 4.1).
func OpenField(folder storage.Folder, field string) (*Reader, error) {
	rawDat, err := folder.OpenIn(datName(field))
	if err != nil {
		return nil, err
	}
	datIn, err := storage.OpenChecksummedIn(rawDat)
	if err != nil {
		return nil, err
	}
	rawIx, err := folder.OpenIn(ixName(field))
	if err != nil {
		return nil, err
	}
	ixIn, err := storage.OpenChecksummedIn(rawIx)
	if err != nil {
		return nil, err
	}
	rawIxix, err := folder.OpenIn(ixixName(field))
	if err != nil {
		return nil, err
	}
	ixixIn, err := storage.OpenChecksummedIn(rawIxix)
	if err != nil {
		return nil, err
	}
	return &Reader{
		datIn:         datIn,
		ixIn:          ixIn,
		ixixIn:        ixixIn,
		keyFrameCount: int(ixixIn.Length() / 8),
	}, nil
}

func (r *Reader) Close() error {
	r.datIn.Close()
	r.ixIn.Close()
	return r.ixixIn.Close()
}

type keyFrame struct {
	term      string
	info      TermInfo
	datOffset int64
}

func (r *Reader) readIxixPointer(i int) (int64, error) {
	if err := r.ixixIn.Seek(int64(i) * 8); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(r.ixixIn, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func (r *Reader) readKeyFrameAt(ixOffset int64) (keyFrame, error) {
	if err := r.ixIn.Seek(ixOffset); err != nil {
		return keyFrame{}, err
	}
	br := bufio.NewReader(r.ixIn)
	term, err := varint.ReadString(br, br)
	if err != nil {
		return keyFrame{}, err
	}
	info, err := readTermInfo(br)
	if err != nil {
		return keyFrame{}, err
	}
	datOffset, err := varint.ReadC64(br)
	if err != nil {
		return keyFrame{}, err
	}
	return keyFrame{term: term, info: info, datOffset: int64(datOffset)}, nil
}

// Find binary-searches for the greatest key frame whose term is <=
// target, then sequentially scans .dat from there. It returns
// (info, true, nil) on an exact match, (TermInfo{}, false, nil) if the
// term is absent, or a non-nil error on I/O/decode failure.
func (r *Reader) Find(target string) (TermInfo, bool, error) {
	kf, ok, err := r.floorKeyFrame(target)
	if err != nil {
		return TermInfo{}, false, err
	}
	if !ok {
		return r.scanFrom(0, "", target)
	}
	if kf.term == target {
		return kf.info, true, nil
	}
	return r.scanFrom(kf.datOffset, kf.term, target)
}

// floorKeyFrame binary-searches the .ixix/.ix key frame index for the
// greatest key frame whose term is <= target, returning ok=false if no
// key frame qualifies (target sorts before every indexed term, or the
// field has none).
func (r *Reader) floorKeyFrame(target string) (keyFrame, bool, error) {
	if r.keyFrameCount == 0 {
		return keyFrame{}, false, nil
	}
	lo, hi := 0, r.keyFrameCount-1
	bestIdx := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		ixOff, err := r.readIxixPointer(mid)
		if err != nil {
			return keyFrame{}, false, err
		}
		kf, err := r.readKeyFrameAt(ixOff)
		if err != nil {
			return keyFrame{}, false, err
		}
		if lexLess(kf.term, target) || kf.term == target {
			bestIdx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if bestIdx < 0 {
		return keyFrame{}, false, nil
	}
	ixOff, err := r.readIxixPointer(bestIdx)
	if err != nil {
		return keyFrame{}, false, err
	}
	kf, err := r.readKeyFrameAt(ixOff)
	if err != nil {
		return keyFrame{}, false, err
	}
	return kf, true, nil
}

// TermHit pairs a lexicon term with its posting metadata, returned by
// Range for each term falling within the queried bounds.
type TermHit struct {
	Term string
	Info TermInfo
}

// Range returns every term in [lower, upper] (an empty bound is open),
// honoring includeLower/includeUpper, for a RangeQuery (spec 4.8). It
// binary-searches the key frame index for the scan's start position the
// same way Find does, then sequentially decodes the prefix-compressed
// .dat stream until a term sorts past upper.
func (r *Reader) Range(lower, upper string, includeLower, includeUpper bool) ([]TermHit, error) {
	datOffset, prevTerm := int64(0), ""
	if lower != "" {
		if kf, ok, err := r.floorKeyFrame(lower); err != nil {
			return nil, err
		} else if ok {
			datOffset, prevTerm = kf.datOffset, kf.term
		}
	}
	if err := r.datIn.Seek(datOffset); err != nil {
		return nil, err
	}
	br := bufio.NewReader(r.datIn)
	prev := prevTerm
	var out []TermHit
	for {
		common, err := varint.ReadC32(br)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		suffix, err := varint.ReadString(br, br)
		if err != nil {
			return nil, err
		}
		info, err := readTermInfo(br)
		if err != nil {
			return nil, err
		}
		term := prev[:common] + suffix
		prev = term

		if lower != "" {
			if lexLess(term, lower) {
				continue
			}
			if term == lower && !includeLower {
				continue
			}
		}
		if upper != "" {
			if lexLess(upper, term) {
				return out, nil
			}
			if term == upper && !includeUpper {
				return out, nil
			}
		}
		out = append(out, TermHit{Term: term, Info: info})
	}
}

// scanFrom sequentially decodes prefix-compressed terms starting at
// datOffset (where prevTerm supplies the first decoded entry's shared
// prefix: "" from offset 0, or the key-frame term when starting at that
// term's own entry), stopping once the decoded term is >= target.
func (r *Reader) scanFrom(datOffset int64, prevTerm, target string) (TermInfo, bool, error) {
	if err := r.datIn.Seek(datOffset); err != nil {
		return TermInfo{}, false, err
	}
	br := bufio.NewReader(r.datIn)
	prev := prevTerm
	for {
		common, err := varint.ReadC32(br)
		if err == io.EOF {
			return TermInfo{}, false, nil
		}
		if err != nil {
			return TermInfo{}, false, err
		}
		suffix, err := varint.ReadString(br, br)
		if err != nil {
			return TermInfo{}, false, err
		}
		info, err := readTermInfo(br)
		if err != nil {
			return TermInfo{}, false, err
		}
		term := prev[:common] + suffix
		switch {
		case term == target:
			return info, true, nil
		case lexLess(target, term):
			return TermInfo{}, false, nil
		}
		prev = term
	}
}

// Terms returns every term in the field's lexicon in ascending order, by
// sequentially decoding the whole .dat stream from the start. Used by
// fuzzy query expansion (spec_full 4.8), which has no cheaper way to
// enumerate candidate terms since Find only supports point lookups.
func (r *Reader) Terms() ([]string, error) {
	if err := r.datIn.Seek(0); err != nil {
		return nil, err
	}
	br := bufio.NewReader(r.datIn)
	var out []string
	var prev string
	for {
		common, err := varint.ReadC32(br)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		suffix, err := varint.ReadString(br, br)
		if err != nil {
			return nil, err
		}
		if _, err := readTermInfo(br); err != nil {
			return nil, err
		}
		term := prev[:common] + suffix
		out = append(out, term)
		prev = term
	}
}

// lexLess reports whether a sorts strictly before b: byte-lexicographic,
// with ties on equal prefixes broken by length (spec 4.3: shorter term
// sorts first).
func lexLess(a, b string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
