package indexer

import (
	"sort"

	"github.com/standardbeagle/ixo/internal/ixconfig"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/segment"
)

// SegmentInfo is the bit of bookkeeping a MergePolicy needs about one
// live segment: its number and an approximate on-disk size. ixo
// estimates size from doc_count rather than summing file bytes (a
// segment's stored-field + posting bytes scale with its document
// count); this is a cheap proxy, not an exact size.
type SegmentInfo struct {
	Num      ixtypes.SegmentNum
	DocCount uint32
}

// MergePolicy decides whether a writer's next commit should fold
// existing segments together (spec 4.6 step 3).
type MergePolicy interface {
	// SelectMerge returns the segments to merge and ok=true if a merge
	// should happen on this commit.
	SelectMerge(segments []SegmentInfo) ([]ixtypes.SegmentNum, bool)
}

// approxBytesPerDoc scales SegmentInfo.DocCount into the same units as
// MaxMergedSegmentSize (bytes), a deliberately rough constant since ixo
// has no cheaper way to learn a segment's true byte size without
// opening every one of its files.
const approxBytesPerDoc = 256

// TieredMergePolicy merges segments within a size tier once at least
// MinSegmentsPerTier of them exist, stopping short of
// MaxMergedSegmentSize (spec 4.6: "merge when N segments within a size
// tier exist, bounded by max_merged_segment_size").
type TieredMergePolicy struct {
	cfg ixconfig.MergePolicy
}

func NewTieredMergePolicy(cfg ixconfig.MergePolicy) *TieredMergePolicy {
	return &TieredMergePolicy{cfg: cfg}
}

func (p *TieredMergePolicy) SelectMerge(segments []SegmentInfo) ([]ixtypes.SegmentNum, bool) {
	if len(segments) < p.cfg.MinSegmentsPerTier {
		return nil, false
	}
	sorted := append([]SegmentInfo(nil), segments...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DocCount < sorted[j].DocCount })

	tier := sorted[:0:0]
	tier = append(tier, sorted[0])
	var totalBytes int64 = int64(sorted[0].DocCount) * approxBytesPerDoc
	for _, s := range sorted[1:] {
		size := int64(s.DocCount) * approxBytesPerDoc
		// A segment more than MergeFactor times the tier's current
		// average size belongs to the next tier up, not this one.
		if len(tier) > 0 && size > (totalBytes/int64(len(tier)))*int64(p.cfg.MergeFactor) {
			break
		}
		if p.cfg.MaxMergedSegmentSize > 0 && totalBytes+size > p.cfg.MaxMergedSegmentSize {
			break
		}
		tier = append(tier, s)
		totalBytes += size
	}

	if len(tier) < p.cfg.MinSegmentsPerTier {
		return nil, false
	}
	nums := make([]ixtypes.SegmentNum, len(tier))
	for i, s := range tier {
		nums[i] = s.Num
	}
	return nums, true
}

// infoFromMeta adapts a loaded segment.Meta to the policy's input shape.
func infoFromMeta(num ixtypes.SegmentNum, m segment.Meta) SegmentInfo {
	return SegmentInfo{Num: num, DocCount: m.DocCount()}
}
