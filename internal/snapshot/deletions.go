package snapshot

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/storage"
)

// DeletionBitVector is a segment's per-snapshot tombstone set (spec 3,
// 6: "deletions-<snapshot>.bv"): one bit per doc-id, set when that doc
// has been deleted as of the owning snapshot.
type DeletionBitVector struct {
	bits  []byte
	count uint32 // docs the vector is sized for
	dels  int
}

// NewDeletionBitVector allocates a bit vector sized for docCount docs,
// all initially live.
func NewDeletionBitVector(docCount uint32) *DeletionBitVector {
	return &DeletionBitVector{bits: make([]byte, (docCount+7)/8), count: docCount}
}

// Delete marks doc as deleted. Deleting an already-deleted doc is a
// no-op.
func (bv *DeletionBitVector) Delete(doc ixtypes.DocID) {
	if uint32(doc) >= bv.count {
		return
	}
	byteIdx, bit := doc/8, byte(1<<(doc%8))
	if bv.bits[byteIdx]&bit == 0 {
		bv.bits[byteIdx] |= bit
		bv.dels++
	}
}

// IsDeleted reports whether doc is marked deleted.
func (bv *DeletionBitVector) IsDeleted(doc ixtypes.DocID) bool {
	if uint32(doc) >= bv.count {
		return false
	}
	return bv.bits[doc/8]&(1<<(doc%8)) != 0
}

// DelCount is the number of docs currently marked deleted.
func (bv *DeletionBitVector) DelCount() int { return bv.dels }

// DeletionsFileName is the name a segment's deletions-<snapshot>.bv
// artifact is persisted under.
func DeletionsFileName(snapNum ixtypes.SnapshotNum) string {
	return "deletions-" + strconv.FormatUint(uint64(snapNum), 36) + ".bv"
}

// WriteDeletions persists bv under segFolder/DeletionsFileName(snapNum).
func WriteDeletions(segFolder storage.Folder, snapNum ixtypes.SnapshotNum, bv *DeletionBitVector) error {
	out, err := segFolder.OpenOut(DeletionsFileName(snapNum))
	if err != nil {
		return err
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], bv.count)
	if _, err := out.Write(header[:]); err != nil {
		out.Close()
		return err
	}
	if _, err := out.Write(bv.bits); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadDeletions loads a previously written deletion bit vector.
func ReadDeletions(segFolder storage.Folder, snapNum ixtypes.SnapshotNum) (*DeletionBitVector, error) {
	in, err := segFolder.OpenIn(DeletionsFileName(snapNum))
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var header [4]byte
	if _, err := io.ReadFull(in, header[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(header[:])
	bits := make([]byte, (count+7)/8)
	if _, err := io.ReadFull(in, bits); err != nil {
		return nil, err
	}
	dels := 0
	for doc := uint32(0); doc < count; doc++ {
		if bits[doc/8]&(1<<(doc%8)) != 0 {
			dels++
		}
	}
	return &DeletionBitVector{bits: bits, count: count, dels: dels}, nil
}
