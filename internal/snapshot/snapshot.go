// Package snapshot implements the atomic-publication protocol a commit
// goes through: a sorted-JSON manifest of every file belonging to one
// consistent index view, a FilePurger that reclaims
// anything no live snapshot points at, and a retrying LockFactory
// grounded on the teacher's IndexLockManager (spec 3, 4.7).
package snapshot

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/ixtypes"
	"github.com/standardbeagle/ixo/internal/jsonwire"
	"github.com/standardbeagle/ixo/internal/storage"
)

// Snapshot is the manifest of every file making up one atomic index
// view (spec 3: "A JSON manifest listing every file belonging to one
// consistent view of the index").
type Snapshot struct {
	Num     ixtypes.SnapshotNum
	Entries []string
}

// Name returns the base-36 manifest filename for num.
func Name(num ixtypes.SnapshotNum) string {
	return "snapshot_" + strconv.FormatUint(uint64(num), 36) + ".json"
}

// ParseName recovers the snapshot number from a snapshot_<base36>.json
// filename, returning ok=false if name isn't in that shape.
func ParseName(name string) (ixtypes.SnapshotNum, bool) {
	const prefix, suffix = "snapshot_", ".json"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	body := name[len(prefix) : len(name)-len(suffix)]
	n, err := strconv.ParseUint(body, 36, 64)
	if err != nil {
		return 0, false
	}
	return ixtypes.SnapshotNum(n), true
}

func toValue(s Snapshot) jsonwire.Value {
	sorted := append([]string(nil), s.Entries...)
	sort.Strings(sorted)
	vals := make([]jsonwire.Value, len(sorted))
	for i, e := range sorted {
		vals[i] = jsonwire.String(e)
	}
	return jsonwire.Object(map[string]jsonwire.Value{"entries": jsonwire.Array(vals...)})
}

func fromValue(num ixtypes.SnapshotNum, v jsonwire.Value) (Snapshot, error) {
	obj, ok := v.AsObject()
	if !ok {
		return Snapshot{}, ixerrors.New(ixerrors.KindCorruptFile, "snapshot: top level is not an object")
	}
	ev, ok := obj["entries"]
	if !ok {
		return Snapshot{}, ixerrors.New(ixerrors.KindCorruptFile, "snapshot: missing entries")
	}
	arr, ok := ev.AsArray()
	if !ok {
		return Snapshot{}, ixerrors.New(ixerrors.KindCorruptFile, "snapshot: entries is not an array")
	}
	out := Snapshot{Num: num, Entries: make([]string, 0, len(arr))}
	for _, e := range arr {
		s, ok := e.AsString()
		if !ok {
			return Snapshot{}, ixerrors.New(ixerrors.KindCorruptFile, "snapshot: entry is not a string")
		}
		out.Entries = append(out.Entries, s)
	}
	return out, nil
}

// Write serializes s as sorted JSON to a temp file, fsyncs (via
// OutStream.Close), and renames it into place so the manifest only
// becomes visible to new readers atomically (spec 3, 4.6 step 4).
func Write(folder storage.Folder, s Snapshot) error {
	data, err := jsonwire.Marshal(toValue(s))
	if err != nil {
		return ixerrors.WrapKind(ixerrors.KindInternal, "snapshot.Write", err)
	}
	finalName := Name(s.Num)
	tempName := finalName + ".tmp"
	out, err := folder.OpenOut(tempName)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return folder.Rename(tempName, finalName)
}

// Read loads the snapshot manifest named Name(num) from folder.
func Read(folder storage.Folder, num ixtypes.SnapshotNum) (Snapshot, error) {
	in, err := folder.OpenIn(Name(num))
	if err != nil {
		return Snapshot{}, err
	}
	defer in.Close()
	buf := make([]byte, in.Length())
	if _, err := io.ReadFull(in, buf); err != nil {
		return Snapshot{}, ixerrors.WrapKind(ixerrors.KindIO, "snapshot.Read", err)
	}
	v, err := jsonwire.Unmarshal(buf, jsonwire.Options{})
	if err != nil {
		return Snapshot{}, ixerrors.WrapKind(ixerrors.KindCorruptFile, "snapshot.Read", err)
	}
	return fromValue(num, v)
}

// Latest scans folder's top-level entries for the highest-numbered
// snapshot_<base36>.json, returning ok=false if none exists yet (a
// freshly created index).
func Latest(folder storage.Folder) (ixtypes.SnapshotNum, bool, error) {
	dir, err := folder.OpenDir()
	if err != nil {
		return 0, false, err
	}
	defer dir.Close()

	var best ixtypes.SnapshotNum
	found := false
	for dir.Next() {
		if dir.IsDir() {
			continue
		}
		n, ok := ParseName(dir.Name())
		if !ok {
			continue
		}
		if !found || n > best {
			best = n
			found = true
		}
	}
	return best, found, nil
}
