package storage

import (
	"strings"

	"github.com/standardbeagle/ixo/internal/ixerrors"
	"github.com/standardbeagle/ixo/internal/jsonwire"
)

// compoundRecord is one entry in cfmeta.json's {name: {offset, length}} map.
type compoundRecord struct {
	Offset int64
	Length int64
}

// CompoundFileReader composes over a real Folder plus a records table
// read from cfmeta.json, routing lookups for packed names to bounded
// views (via InStream.Reopen) over the shared cf.dat body. Local
// (virtual) names are checked first; anything else defers to the
// wrapped Folder (spec 4.1).
type CompoundFileReader struct {
	wrapped Folder
	cfIn    InStream
	records map[string]compoundRecord
}

// stripV1Prefix drops the directory-name prefix format-version-1
// compound files embedded in every virtual key; the reader applies it at
// load time (spec 4.1, spec 9 open question: preserve strip-on-load, don't
// bother writing v1).
func stripV1Prefix(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// OpenCompoundFileReader loads cfmeta.json and wraps folder so that
// reads for packed names route into cf.dat.
func OpenCompoundFileReader(folder Folder) (*CompoundFileReader, error) {
	metaIn, err := folder.OpenIn("cfmeta.json")
	if err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindIO, "OpenCompoundFileReader", err)
	}
	defer metaIn.Close()

	buf := make([]byte, metaIn.Length())
	if _, err := metaIn.Read(buf); err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindIO, "OpenCompoundFileReader", err)
	}

	doc, err := jsonwire.Unmarshal(buf, jsonwire.Options{})
	if err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindCorruptFile, "OpenCompoundFileReader", err)
	}

	records := make(map[string]compoundRecord)
	for key, v := range doc.Obj() {
		name := stripV1Prefix(key)
		records[name] = compoundRecord{
			Offset: v.Get("offset").Int(),
			Length: v.Get("length").Int(),
		}
	}

	cfIn, err := folder.OpenIn("cf.dat")
	if err != nil {
		return nil, ixerrors.WrapKind(ixerrors.KindIO, "OpenCompoundFileReader", err)
	}

	return &CompoundFileReader{wrapped: folder, cfIn: cfIn, records: records}, nil
}

func (c *CompoundFileReader) OpenIn(name string) (InStream, error) {
	if rec, ok := c.records[name]; ok {
		return c.cfIn.Reopen(rec.Offset, rec.Length)
	}
	return c.wrapped.OpenIn(name)
}

func (c *CompoundFileReader) OpenOut(name string) (OutStream, error) {
	// Compound files are write-once at merge time via WriteCompoundFile;
	// direct writes always go to the wrapped folder.
	return c.wrapped.OpenOut(name)
}

func (c *CompoundFileReader) Exists(name string) bool {
	if _, ok := c.records[name]; ok {
		return true
	}
	return c.wrapped.Exists(name)
}

func (c *CompoundFileReader) Delete(name string) error {
	if _, ok := c.records[name]; ok {
		return ixerrors.New(ixerrors.KindBadArgument, "cannot delete a virtual compound-file entry")
	}
	return c.wrapped.Delete(name)
}

func (c *CompoundFileReader) DeleteAll(name string) error {
	if _, ok := c.records[name]; ok {
		return ixerrors.New(ixerrors.KindBadArgument, "cannot delete a virtual compound-file entry")
	}
	return c.wrapped.DeleteAll(name)
}

func (c *CompoundFileReader) Rename(oldName, newName string) error {
	return c.wrapped.Rename(oldName, newName)
}

func (c *CompoundFileReader) Mkdir(name string) error { return c.wrapped.Mkdir(name) }

func (c *CompoundFileReader) FindFolder(name string) (Folder, error) {
	return c.wrapped.FindFolder(name)
}

func (c *CompoundFileReader) OpenDir() (DirHandle, error) { return c.wrapped.OpenDir() }

func (c *CompoundFileReader) Close() error { return c.cfIn.Close() }

// WriteCompoundFile packs the named files from src into a single cf.dat
// body plus cfmeta.json offset directory inside dst.
func WriteCompoundFile(dst Folder, src Folder, names []string) error {
	out, err := dst.OpenOut("cf.dat")
	if err != nil {
		return ixerrors.WrapKind(ixerrors.KindIO, "WriteCompoundFile", err)
	}

	meta := map[string]jsonwire.Value{}
	offset := int64(0)
	for _, name := range names {
		in, err := src.OpenIn(name)
		if err != nil {
			out.Close()
			return ixerrors.WrapKind(ixerrors.KindIO, "WriteCompoundFile", err)
		}
		length := in.Length()
		buf := make([]byte, length)
		if _, err := in.Read(buf); err != nil {
			in.Close()
			out.Close()
			return ixerrors.WrapKind(ixerrors.KindIO, "WriteCompoundFile", err)
		}
		in.Close()
		if _, err := out.Write(buf); err != nil {
			out.Close()
			return ixerrors.WrapKind(ixerrors.KindIO, "WriteCompoundFile", err)
		}
		meta[name] = jsonwire.Object(map[string]jsonwire.Value{
			"offset": jsonwire.Int(offset),
			"length": jsonwire.Int(length),
		})
		offset += length
	}
	if err := out.Close(); err != nil {
		return err
	}

	metaOut, err := dst.OpenOut("cfmeta.json")
	if err != nil {
		return ixerrors.WrapKind(ixerrors.KindIO, "WriteCompoundFile", err)
	}
	encoded, err := jsonwire.Marshal(jsonwire.Object(meta))
	if err != nil {
		metaOut.Close()
		return err
	}
	if _, err := metaOut.Write(encoded); err != nil {
		metaOut.Close()
		return ixerrors.WrapKind(ixerrors.KindIO, "WriteCompoundFile", err)
	}
	return metaOut.Close()
}
