package convert

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"odfc/odf"
)

// how much of the file is looked at when detecting its type, flat documents
// carry long namespace declarations before anything recognizable
const headSize = 4096

var (
	odfPackageType = filetype.NewType("odf-text", odf.MimeText)
	odfFlatType    = filetype.NewType("odf-flat-text", odf.MimeText)
)

func init() {
	filetype.AddMatcher(odfPackageType, matchPackage)
	filetype.AddMatcher(odfFlatType, matchFlat)
}

// matchPackage recognizes zip container with "mimetype" as its first stored
// entry, which is how ODF packages are laid out.
func matchPackage(buf []byte) bool {
	const (
		nameOffset = 30
		name       = "mimetype"
	)
	if len(buf) < nameOffset+len(name) || !bytes.HasPrefix(buf, []byte("PK\x03\x04")) {
		return false
	}
	if string(buf[nameOffset:nameOffset+len(name)]) != name {
		return false
	}
	start := nameOffset + len(name) + int(binary.LittleEndian.Uint16(buf[28:30]))
	if start > len(buf) {
		return false
	}
	return bytes.HasPrefix(buf[start:], []byte(odf.MimeText))
}

func matchFlat(buf []byte) bool {
	return bytes.Contains(buf, []byte("<office:document ")) || bytes.Contains(buf, []byte("<office:document>"))
}

func isDocumentName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".odt", ".ott", ".fodt", ".fott":
		return true
	}
	return false
}

func isDocument(head []byte) bool {
	return filetype.IsType(head, odfPackageType) || filetype.IsType(head, odfFlatType)
}

func readHead(r io.Reader) ([]byte, error) {
	head := make([]byte, headSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:n], nil
}

// isArchiveFile reports whether file is zip archive which may contain
// documents. Documents are zip containers too, so extension decides.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isDocumentFile reports whether file is OpenDocument text, either package
// or flat XML.
func isDocumentFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !isDocumentName(path) {
		return false, nil
	}
	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return isDocument(head), nil
}

// isDocumentInArchive is isDocumentFile for archive entries.
func isDocumentInArchive(f *zip.File) (bool, error) {
	if !isDocumentName(f.Name) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	head, err := readHead(r)
	if err != nil {
		return false, err
	}
	return isDocument(head), nil
}
