package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
)

// DpiType is density unit of JFIF header.
type DpiType uint8

const (
	DpiNoUnits DpiType = iota
	DpiPxPerInch
	DpiPxPerSm
)

var (
	markerSOI  = []byte{0xFF, 0xD8}
	markerAPP0 = []byte{0xFF, 0xE0}
)

// jfifSegment builds complete APP0 segment without thumbnail.
func jfifSegment(dpit DpiType, xdensity, ydensity int16) []byte {
	seg := make([]byte, 0, 18)
	seg = append(seg, markerAPP0...)
	seg = binary.BigEndian.AppendUint16(seg, 16)
	seg = append(seg, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x02)
	seg = append(seg, byte(dpit))
	seg = binary.BigEndian.AppendUint16(seg, uint16(xdensity))
	seg = binary.BigEndian.AppendUint16(seg, uint16(ydensity))
	return append(seg, 0, 0)
}

// EnsureJFIFAPP0 inserts JFIF APP0 marker segment right after SOI if it is
// missing. PDF backend reads picture resolution from it. Reports whether
// data was changed.
func EnsureJFIFAPP0(jpegData []byte, dpit DpiType, xdensity, ydensity int16) ([]byte, bool, error) {
	if len(jpegData) < 4 {
		return nil, false, errors.New("jpeg too small")
	}
	if !bytes.HasPrefix(jpegData, markerSOI) {
		return nil, false, errors.New("not a jpeg")
	}
	if bytes.Equal(jpegData[2:4], markerAPP0) {
		return jpegData, false, nil
	}

	out := make([]byte, 0, len(jpegData)+18)
	out = append(out, markerSOI...)
	out = append(out, jfifSegment(dpit, xdensity, ydensity)...)
	out = append(out, jpegData[2:]...)
	return out, true, nil
}

// EncodeJPEGWithDPI encodes img making sure result carries requested
// density.
func EncodeJPEGWithDPI(img image.Image, quality int, dpit DpiType, xdensity, ydensity int16) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out, _, err := EnsureJFIFAPP0(buf.Bytes(), dpit, xdensity, ydensity)
	if err != nil {
		return nil, err
	}
	return out, nil
}
