package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
)

func TestEnsureJFIFAPP0(t *testing.T) {
	withoutAPP0 := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x04}
	withAPP0 := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

	tests := []struct {
		name    string
		data    []byte
		added   bool
		wantErr bool
	}{
		{"missing segment", withoutAPP0, true, false},
		{"segment present", withAPP0, false, false},
		{"too small", []byte{0xFF, 0xD8}, false, true},
		{"not a jpeg", []byte{0x89, 'P', 'N', 'G'}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, added, err := EnsureJFIFAPP0(tt.data, DpiPxPerInch, 300, 150)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EnsureJFIFAPP0() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if added != tt.added {
				t.Errorf("added = %v, want %v", added, tt.added)
			}
			if !added {
				if !bytes.Equal(out, tt.data) {
					t.Error("expected same bytes")
				}
				return
			}
			want := []byte{
				0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x02,
				0x01, 0x01, 0x2C, 0x00, 0x96, 0x00, 0x00,
			}
			if !bytes.HasPrefix(out, want) {
				t.Errorf("header = % X, want % X", out[:len(want)], want)
			}
			if !bytes.Equal(out[len(want):], tt.data[2:]) {
				t.Error("original segments must follow inserted header")
			}
		})
	}
}

func TestEncodeJPEGWithDPI(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	data, err := EncodeJPEGWithDPI(img, 80, DpiPxPerInch, 96, 96)
	if err != nil {
		t.Fatalf("EncodeJPEGWithDPI() error = %v", err)
	}
	if !bytes.Equal(data[2:4], []byte{0xFF, 0xE0}) {
		t.Error("expected APP0 segment after SOI")
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result is not decodable: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 8x8", cfg.Width, cfg.Height)
	}
}
