package compress

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("x"),
		bytes.Repeat([]byte("compressible data "), 200),
	}

	for _, tc := range []struct {
		name string
		c    Compressor
	}{
		{"none", None()},
		{"s2", S2()},
		{"zstd-fast", Zstd(1)},
		{"zstd-best", Zstd(4)},
		{"lz4", LZ4()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, payload := range payloads {
				enc, err := tc.c.Encode(payload)
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				dec, err := tc.c.Decode(enc)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !bytes.Equal(dec, payload) {
					t.Errorf("round trip mismatch for %d-byte payload", len(payload))
				}
			}
		})
	}
}

func TestExtensionsDistinct(t *testing.T) {
	seen := make(map[string]string)
	for name, c := range map[string]Compressor{
		"none": None(),
		"s2":   S2(),
		"zstd": Zstd(2),
		"lz4":  LZ4(),
	} {
		ext := c.Extension()
		if prev, dup := seen[ext]; dup {
			t.Errorf("compressors %s and %s share extension %q", prev, name, ext)
		}
		seen[ext] = name
	}
}

func TestCompressionShrinksRepetitiveData(t *testing.T) {
	payload := bytes.Repeat([]byte("shelfcache"), 500)
	for _, tc := range []struct {
		name string
		c    Compressor
	}{
		{"s2", S2()},
		{"zstd", Zstd(2)},
		{"lz4", LZ4()},
	} {
		enc, err := tc.c.Encode(payload)
		if err != nil {
			t.Fatalf("%s Encode: %v", tc.name, err)
		}
		if len(enc) >= len(payload) {
			t.Errorf("%s did not shrink a repetitive payload (%d -> %d)", tc.name, len(payload), len(enc))
		}
	}
}
