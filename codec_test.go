package shelfcache

import (
	"errors"
	"testing"
)

func TestRecordCodec_RoundTrip(t *testing.T) {
	type payload struct {
		Name  string
		Count int
	}

	data, err := encodeRecord("box", payload{Name: "pencils", Count: 12})
	if err != nil {
		t.Fatalf("encodeRecord: %v", err)
	}

	key, value, err := decodeRecord[string, payload](data)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	if key != "box" {
		t.Errorf("key = %q; want box", key)
	}
	if value.Name != "pencils" || value.Count != 12 {
		t.Errorf("value = %+v; want {pencils 12}", value)
	}
}

func TestRecordCodec_VersionPrefix(t *testing.T) {
	data, err := encodeRecord(1, "v")
	if err != nil {
		t.Fatalf("encodeRecord: %v", err)
	}
	if data[0] != recordVersion {
		t.Errorf("version byte = %d; want %d", data[0], recordVersion)
	}
}

func TestRecordCodec_UnsupportedVersion(t *testing.T) {
	data, err := encodeRecord(1, "v")
	if err != nil {
		t.Fatalf("encodeRecord: %v", err)
	}
	data[0] = recordVersion + 1

	_, _, err = decodeRecord[int, string](data)
	var eerr *EncodingError
	if !errors.As(err, &eerr) {
		t.Fatalf("decodeRecord = %v; want *EncodingError", err)
	}
}

func TestRecordCodec_EmptyAndTruncated(t *testing.T) {
	if _, _, err := decodeRecord[string, int](nil); err == nil {
		t.Error("decodeRecord(nil) succeeded")
	}
	if _, _, err := decodeRecord[string, int]([]byte{recordVersion}); err == nil {
		t.Error("decodeRecord(truncated) succeeded")
	}
}

func TestRecordCodec_UnencodableValue(t *testing.T) {
	_, err := encodeRecord("fn", func() {})
	var eerr *EncodingError
	if !errors.As(err, &eerr) {
		t.Fatalf("encodeRecord(func) = %v; want *EncodingError", err)
	}
}
