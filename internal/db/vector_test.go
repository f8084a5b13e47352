package db

import "testing"

func TestVectorBlob(t *testing.T) {
	in := []float32{0.25, -1.5, 3e-7, 0}
	blob := EncodeVector(in)
	if len(blob) != 16 {
		t.Fatalf("blob length = %d, want 16", len(blob))
	}
	out, err := DecodeVector(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("component %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestDecodeVector_BadLength(t *testing.T) {
	if _, err := DecodeVector("abc"); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}
