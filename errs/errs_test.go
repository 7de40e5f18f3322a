package errs

import (
	"io"
	"testing"
)

func TestCodeRoundtrips(t *testing.T) {
	err := New(MalformedBitstream, "bad exp-golomb code")

	if Code(err) != MalformedBitstream {
		t.Fatalf("Code = %v, want MalformedBitstream", Code(err))
	}
}

func TestCodeOnForeignErrorIsUnknown(t *testing.T) {
	if Code(io.EOF) != KindUnknown {
		t.Fatalf("expected KindUnknown for a foreign error")
	}
}

func TestCodeOnNilIsUnknown(t *testing.T) {
	if Code(nil) != KindUnknown {
		t.Fatalf("expected KindUnknown for nil")
	}
}

func TestWrapfPreservesCode(t *testing.T) {
	base := New(IOFailure, "short read")
	wrapped := Wrapf(base, "reading sample %d", 3)

	if Code(wrapped) != IOFailure {
		t.Fatalf("Code(wrapped) = %v, want IOFailure", Code(wrapped))
	}
}

func TestFatalClassification(t *testing.T) {
	cases := map[Kind]bool{
		ResourceExhaustion:   true,
		IOFailure:            true,
		MalformedBitstream:   false,
		MalformedContainer:   false,
		UnsupportedFeature:   false,
		ReferentialIntegrity: false,
	}

	for kind, want := range cases {
		if got := Fatal(kind); got != want {
			t.Fatalf("Fatal(%v) = %v, want %v", kind, got, want)
		}
	}
}
