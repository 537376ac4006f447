package fasttransport

import (
	"bytes"
	"testing"
)

func TestBufferAppendBytes(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("hello "), nil)
	b.Append([]byte("world"), nil)

	if got := b.Bytes(); !bytes.Equal(got, []byte("hello world")) {
		t.Errorf("got %q", got)
	}
	if n := b.TotalLength(); n != 11 {
		t.Errorf("expected length 11, got %d", n)
	}
}

func TestBufferPrepend(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("world"), nil)
	b.Prepend([]byte("hello "), nil)

	if got := b.Bytes(); !bytes.Equal(got, []byte("hello world")) {
		t.Errorf("got %q", got)
	}
}

func TestBufferReleaseCallsEveryChunk(t *testing.T) {
	var released []int
	b := NewBuffer()
	for i := 0; i < 3; i++ {
		i := i
		b.Append([]byte{byte(i)}, func() { released = append(released, i) })
	}
	b.Release()

	if len(released) != 3 {
		t.Fatalf("expected 3 releases, got %d", len(released))
	}
	if b.TotalLength() != 0 {
		t.Errorf("expected buffer empty after release")
	}
}

func TestBufferTruncateFront(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("abc"), nil)
	b.Append([]byte("def"), nil)
	b.TruncateFront(4)

	if got := b.Bytes(); !bytes.Equal(got, []byte("ef")) {
		t.Errorf("got %q", got)
	}
}
