package rrrio

import (
	"errors"
	"testing"
)

func TestFrameUnframeRoundTrip(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog")
	framed := Frame(body)

	got, consumed, err := Unframe(framed)
	if err != nil {
		t.Fatalf("Unframe: %v", err)
	}
	if consumed != len(framed) {
		t.Fatalf("consumed = %d, want %d", consumed, len(framed))
	}
	if string(got) != string(body) {
		t.Fatalf("body = %q, want %q", got, body)
	}
}

func TestFrameEmptyBody(t *testing.T) {
	framed := Frame(nil)
	got, _, err := Unframe(framed)
	if err != nil {
		t.Fatalf("Unframe: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("body = %v, want empty", got)
	}
}

func TestUnframeTrailingDataIgnored(t *testing.T) {
	framed := Frame([]byte("payload"))
	framed = append(framed, []byte("trailing garbage")...)

	got, consumed, err := Unframe(framed)
	if err != nil {
		t.Fatalf("Unframe: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("body = %q, want payload", got)
	}
	if consumed != len(framed)-len("trailing garbage") {
		t.Fatalf("consumed = %d, want frame length only", consumed)
	}
}

func TestUnframeTruncatedHeader(t *testing.T) {
	_, _, err := Unframe([]byte{1, 2, 3})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestUnframeTruncatedBody(t *testing.T) {
	framed := Frame([]byte("hello world"))
	_, _, err := Unframe(framed[:len(framed)-5])
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestUnframeBadMagic(t *testing.T) {
	framed := Frame([]byte("hello"))
	framed[0] ^= 0xff
	_, _, err := Unframe(framed)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestUnframeUnsupportedVersion(t *testing.T) {
	framed := Frame([]byte("hello"))
	framed[4] = 99
	_, _, err := Unframe(framed)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestUnframeCorruptedHeaderField(t *testing.T) {
	framed := Frame([]byte("hello"))
	framed[8] ^= 0xff // corrupt bodyLen, header CRC should catch it
	_, _, err := Unframe(framed)
	if !errors.Is(err, ErrHeaderChecksum) {
		t.Fatalf("err = %v, want ErrHeaderChecksum", err)
	}
}

func TestUnframeCorruptedBody(t *testing.T) {
	framed := Frame([]byte("hello world"))
	framed[len(framed)-1] ^= 0xff
	_, _, err := Unframe(framed)
	if !errors.Is(err, ErrBodyDigest) {
		t.Fatalf("err = %v, want ErrBodyDigest", err)
	}
}
