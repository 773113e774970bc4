package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/simbridge/internal/testutil/testlog"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	payload := []byte(`{"sampleFrequency":50,"timeScale":1,"timestep":0.01,"fixedDeltaTime":0}`)
	in := Frame{
		Header:  Header{Sequence: 42, Flags: FlagIsReply},
		Payload: payload,
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Magic != Magic || out.Header.Version != Version || out.Header.Sequence != 42 {
		t.Fatalf("header mismatch: got=%+v", out.Header)
	}
	if !out.IsReply() {
		t.Fatalf("expected reply flag")
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadFrameMalformedHeaderIsDeterministic(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFrameInvalidMagic(t *testing.T) {
	testlog.Start(t)
	buf := EncodeHeader(Header{Magic: 1, Version: Version})
	_, err := ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadFrameUnsupportedVersion(t *testing.T) {
	testlog.Start(t)
	buf := EncodeHeader(Header{Magic: Magic, Version: 9})
	_, err := ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestPayloadLimitEnforced(t *testing.T) {
	testlog.Start(t)
	limits := Limits{MaxPayloadBytes: 4}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Payload: []byte("too long")}, limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge on write, got %v", err)
	}
	hdr := EncodeHeader(Header{Magic: Magic, Version: Version, PayloadLen: 5})
	if _, err := ReadFrame(bytes.NewReader(hdr), limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge on read, got %v", err)
	}
}
