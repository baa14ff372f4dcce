package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestULawToWavHeader(t *testing.T) {
	ulaw := []byte{0x00, 0x7f, 0xff, 0x80, 0x55, 0xaa, 0x01, 0xfe}
	wav, err := ULawToWav(ulaw)
	if err != nil {
		t.Fatalf("ULawToWav: %v", err)
	}

	// 44-byte header plus one 16-bit sample per u-law byte.
	wantLen := 44 + len(ulaw)*2
	if len(wav) != wantLen {
		t.Fatalf("len(wav) = %d, want %d", len(wav), wantLen)
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != TelephoneSampleRate {
		t.Errorf("sample rate = %d, want %d", got, TelephoneSampleRate)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != TelephoneChannels {
		t.Errorf("channels = %d, want %d", got, TelephoneChannels)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(ulaw)*2) {
		t.Errorf("data size = %d, want %d", got, len(ulaw)*2)
	}
	if got := binary.LittleEndian.Uint32(wav[4:8]); got != uint32(36+len(ulaw)*2) {
		t.Errorf("riff size = %d, want %d", got, 36+len(ulaw)*2)
	}
}

func TestULawToWavEmptyInput(t *testing.T) {
	if _, err := ULawToWav(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestULawRoundTrip(t *testing.T) {
	// u-law silence decodes to near-zero PCM and survives a round trip.
	ulaw := []byte{0xff, 0xff, 0xff, 0xff}
	pcm := ULawBytesToPCM(ulaw)
	if len(pcm) != len(ulaw)*2 {
		t.Fatalf("len(pcm) = %d, want %d", len(pcm), len(ulaw)*2)
	}
	back, err := PCMBytesToULaw(pcm)
	if err != nil {
		t.Fatalf("PCMBytesToULaw: %v", err)
	}
	if !bytes.Equal(back, ulaw) {
		t.Errorf("round trip = %v, want %v", back, ulaw)
	}
}

func TestPCMBytesToULawOddLength(t *testing.T) {
	if _, err := PCMBytesToULaw([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Error("expected error for odd-length PCM")
	}
}

func TestPCMBytesToWavBytesValidation(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	cases := []struct {
		name     string
		pcm      []byte
		channels int
		rate     int
	}{
		{"empty pcm", nil, 1, 8000},
		{"zero channels", pcm, 0, 8000},
		{"too many channels", pcm, 3, 8000},
		{"zero rate", pcm, 1, 0},
		{"length channel mismatch", []byte{0x01, 0x02}, 2, 8000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PCMBytesToWavBytes(tc.pcm, tc.channels, tc.rate); err == nil {
				t.Error("expected error")
			}
		})
	}
}
