// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ik5/playsched/audio"
)

// createWAVFile builds a canonical 16-bit PCM WAV file in memory.
func createWAVFile(sampleRate, channels, bitsPerSample int, samples []int16) []byte {
	return createWAVFileFormat(1, sampleRate, channels, bitsPerSample, samples)
}

func createWAVFileFormat(format uint16, sampleRate, channels, bitsPerSample int, samples []int16) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	bits := uint16(bitsPerSample)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * (bits / 8)
	dataSize := uint32(len(samples) * 2)
	riffSize := 36 + dataSize

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, format)
	binary.Write(buf, binary.LittleEndian, numChannels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, bits)

	// data chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

func TestDecoder_Metadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rate       int
		channels   int
		samples    []int16
		wantFrames int64
	}{
		{"mono", 8000, 1, []int16{0, 100, 200, -100, -200, 0}, 6},
		{"stereo", 44100, 2, []int16{100, 200, 300, 400, 500, 600}, 3},
		{"high rate", 96000, 1, []int16{1, 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := Decoder{}.Decode(bytes.NewReader(createWAVFile(tt.rate, tt.channels, 16, tt.samples)))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if src.SampleRate() != tt.rate {
				t.Errorf("SampleRate() = %d, want %d", src.SampleRate(), tt.rate)
			}
			if src.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", src.Channels(), tt.channels)
			}

			sized, ok := src.(audio.Sized)
			if !ok {
				t.Fatal("source does not implement audio.Sized")
			}
			if got := sized.Frames(); got != tt.wantFrames {
				t.Errorf("Frames() = %d, want %d", got, tt.wantFrames)
			}
		})
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not riff", []byte("NOT A WAV FILE DATA"), ErrNotWavFile},
		{"truncated", []byte("RIFF\x00"), ErrNotWavFile},
		{"float samples", createWAVFileFormat(3, 8000, 1, 16, []int16{1, 2}), ErrOnlyPCMSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	data := createWAVFile(8000, 1, 16, []int16{1000, 2000})
	// bytes.Buffer is not an io.ReadSeeker
	src, err := Decoder{}.Decode(bytes.NewBuffer(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf := make([]float32, 4)
	n, _ := src.ReadSamples(buf)
	if n != 2 {
		t.Errorf("ReadSamples() = %d, want 2", n)
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 16384, 32767, -16384, -32768}
	src, err := Decoder{}.Decode(bytes.NewReader(createWAVFile(8000, 1, 16, samples)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	var got []float32
	buf := make([]float32, 2)
	for range 10 {
		n, err := src.ReadSamples(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	want := []float32{0, 0.5, 32767.0 / 32768, -0.5, -1}
	if len(got) != len(want) {
		t.Fatalf("read %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSource_SeekFrame(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 200)
	for i := range samples {
		samples[i] = int16(i * 10)
	}
	// stereo: frame f holds samples 2f and 2f+1
	src, err := Decoder{}.Decode(bytes.NewReader(createWAVFile(8000, 2, 16, samples)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	seeker, ok := src.(audio.Seeker)
	if !ok {
		t.Fatal("source does not implement audio.Seeker")
	}

	buf := make([]float32, 2)
	for _, frame := range []int64{40, 3, 0, 99} {
		if err := seeker.SeekFrame(frame); err != nil {
			t.Fatalf("SeekFrame(%d) error = %v", frame, err)
		}
		if _, err := src.ReadSamples(buf); err != nil && err != io.EOF {
			t.Fatalf("ReadSamples() error = %v", err)
		}
		want := float32(frame*2*10) / 32768
		if buf[0] != want {
			t.Errorf("after SeekFrame(%d) first sample = %v, want %v", frame, buf[0], want)
		}
	}

	if err := seeker.SeekFrame(500); err != nil {
		t.Fatalf("SeekFrame(past end) error = %v", err)
	}
	if n, err := src.ReadSamples(buf); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() past the end = %d, %v, want 0, EOF", n, err)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int16, 44100)
	data := createWAVFile(44100, 1, 16, samples)
	buf := make([]float32, 4096)

	for b.Loop() {
		src, err := Decoder{}.Decode(bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
