package playback

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

// wavHeader is the canonical 44-byte PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV wraps interleaved 16-bit samples in a WAV container.
func EncodeWAV(samples []int16, format Format) ([]byte, error) {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("invalid format %+v", format)
	}

	channels := uint16(format.Channels)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(samples) * 2)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.SampleRate) * uint32(channels) * uint32(bitsPerSample) / 8,
		BlockAlign:    channels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// WAVSink renders scheduled clips onto a timeline in a single format. Clips in
// another rate or channel layout are converted. Gaps are silence and a clip
// overwrites whatever it overlaps.
type WAVSink struct {
	mu       sync.Mutex
	format   Format
	timeline []int16
}

// NewWAVSink renders onto a timeline in format.
func NewWAVSink(format Format) *WAVSink {
	return &WAVSink{format: format}
}

// Play writes clip onto the timeline starting at at.
func (s *WAVSink) Play(at time.Duration, clip Clip) error {
	clip = clip.Convert(s.format)
	if at < 0 {
		at = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offset := int(at*time.Duration(s.format.SampleRate)/time.Second) * s.format.Channels
	end := offset + len(clip.Samples)
	if end > len(s.timeline) {
		s.timeline = append(s.timeline, make([]int16, end-len(s.timeline))...)
	}
	copy(s.timeline[offset:end], clip.Samples)
	return nil
}

// Length is the duration of the rendered timeline.
func (s *WAVSink) Length() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clip{Samples: s.timeline, Format: s.format}.Duration()
}

// WriteTo writes the timeline as a WAV file.
func (s *WAVSink) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	data, err := EncodeWAV(s.timeline, s.format)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
