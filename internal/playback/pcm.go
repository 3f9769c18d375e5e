package playback

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/banndicoot-king/stream-pru/internal/proto"
)

var (
	// ErrMissingPayload is returned for a media frame without audio.
	ErrMissingPayload = errors.New("missing PCM payload")
	// ErrOddPayload is returned when the payload is not a whole number of 16-bit samples.
	ErrOddPayload = errors.New("PCM payload has odd length")
	// ErrUnsupportedFormat is returned for bit depths other than 16.
	ErrUnsupportedFormat = errors.New("unsupported PCM format")
)

// Format describes linear PCM.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is 8 kHz mono 16-bit, the telephony default.
func DefaultFormat() Format {
	return Format{SampleRate: 8000, Channels: 1, BitDepth: 16}
}

// Resolve overlays the fields a frame carries on top of f.
func (f Format) Resolve(mf *proto.MediaFormat) Format {
	if mf == nil {
		return f
	}
	if mf.SampleRate > 0 {
		f.SampleRate = mf.SampleRate
	}
	if mf.Channels > 0 {
		f.Channels = mf.Channels
	}
	if mf.BitDepth > 0 {
		f.BitDepth = mf.BitDepth
	}
	return f
}

// Clip is decoded audio ready to be scheduled. Samples are interleaved.
type Clip struct {
	Samples []int16
	Format  Format
}

// Frames is the number of sample frames (samples per channel).
func (c Clip) Frames() int {
	if c.Format.Channels <= 0 {
		return len(c.Samples)
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration is the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.Format.SampleRate)
}

// Convert returns the clip at the sample rate and channel count of to. Rates are
// converted by linear interpolation; channels are averaged down or copied up.
func (c Clip) Convert(to Format) Clip {
	from := c.Format
	if from.SampleRate <= 0 || from.Channels <= 0 || to.SampleRate <= 0 || to.Channels <= 0 {
		return c
	}
	if from.SampleRate == to.SampleRate && from.Channels == to.Channels {
		return c
	}

	frames := c.Frames()
	mixed := make([]int16, frames*to.Channels)
	for f := range frames {
		src := c.Samples[f*from.Channels : (f+1)*from.Channels]
		for ch := range to.Channels {
			mixed[f*to.Channels+ch] = mixChannel(src, ch, to.Channels)
		}
	}

	out := Clip{Samples: mixed, Format: from}
	out.Format.Channels = to.Channels
	if from.SampleRate != to.SampleRate {
		out.Samples = resample(mixed, to.Channels, from.SampleRate, to.SampleRate)
	}
	out.Format.SampleRate = to.SampleRate
	return out
}

func mixChannel(frame []int16, ch, channels int) int16 {
	switch {
	case len(frame) == channels:
		return frame[ch]
	case channels == 1:
		sum := 0
		for _, s := range frame {
			sum += int(s)
		}
		return int16(sum / len(frame))
	default:
		return frame[ch%len(frame)]
	}
}

// resample converts interleaved samples between rates, keeping the duration.
func resample(samples []int16, channels, fromRate, toRate int) []int16 {
	inFrames := len(samples) / channels
	outFrames := int((int64(inFrames)*int64(toRate) + int64(fromRate)/2) / int64(fromRate))
	if inFrames == 0 || outFrames == 0 {
		return nil
	}

	out := make([]int16, outFrames*channels)
	step := float64(fromRate) / float64(toRate)
	for i := range outFrames {
		pos := float64(i) * step
		j := int(pos)
		if j >= inFrames {
			j = inFrames - 1
		}
		next := min(j+1, inFrames-1)
		frac := pos - float64(j)
		for ch := range channels {
			a := float64(samples[j*channels+ch])
			b := float64(samples[next*channels+ch])
			out[i*channels+ch] = int16(a + (b-a)*frac)
		}
	}
	return out
}

// DecodePCM decodes a base64 payload of signed 16-bit little-endian samples.
func DecodePCM(payload string, format Format) (Clip, error) {
	if payload == "" {
		return Clip{}, ErrMissingPayload
	}
	if format.BitDepth != 16 || format.SampleRate <= 0 || format.Channels <= 0 {
		return Clip{}, fmt.Errorf("%w: %+v", ErrUnsupportedFormat, format)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Clip{}, fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) == 0 {
		return Clip{}, ErrMissingPayload
	}
	if len(raw)%2 != 0 {
		return Clip{}, ErrOddPayload
	}

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return Clip{Samples: samples, Format: format}, nil
}

// EncodePCM is the inverse of DecodePCM.
func EncodePCM(samples []int16) string {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}
