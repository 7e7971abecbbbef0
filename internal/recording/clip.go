package recording

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"taskboard/internal/service"
)

// AudioContentType is the content type of a finalized clip.
const AudioContentType = "audio/wav"

// Clip is a finalized recording stored as a WAV file.
type Clip struct {
	Path     string
	Duration time.Duration
	Format   beep.Format
}

// Attachment opens the clip for upload. The caller closes the file.
func (c *Clip) Attachment() (*service.Attachment, *os.File, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open recording: %w", err)
	}
	return &service.Attachment{Name: "audio.wav", ContentType: AudioContentType, Data: f}, f, nil
}

// Discard removes the clip file. Discarding twice is not an error.
func (c *Clip) Discard() error {
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// encodeClip writes signed 16-bit little-endian PCM as a WAV file in dir.
func encodeClip(dir string, pcm []byte, format beep.Format) (*Clip, error) {
	buffer := beep.NewBuffer(format)
	buffer.Append(pcmStreamer(pcm, format.NumChannels))

	f, err := os.CreateTemp(dir, "recording-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}
	if err := wav.Encode(f, buffer.Streamer(0, buffer.Len()), format); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to encode recording: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	return &Clip{
		Path:     f.Name(),
		Duration: format.SampleRate.D(buffer.Len()),
		Format:   format,
	}, nil
}

// pcmStreamer streams whole frames of S16LE PCM. Mono input is copied to
// both channels.
func pcmStreamer(pcm []byte, channels int) beep.Streamer {
	if channels < 1 {
		channels = 1
	}
	frame := 2 * channels
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n < len(samples) && pos+frame <= len(pcm) {
			left := float64(int16(binary.LittleEndian.Uint16(pcm[pos:]))) / 32768
			right := left
			if channels > 1 {
				right = float64(int16(binary.LittleEndian.Uint16(pcm[pos+2:]))) / 32768
			}
			samples[n] = [2]float64{left, right}
			n++
			pos += frame
		}
		return n, n > 0
	})
}
