package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const outputRate beep.SampleRate = 44100

const resampleQuality = 4

// BeepPlayer plays wav, ogg and flac files through the default audio device.
// The speaker is opened on first use and shared by later calls.
type BeepPlayer struct {
	once    sync.Once
	initErr error
}

func NewBeepPlayer() *BeepPlayer {
	return &BeepPlayer{}
}

// Play decodes path and queues it on the speaker. It returns once playback
// has started.
func (p *BeepPlayer) Play(path string) error {
	streamer, format, err := open(path)
	if err != nil {
		return err
	}

	p.once.Do(func() {
		p.initErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
	})
	if p.initErr != nil {
		streamer.Close()
		return fmt.Errorf("open audio device: %w", p.initErr)
	}

	var s beep.Streamer = streamer
	if format.SampleRate != outputRate {
		s = beep.Resample(resampleQuality, format.SampleRate, outputRate, streamer)
	}
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		streamer.Close()
	})))
	return nil
}

// open decodes a sound file by extension. The returned streamer owns the
// file and closes it.
func open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".ogg", ".oga", ".flac":
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported sound format: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}
