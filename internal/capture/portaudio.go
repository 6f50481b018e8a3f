package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

const (
	// DefaultSampleRate matches what speech backends expect.
	DefaultSampleRate = 16000
	defaultFrames     = 1024
)

// PortAudioDevice records mono 16-bit PCM from the default input device.
type PortAudioDevice struct {
	sampleRate int
	frames     int
	log        zerolog.Logger
}

// NewPortAudioDevice creates a microphone device at the given sample rate.
func NewPortAudioDevice(sampleRate int, log zerolog.Logger) *PortAudioDevice {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &PortAudioDevice{sampleRate: sampleRate, frames: defaultFrames, log: log}
}

// Open initializes PortAudio and starts reading the default input stream.
func (d *PortAudioDevice) Open(ctx context.Context, onChunk func([]byte)) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	buf := make([]int16, d.frames)
	s, err := portaudio.OpenDefaultStream(1, 0, float64(d.sampleRate), len(buf), buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	if err := s.Start(); err != nil {
		_ = s.Close()
		_ = portaudio.Terminate()
		return nil, err
	}

	ps := &portAudioStream{
		stream: s,
		buf:    buf,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		log:    d.log,
	}
	go ps.read(onChunk)
	return ps, nil
}

// Encode wraps little-endian PCM chunks into a WAV file.
func (d *PortAudioDevice) Encode(chunks [][]byte) ([]byte, string, error) {
	data, err := EncodeWAV(chunks, d.sampleRate)
	if err != nil {
		return nil, "", err
	}
	return data, "audio/wav", nil
}

// Probe opens and closes the default input device without recording.
func (d *PortAudioDevice) Probe() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	if _, err := portaudio.DefaultInputDevice(); err != nil {
		return err
	}
	return nil
}

type portAudioStream struct {
	stream *portaudio.Stream
	buf    []int16
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	err    error
	log    zerolog.Logger
}

func (s *portAudioStream) read(onChunk func([]byte)) {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			s.log.Warn().Err(err).Msg("read microphone")
			return
		}

		chunk := make([]byte, len(s.buf)*2)
		for i, sample := range s.buf {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		onChunk(chunk)
	}
}

// Stop waits for the reader to exit, then closes the hardware stream.
func (s *portAudioStream) Stop() error {
	s.once.Do(func() {
		close(s.stop)
		<-s.done

		s.err = errors.Join(s.stream.Stop(), s.stream.Close(), portaudio.Terminate())
	})
	return s.err
}
