package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alkime/pagenotes/internal/mp3"
	"github.com/alkime/pagenotes/pkg/channels"
	"github.com/alkime/pagenotes/pkg/collections"
	"github.com/gen2brain/malgo"
)

// ErrTrackEnded is reported by a device recorder whose track was stopped
// while it was still recording.
var ErrTrackEnded = errors.New("capture track ended")

// DeviceConfig describes how the default capture device is opened.
type DeviceConfig struct {
	Format     malgo.FormatType
	Channels   int
	SampleRate int

	// PacketBuffer is how many device packets may queue before new ones
	// are dropped.
	PacketBuffer int
}

// DefaultDeviceConfig is 16kHz mono S16LE, the layout the MP3 encoder takes.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:       malgo.FormatS16,
		Channels:     mp3.DefaultChannels,
		SampleRate:   mp3.DefaultSampleRate,
		PacketBuffer: 64,
	}
}

// DeviceMicrophone captures from the system default input device through
// miniaudio and records MP3.
type DeviceMicrophone struct {
	conf DeviceConfig
}

var _ Microphone = (*DeviceMicrophone)(nil)

func NewDeviceMicrophone(conf DeviceConfig) *DeviceMicrophone {
	return &DeviceMicrophone{conf: conf}
}

// IsTypeSupported reports true only for MP3. Container formats such as WebM
// or Ogg are not produced by this runtime.
func (m *DeviceMicrophone) IsTypeSupported(mimeType string) bool {
	return mimeType == mp3.MimeType
}

// Acquire opens and starts the capture device. Packets are dropped until a
// recorder starts consuming them.
func (m *DeviceMicrophone) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire abandoned: %w", err)
	}

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize malgo context: %w", ErrUnsupported, err)
	}

	packets := make(chan []byte, m.conf.PacketBuffer)

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = m.conf.Format
	devCnf.Capture.Channels = uint32(m.conf.Channels)
	devCnf.SampleRate = uint32(m.conf.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			packet := make([]byte, len(samples))
			copy(packet, samples)
			_ = channels.SendNonBlock(packets, packet)
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return nil, fmt.Errorf("%w: failed to initialize malgo device: %w", ErrDenied, err)
	}

	if err := mgDevice.Start(); err != nil {
		mgDevice.Uninit()
		uninitializeContext(mgCtx)
		return nil, fmt.Errorf("%w: failed to start malgo device: %w", ErrDenied, err)
	}

	track := &deviceTrack{
		id:       "default-capture",
		mgCtx:    mgCtx,
		mgDevice: mgDevice,
		packets:  packets,
	}

	if ctx.Err() != nil {
		track.Stop()
		return nil, fmt.Errorf("acquire abandoned: %w", ctx.Err())
	}

	return &deviceStream{track: track}, nil
}

// NewRecorder creates an MP3 recorder over a stream returned by Acquire.
func (m *DeviceMicrophone) NewRecorder(stream Stream, mimeType string) (Recorder, error) {
	ds, ok := stream.(*deviceStream)
	if !ok || ds == nil {
		return nil, fmt.Errorf("stream %T was not acquired from this device", stream)
	}

	if mimeType != "" && mimeType != mp3.MimeType {
		return nil, fmt.Errorf("unsupported recorder type %q", mimeType)
	}

	return &mp3Recorder{
		packets: ds.track.packets,
		conf: mp3.EncoderConfig{
			SampleRate: m.conf.SampleRate,
			Channels:   m.conf.Channels,
		}.WithDefaults(),
		events: make(chan Event, 256),
	}, nil
}

type deviceStream struct {
	track *deviceTrack
}

func (s *deviceStream) Tracks() []Track {
	return []Track{s.track}
}

type deviceTrack struct {
	id       string
	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
	packets  chan []byte
	once     sync.Once
}

func (t *deviceTrack) ID() string { return t.id }

// Stop halts the device, releases it and closes the packet channel.
func (t *deviceTrack) Stop() {
	t.once.Do(func() {
		if err := t.mgDevice.Stop(); err != nil {
			slog.Warn("failed to stop malgo device", "error", err)
		}
		t.mgDevice.Uninit()
		uninitializeContext(t.mgCtx)
		close(t.packets)
	})
}

// mp3Recorder feeds device packets through a streaming MP3 encoder. Each
// encoded batch becomes one DataAvailable event.
type mp3Recorder struct {
	packets <-chan []byte
	conf    mp3.EncoderConfig
	events  chan Event

	mu      sync.Mutex
	state   RecorderState
	started bool
	stop    context.CancelFunc
}

func (r *mp3Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("recorder already started")
	}

	pcm := make(chan []byte, cap(r.packets))

	enc, err := mp3.NewStreamingEncoder(r.conf, pcm, eventWriter{events: r.events})
	if err != nil {
		return fmt.Errorf("failed to create mp3 encoder: %w", err)
	}

	if err := enc.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start mp3 encoder: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())

	r.started = true
	r.state = RecorderRecording
	r.stop = stop

	go r.feed(ctx, pcm)
	go r.finish(enc)

	return nil
}

// feed forwards packets to the encoder until Stop or the track ends.
func (r *mp3Recorder) feed(ctx context.Context, pcm chan<- []byte) {
	defer close(pcm)

	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-r.packets:
			if !ok {
				r.events <- Errored{Err: ErrTrackEnded}
				return
			}

			if err := channels.SendContext(ctx, pcm, packet); err != nil {
				return
			}
		}
	}
}

func (r *mp3Recorder) finish(enc *mp3.StreamingEncoder) {
	if err := enc.Wait(); err != nil {
		r.events <- Errored{Err: err}
	}

	r.mu.Lock()
	r.state = RecorderInactive
	r.mu.Unlock()

	r.events <- Stopped{}
	close(r.events)
}

func (r *mp3Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording {
		return nil
	}

	r.stop()

	return nil
}

func (r *mp3Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

func (r *mp3Recorder) MimeType() string { return mp3.MimeType }

func (r *mp3Recorder) Events() <-chan Event { return r.events }

type eventWriter struct {
	events chan<- Event
}

func (w eventWriter) Write(p []byte) (int, error) {
	w.events <- DataAvailable{Chunk: p}
	return len(p), nil
}

// Info describes one capture device.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

// EnumerateDevices lists the capture devices miniaudio can see.
func EnumerateDevices() ([]Info, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(mgCtx)

	devices, err := mgCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(devices, deviceInfo), nil
}

func deviceInfo(mdi malgo.DeviceInfo) Info {
	formats := collections.Apply(mdi.Formats, func(f malgo.DataFormat) string {
		return fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(f.Format), f.Channels, f.SampleRate)
	})

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(mgCtx *malgo.AllocatedContext) {
	if mgCtx == nil {
		return
	}

	if err := mgCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	mgCtx.Free()
}
