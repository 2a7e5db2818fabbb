package camera

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shelfscan/backend/internal/domain"
)

// Mode selects how a directory device produces frames
type Mode string

const (
	// ModeReplay plays back the images already in the directory
	ModeReplay Mode = "replay"
	// ModeWatch emits every image written into the directory
	ModeWatch Mode = "watch"
)

// Options configures a DirectoryCamera
type Options struct {
	Mode          Mode
	FrameInterval time.Duration
	Loop          bool
}

// DirectoryCamera exposes image directories as camera devices. Each device
// can be held by one stream at a time.
type DirectoryCamera struct {
	devices []domain.Device
	opts    Options

	mu   sync.Mutex
	held map[string]bool
}

// NewDirectoryCamera creates a camera over the given devices
func NewDirectoryCamera(devices []domain.Device, opts Options) *DirectoryCamera {
	if opts.Mode == "" {
		opts.Mode = ModeReplay
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 200 * time.Millisecond
	}

	return &DirectoryCamera{
		devices: append([]domain.Device(nil), devices...),
		opts:    opts,
		held:    make(map[string]bool),
	}
}

// ListDevices returns the configured devices in declaration order
func (c *DirectoryCamera) ListDevices(ctx context.Context) ([]domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Device(nil), c.devices...), nil
}

// Open acquires a device and starts its frame stream
func (c *DirectoryCamera) Open(ctx context.Context, deviceID string) (domain.FrameStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err)
	}

	device, ok := c.find(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, deviceID)
	}

	info, err := os.Stat(device.Path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a readable directory", domain.ErrCameraUnavailable, device.Path)
	}

	if err := c.hold(device.ID); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &dirStream{
		device:  device,
		frames:  make(chan domain.Frame),
		cancel:  cancel,
		done:    make(chan struct{}),
		release: func() { c.unhold(device.ID) },
	}

	switch c.opts.Mode {
	case ModeWatch:
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			err = watcher.Add(device.Path)
			if err != nil {
				watcher.Close()
			}
		}
		if err != nil {
			cancel()
			c.unhold(device.ID)
			return nil, fmt.Errorf("%w: watch %s: %v", domain.ErrCameraUnavailable, device.Path, err)
		}
		go s.watch(streamCtx, watcher)

	default:
		files, err := listFrames(device.Path)
		if err == nil && len(files) == 0 {
			err = fmt.Errorf("no frames")
		}
		if err != nil {
			cancel()
			c.unhold(device.ID)
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCameraUnavailable, device.Path, err)
		}
		go s.replay(streamCtx, files, c.opts.FrameInterval, c.opts.Loop)
	}

	log.Printf("[Camera] Opened %s (%s) in %s mode", device.ID, device.Label, c.opts.Mode)
	return s, nil
}

func (c *DirectoryCamera) find(id string) (domain.Device, bool) {
	for _, d := range c.devices {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Device{}, false
}

func (c *DirectoryCamera) hold(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held[id] {
		return fmt.Errorf("%w: %s", domain.ErrDeviceBusy, id)
	}
	c.held[id] = true
	return nil
}

func (c *DirectoryCamera) unhold(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, id)
}

// Held reports whether a stream currently owns the device
func (c *DirectoryCamera) Held(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held[id]
}

// dirStream is one open device
type dirStream struct {
	device  domain.Device
	frames  chan domain.Frame
	cancel  context.CancelFunc
	done    chan struct{}
	release func()

	closeOnce sync.Once
	seq       uint64
	skipped   atomic.Uint64
}

func (s *dirStream) Device() domain.Device {
	return s.device
}

func (s *dirStream) Frames() <-chan domain.Frame {
	return s.frames
}

// Close stops the producer and releases the device
func (s *dirStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.release()
		log.Printf("[Camera] Released %s", s.device.ID)
	})
	return nil
}

// emit loads path and sends it downstream. It returns false once the stream
// is cancelled.
func (s *dirStream) emit(ctx context.Context, path string) bool {
	img, err := loadImage(path)
	if err != nil {
		s.skipped.Add(1)
		log.Printf("[Camera] Skipping frame on %s: %v", s.device.ID, err)
		return ctx.Err() == nil
	}

	s.seq++
	frame := domain.Frame{
		Seq:        s.seq,
		Image:      img,
		Source:     path,
		CapturedAt: time.Now(),
	}

	select {
	case s.frames <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *dirStream) replay(ctx context.Context, files []string, interval time.Duration, loop bool) {
	defer close(s.done)
	defer close(s.frames)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Only the very first file skips the ticker, even if it fails to load
	first := true
	for {
		for _, path := range files {
			if !first {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
			first = false
			if !s.emit(ctx, path) {
				return
			}
		}
		if !loop {
			return
		}
	}
}

func (s *dirStream) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(s.done)
	defer close(s.frames)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) || !isImageFile(event.Name) {
				continue
			}
			if !s.emit(ctx, event.Name) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Camera] Watch error on %s: %v", s.device.ID, err)
		}
	}
}
