package camera

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shelfscan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, shade uint8) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	img.SetGray(0, 0, color.Gray{Y: 255 - shade})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func nextFrame(t *testing.T, frames <-chan domain.Frame) (domain.Frame, bool) {
	t.Helper()
	select {
	case f, ok := <-frames:
		return f, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return domain.Frame{}, false
	}
}

func newReplayCamera(t *testing.T, loop bool, files ...string) (*DirectoryCamera, string) {
	t.Helper()
	dir := t.TempDir()
	for i, name := range files {
		writePNG(t, filepath.Join(dir, name), uint8(i*40))
	}
	cam := NewDirectoryCamera(
		[]domain.Device{{ID: "desk", Label: "Desk rear camera", Path: dir}},
		Options{Mode: ModeReplay, FrameInterval: 5 * time.Millisecond, Loop: loop},
	)
	return cam, dir
}

func TestDirectoryCamera_ListDevices(t *testing.T) {
	cam := NewDirectoryCamera([]domain.Device{{ID: "a"}, {ID: "b"}}, Options{})

	devices, err := cam.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "a", devices[0].ID)

	// The returned slice is a copy
	devices[0].ID = "mutated"
	again, _ := cam.ListDevices(context.Background())
	assert.Equal(t, "a", again[0].ID)
}

func TestDirectoryCamera_ReplayInOrder(t *testing.T) {
	cam, dir := newReplayCamera(t, false, "002.png", "001.png", "notes.txt", "003.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	stream, err := cam.Open(context.Background(), "desk")
	require.NoError(t, err)
	defer stream.Close()

	var sources []string
	var seqs []uint64
	for {
		f, ok := nextFrame(t, stream.Frames())
		if !ok {
			break
		}
		assert.NotNil(t, f.Image)
		sources = append(sources, filepath.Base(f.Source))
		seqs = append(seqs, f.Seq)
	}

	assert.Equal(t, []string{"001.png", "002.png", "003.png"}, sources)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestDirectoryCamera_ReplayLoops(t *testing.T) {
	cam, _ := newReplayCamera(t, true, "a.png", "b.png")

	stream, err := cam.Open(context.Background(), "desk")
	require.NoError(t, err)
	defer stream.Close()

	for i := 0; i < 5; i++ {
		_, ok := nextFrame(t, stream.Frames())
		require.True(t, ok, "looping stream should not end")
	}
}

func TestDirectoryCamera_SkipsUndecodableFrames(t *testing.T) {
	cam, dir := newReplayCamera(t, false, "good.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644))

	stream, err := cam.Open(context.Background(), "desk")
	require.NoError(t, err)
	defer stream.Close()

	f, ok := nextFrame(t, stream.Frames())
	require.True(t, ok)
	assert.Equal(t, "good.png", filepath.Base(f.Source))

	_, ok = nextFrame(t, stream.Frames())
	assert.False(t, ok)
}

func TestDirectoryCamera_LoopOverBrokenFramesIsPaced(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644))
	cam := NewDirectoryCamera(
		[]domain.Device{{ID: "desk", Path: dir}},
		Options{Mode: ModeReplay, FrameInterval: 50 * time.Millisecond, Loop: true},
	)

	stream, err := cam.Open(context.Background(), "desk")
	require.NoError(t, err)

	time.Sleep(220 * time.Millisecond)
	require.NoError(t, stream.Close())

	attempts := stream.(*dirStream).skipped.Load()
	assert.GreaterOrEqual(t, attempts, uint64(2))
	assert.LessOrEqual(t, attempts, uint64(8), "each retry waits one frame interval")
}

func TestDirectoryCamera_Exclusive(t *testing.T) {
	cam, _ := newReplayCamera(t, true, "a.png")
	ctx := context.Background()

	stream, err := cam.Open(ctx, "desk")
	require.NoError(t, err)
	assert.True(t, cam.Held("desk"))

	_, err = cam.Open(ctx, "desk")
	assert.ErrorIs(t, err, domain.ErrDeviceBusy)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "second close is a no-op")
	assert.False(t, cam.Held("desk"))

	// Stream channel is closed after release
	_, ok := <-stream.Frames()
	assert.False(t, ok)

	reopened, err := cam.Open(ctx, "desk")
	require.NoError(t, err)
	reopened.Close()
}

func TestDirectoryCamera_OpenErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown device", func(t *testing.T) {
		cam, _ := newReplayCamera(t, false, "a.png")
		_, err := cam.Open(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
	})

	t.Run("missing directory", func(t *testing.T) {
		cam := NewDirectoryCamera([]domain.Device{{ID: "x", Path: filepath.Join(t.TempDir(), "missing")}}, Options{})
		_, err := cam.Open(ctx, "x")
		assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
		assert.False(t, cam.Held("x"))
	})

	t.Run("empty directory in replay mode", func(t *testing.T) {
		cam := NewDirectoryCamera([]domain.Device{{ID: "x", Path: t.TempDir()}}, Options{Mode: ModeReplay})
		_, err := cam.Open(ctx, "x")
		assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
		assert.False(t, cam.Held("x"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cam, _ := newReplayCamera(t, false, "a.png")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := cam.Open(cancelled, "desk")
		assert.ErrorIs(t, err, domain.ErrCameraUnavailable)
	})
}

func TestDirectoryCamera_WatchEmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	staging := t.TempDir()

	cam := NewDirectoryCamera(
		[]domain.Device{{ID: "live", Label: "Live", Path: dir}},
		Options{Mode: ModeWatch},
	)

	stream, err := cam.Open(context.Background(), "live")
	require.NoError(t, err)
	defer stream.Close()

	// Stage the file elsewhere so the watcher only sees a complete image
	staged := filepath.Join(staging, "snap-001.png")
	writePNG(t, staged, 10)
	require.NoError(t, os.Rename(staged, filepath.Join(dir, "snap-001.png")))

	f, ok := nextFrame(t, stream.Frames())
	require.True(t, ok)
	assert.Equal(t, "snap-001.png", filepath.Base(f.Source))
	assert.Equal(t, uint64(1), f.Seq)
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, isImageFile("/x/frame.JPG"))
	assert.True(t, isImageFile("frame.webp"))
	assert.False(t, isImageFile("frame.txt"))
	assert.False(t, isImageFile(".frame.png"))
}
