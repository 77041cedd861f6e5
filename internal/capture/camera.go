// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// CameraPhotoName is the file name given to captured frames.
const CameraPhotoName = "camera_photo.jpg"

// DefaultCameraCommand grabs one MJPEG frame from the first V4L2 device to stdout.
const DefaultCameraCommand = "ffmpeg -hide_banner -loglevel error -f v4l2 -i /dev/video0 -frames:v 1 -f image2pipe -vcodec mjpeg -"

var (
	ErrCameraClosed      = errors.New("camera is not open")
	ErrCameraUnavailable = errors.New("camera command not available")
)

// Camera captures still frames. Its only state is open or closed.
type Camera interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context) (*Image, error)
	Close() error
	IsOpen() bool
}

// =============================================================================
// COMMAND CAMERA
// =============================================================================

// CommandCamera runs an external frame grabber and re-encodes its output as JPEG.
type CommandCamera struct {
	mu      sync.Mutex
	argv    []string
	timeout time.Duration
	open    bool

	// run executes argv and returns stdout. Replaced in tests.
	run func(ctx context.Context, argv []string) ([]byte, error)
}

// NewCommandCamera creates a camera from a shell-style command line.
// An empty command uses DefaultCameraCommand.
func NewCommandCamera(command string) *CommandCamera {
	if strings.TrimSpace(command) == "" {
		command = DefaultCameraCommand
	}
	return &CommandCamera{
		argv:    strings.Fields(command),
		timeout: 15 * time.Second,
		run:     runCommand,
	}
}

// Open checks that the grabber is installed and marks the camera open.
func (c *CommandCamera) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return nil
	}
	if len(c.argv) == 0 {
		return ErrCameraUnavailable
	}
	if _, err := exec.LookPath(c.argv[0]); err != nil {
		return fmt.Errorf("%w: %s", ErrCameraUnavailable, c.argv[0])
	}
	c.open = true
	slog.Debug("CAMERA_OPEN", "command", c.argv[0])
	return nil
}

// Capture grabs one frame.
func (c *CommandCamera) Capture(ctx context.Context) (*Image, error) {
	c.mu.Lock()
	open, argv := c.open, c.argv
	c.mu.Unlock()
	if !open {
		return nil, ErrCameraClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, argv)
	if err != nil {
		return nil, fmt.Errorf("camera capture failed: %w", err)
	}
	img, err := ToJPEG(CameraPhotoName, out)
	if err != nil {
		return nil, fmt.Errorf("camera returned an unreadable frame: %w", err)
	}
	slog.Debug("CAMERA_CAPTURE", "bytes", img.Size())
	return img, nil
}

// Close marks the camera closed. Closing twice is a no-op.
func (c *CommandCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// IsOpen reports whether the camera is open.
func (c *CommandCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
