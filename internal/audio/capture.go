// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// DefaultSampleRate is what the whisper models expect
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is the capture buffer size
	DefaultFramesPerBuffer = 512

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// CaptureConfig holds configuration for microphone capture
type CaptureConfig struct {
	SampleRate float64
	BufferSize int
	Channels   int

	// DeviceName selects the input device, empty means system default
	DeviceName string
}

// DefaultCaptureConfig returns the standard dictation configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
		Channels:   DefaultChannels,
	}
}

// Capture reads microphone input and delivers sample buffers on a channel
type Capture struct {
	mu          sync.RWMutex
	stream      *portaudio.Stream
	sampleRate  float64
	bufferSize  int
	channels    int
	deviceName  string
	running     bool
	outputChan  chan []float32
	initialized bool
}

// NewCapture initializes PortAudio and prepares a capture instance
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Capture{
		sampleRate:  cfg.SampleRate,
		bufferSize:  cfg.BufferSize,
		channels:    cfg.Channels,
		deviceName:  cfg.DeviceName,
		outputChan:  make(chan []float32, 100),
		initialized: true,
	}, nil
}

// Start opens the stream and begins delivering buffers
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]float32, c.bufferSize)

	var stream *portaudio.Stream
	var err error

	if c.deviceName != "" && c.deviceName != "default" {
		device, findErr := c.findDeviceByName(c.deviceName)
		if findErr != nil {
			// Fall back to default if device not found
			stream, err = portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.bufferSize, buffer)
		} else {
			streamParams := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: c.channels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      c.sampleRate,
				FramesPerBuffer: c.bufferSize,
			}
			stream, err = portaudio.OpenStream(streamParams, buffer)
		}
	} else {
		stream, err = portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.bufferSize, buffer)
	}

	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	c.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.running = true

	go c.captureLoop(ctx, buffer)

	return nil
}

func (c *Capture) findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("device not found: %s", name)
}

func (c *Capture) captureLoop(ctx context.Context, buffer []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			c.mu.RLock()
			if !c.running || c.stream == nil {
				c.mu.RUnlock()
				return
			}
			stream := c.stream
			c.mu.RUnlock()

			if err := stream.Read(); err != nil {
				c.mu.RLock()
				stillRunning := c.running
				c.mu.RUnlock()
				if !stillRunning {
					return
				}
				continue
			}

			samples := make([]float32, len(buffer))
			copy(samples, buffer)

			select {
			case c.outputChan <- samples:
			default:
				// Channel full, skip this buffer
			}
		}
	}
}

// Stop stops the stream without releasing PortAudio
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	c.running = false

	if c.stream != nil {
		c.stream.Stop()
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("failed to close audio stream: %w", err)
		}
		c.stream = nil
	}

	return nil
}

// Close stops the stream and terminates PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate PortAudio: %w", err)
		}
		c.initialized = false
	}

	close(c.outputChan)
	return nil
}

// Output returns the channel sample buffers are delivered on
func (c *Capture) Output() <-chan []float32 {
	return c.outputChan
}

// IsRunning returns whether capture is active
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// SampleRate returns the configured sample rate
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// DeviceInfo describes an input device for the devices command
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices enumerates the available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultInputName string
	if defaultInput != nil {
		defaultInputName = defaultInput.Name
	}

	var inputDevices []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputDevices = append(inputDevices, DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultInputName,
			})
		}
	}

	return inputDevices, nil
}
