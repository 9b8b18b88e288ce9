package inkframe

import (
	"context"
	"image/color"
)

// Panel is the pixel-level driver of the bistable display. Pixels written with
// SetPixel stay in the driver's frame buffer until Refresh pushes them to glass.
type Panel interface {
	// Bounds returns the native resolution.
	Bounds() (width, height int)
	// Palette lists the colours the panel can show; SetPixel takes indices into it.
	Palette() color.Palette
	SetPixel(x, y int, index uint8)
	// Refresh performs a full physical update.
	Refresh() error
}

// Network associates the device with its network before a fetch.
type Network interface {
	Connect(ctx context.Context) error
}

// Storage makes the artifact, config and state locations available for a cycle.
type Storage interface {
	Mount() error
	Unmount() error
}

// Indicator is a best-effort status light. Implementations must not block.
type Indicator interface {
	On()
	Off()
}

// NetworkFunc adapts a function into a Network.
type NetworkFunc func(ctx context.Context) error

// Connect implements Network. A nil func is treated as always connected.
func (f NetworkFunc) Connect(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

type nopStorage struct{}

func (nopStorage) Mount() error   { return nil }
func (nopStorage) Unmount() error { return nil }

type nopIndicator struct{}

func (nopIndicator) On()  {}
func (nopIndicator) Off() {}
