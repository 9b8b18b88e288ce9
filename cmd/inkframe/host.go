package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/1set/inkframe"
)

// interfaceNetwork treats the host as associated when any non-loopback
// interface is up. Association itself is the operating system's job.
type interfaceNetwork struct{}

func (interfaceNetwork) Connect(ctx context.Context) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp != 0 && ifc.Flags&net.FlagLoopback == 0 {
			return nil
		}
	}
	return inkframe.ErrNotConnected
}

// dirStorage stands in for the SD card: mounting means the artifact
// directory exists.
type dirStorage struct {
	dir string
}

func (s dirStorage) Mount() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", inkframe.ErrNotMounted, err)
	}
	return nil
}

func (dirStorage) Unmount() error { return nil }

type logIndicator struct {
	logger *slog.Logger
}

func (l logIndicator) On()  { l.logger.Debug("indicator on") }
func (l logIndicator) Off() { l.logger.Debug("indicator off") }
