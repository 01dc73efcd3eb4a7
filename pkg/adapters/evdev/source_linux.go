//go:build linux

package evdev

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
	evdev "github.com/holoplot/go-evdev"
)

var buttonCodes = map[evdev.EvCode]int{
	evdev.BTN_SOUTH:      domain.ButtonA,
	evdev.BTN_EAST:       domain.ButtonB,
	evdev.BTN_WEST:       domain.ButtonX,
	evdev.BTN_NORTH:      domain.ButtonY,
	evdev.BTN_TL:         domain.ButtonLB,
	evdev.BTN_TR:         domain.ButtonRB,
	evdev.BTN_TL2:        domain.ButtonLT,
	evdev.BTN_TR2:        domain.ButtonRT,
	evdev.BTN_SELECT:     domain.ButtonBack,
	evdev.BTN_START:      domain.ButtonStart,
	evdev.BTN_THUMBL:     domain.ButtonLS,
	evdev.BTN_THUMBR:     domain.ButtonRS,
	evdev.BTN_DPAD_UP:    domain.ButtonUp,
	evdev.BTN_DPAD_DOWN:  domain.ButtonDown,
	evdev.BTN_DPAD_LEFT:  domain.ButtonLeft,
	evdev.BTN_DPAD_RIGHT: domain.ButtonRight,
	evdev.BTN_MODE:       domain.ButtonHome,
}

var triggerAxes = map[evdev.EvCode]int{
	evdev.ABS_Z:  domain.ButtonLT,
	evdev.ABS_RZ: domain.ButtonRT,
}

// DefaultRescanInterval bounds how often discovery runs while polling.
const DefaultRescanInterval = 2 * time.Second

type device struct {
	dev       *evdev.InputDevice
	path      string
	name      string
	index     int
	state     padState
	ranges    map[evdev.EvCode]evdev.AbsInfo
	connected bool
}

// Source implements ports.GamepadSource over /dev/input/event* devices.
type Source struct {
	mu      sync.Mutex
	paths   []string
	rescan  time.Duration
	logger  *slog.Logger
	devices map[string]*device
	indices map[string]int
	scanned time.Time
	closed  bool
}

// Option configures the Source.
type Option func(*Source)

// WithDevices restricts polling to the given device paths instead of
// discovering every gamepad.
func WithDevices(paths ...string) Option {
	return func(s *Source) {
		s.paths = append(s.paths, paths...)
	}
}

// WithRescanInterval sets how often unplugged or new devices are looked for.
func WithRescanInterval(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.rescan = d
		}
	}
}

// WithLogger configures a logger for device discovery.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a source. Devices are opened lazily on the first poll.
func New(opts ...Option) *Source {
	s := &Source{
		rescan:  DefaultRescanInterval,
		logger:  logging.NewNop(),
		devices: make(map[string]*device),
		indices: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Gamepads drains pending events from every open device and returns one
// snapshot per known pad, ordered by index.
func (s *Source) Gamepads() ([]domain.Gamepad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("evdev source closed: %w", domain.ErrSourceUnavailable)
	}

	if time.Since(s.scanned) >= s.rescan {
		s.scanned = time.Now()
		if err := s.discover(); err != nil && len(s.devices) == 0 {
			return nil, err
		}
	}

	pads := make([]domain.Gamepad, 0, len(s.devices))
	for _, d := range s.devices {
		if d.connected {
			s.drain(d)
		}
		pads = append(pads, d.state.snapshot(d.index, d.name, d.connected))
	}
	sort.Slice(pads, func(i, j int) bool { return pads[i].Index < pads[j].Index })
	return pads, nil
}

// Close releases every open device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, d := range s.devices {
		if d.dev != nil {
			if err := d.dev.Close(); err != nil && !isDeviceClosedError(err) {
				errs = append(errs, fmt.Errorf("close %s: %w", d.path, err))
			}
		}
	}
	s.devices = map[string]*device{}
	return errors.Join(errs...)
}

func (s *Source) discover() error {
	paths := s.paths
	if len(paths) == 0 {
		found, err := evdev.ListDevicePaths()
		if err != nil {
			return fmt.Errorf("list input devices: %w: %w", domain.ErrSourceUnavailable, err)
		}
		for _, p := range found {
			paths = append(paths, p.Path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		if d, ok := s.devices[path]; ok && d.connected {
			continue
		}
		dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
		if err != nil {
			s.logger.Debug("Skipping input device", "path", path, "err", err)
			continue
		}
		if !isGamepad(dev) {
			_ = dev.Close()
			continue
		}
		if err := dev.NonBlock(); err != nil {
			s.logger.Warn("Failed to set nonblocking mode", "path", path, "err", err)
			_ = dev.Close()
			continue
		}

		name, _ := dev.Name()
		ranges, err := dev.AbsInfos()
		if err != nil {
			ranges = map[evdev.EvCode]evdev.AbsInfo{}
		}
		index, ok := s.indices[path]
		if !ok {
			index = len(s.indices)
			s.indices[path] = index
		}
		s.devices[path] = &device{
			dev:       dev,
			path:      path,
			name:      name,
			index:     index,
			ranges:    ranges,
			connected: true,
		}
		s.logger.Info("Gamepad connected", "path", path, "name", name, "index", index)
	}
	return nil
}

func (s *Source) drain(d *device) {
	for {
		events, err := d.dev.ReadSlice(64)
		if err != nil {
			if isWouldBlockError(err) {
				return
			}
			if isDeviceClosedError(err) {
				s.logger.Info("Gamepad disconnected", "path", d.path, "index", d.index)
			} else {
				s.logger.Warn("Gamepad read failed", "path", d.path, "err", err)
			}
			_ = d.dev.Close()
			d.connected = false
			d.state = padState{}
			return
		}
		for _, ev := range events {
			apply(d, ev)
		}
		if len(events) == 0 {
			return
		}
	}
}

func apply(d *device, ev evdev.InputEvent) {
	switch ev.Type {
	case evdev.EV_KEY:
		if idx, ok := buttonCodes[ev.Code]; ok {
			// Value 2 is autorepeat, still held.
			d.state.setButton(idx, ev.Value != 0)
		}
	case evdev.EV_ABS:
		switch ev.Code {
		case evdev.ABS_HAT0X:
			d.state.setHat(domain.ButtonLeft, domain.ButtonRight, ev.Value)
		case evdev.ABS_HAT0Y:
			d.state.setHat(domain.ButtonUp, domain.ButtonDown, ev.Value)
		default:
			if idx, ok := triggerAxes[ev.Code]; ok {
				info := d.ranges[ev.Code]
				d.state.setAnalog(idx, normalize(ev.Value, info.Minimum, info.Maximum))
			}
		}
	}
}

// List reports every readable input device and whether it looks like a gamepad.
func List() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w: %w", domain.ErrSourceUnavailable, err)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Path < paths[j].Path })

	out := make([]DeviceInfo, 0, len(paths))
	for _, p := range paths {
		dev, err := evdev.OpenWithFlags(p.Path, os.O_RDONLY)
		if err != nil {
			continue
		}
		name := p.Name
		if actual, err := dev.Name(); err == nil && actual != "" {
			name = actual
		}
		out = append(out, DeviceInfo{
			Path:    p.Path,
			Name:    name,
			Gamepad: isGamepad(dev),
			Virtual: isVirtual(dev, name),
		})
		_ = dev.Close()
	}
	return out, nil
}

func isGamepad(dev *evdev.InputDevice) bool {
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		if code == evdev.BTN_SOUTH {
			return true
		}
	}
	return false
}

func isVirtual(dev *evdev.InputDevice, name string) bool {
	id, err := dev.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "virtual") || strings.Contains(lower, "uinput")
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
