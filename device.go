package gfxpipe

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
)

// DeviceLimits carries the physical limits pipeline creation consults.
type DeviceLimits struct {
	PointSizeMin float32
	PointSizeMax float32
	StrictLines  bool
}

func defaultLimits() DeviceLimits {
	return DeviceLimits{PointSizeMin: 1, PointSizeMax: 64}
}

type deviceSettings struct {
	disableCompilation bool
	dumpPipelines      bool
}

// Device is a group of accelerators that create and bind pipelines in
// lockstep. Every hardware object is replicated once per encoder; creation
// is all-or-nothing across the group.
type Device struct {
	encoders  []DeviceEncoder
	providers []gpucontext.DeviceProvider
	compiler  ShaderCompiler
	limits    DeviceLimits
	settings  deviceSettings

	cache *RenderStateCache

	pipelineCacheCount atomic.Int32
	closed             atomic.Bool
}

// DeviceOption configures a Device at construction.
type DeviceOption func(*Device)

// WithCompiler sets the shader compiler. Required unless compilation is
// disabled.
func WithCompiler(c ShaderCompiler) DeviceOption {
	return func(d *Device) { d.compiler = c }
}

// WithDeviceProviders attaches gpucontext providers, one per encoder, so
// callers can reach the underlying adapter and queue of each group member.
func WithDeviceProviders(providers ...gpucontext.DeviceProvider) DeviceOption {
	return func(d *Device) { d.providers = providers }
}

// WithLimits overrides the default physical limits.
func WithLimits(l DeviceLimits) DeviceOption {
	return func(d *Device) { d.limits = l }
}

// WithPipelineDump forwards every pipeline's compiler inputs to the
// compiler's dump sink before building.
func WithPipelineDump() DeviceOption {
	return func(d *Device) { d.settings.dumpPipelines = true }
}

// WithCompilationDisabled skips the compiler entirely. Pipelines are created
// with an empty binary; useful for dump-only and state-tracking test runs.
func WithCompilationDisabled() DeviceOption {
	return func(d *Device) { d.settings.disableCompilation = true }
}

// NewDevice creates a device group over the given encoders, one per
// accelerator.
func NewDevice(encoders []DeviceEncoder, opts ...DeviceOption) (*Device, error) {
	if len(encoders) == 0 {
		return nil, fmt.Errorf("%w: no device encoders", ErrInvalidDescription)
	}
	if len(encoders) > MaxDeviceGroupSize {
		return nil, fmt.Errorf("%w: device group size %d exceeds %d",
			ErrInvalidDescription, len(encoders), MaxDeviceGroupSize)
	}
	for i, enc := range encoders {
		if enc == nil {
			return nil, fmt.Errorf("%w: nil encoder at index %d", ErrInvalidDescription, i)
		}
	}
	d := &Device{
		encoders: encoders,
		limits:   defaultLimits(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.compiler == nil && !d.settings.disableCompilation {
		return nil, fmt.Errorf("%w: no shader compiler configured", ErrInvalidDescription)
	}
	if len(d.providers) != 0 && len(d.providers) != len(encoders) {
		return nil, fmt.Errorf("%w: %d providers for %d encoders",
			ErrInvalidDescription, len(d.providers), len(encoders))
	}
	d.cache = newRenderStateCache(d)
	Logger().Info("device group created", "devices", len(encoders))
	return d, nil
}

// NumDevices reports the group size.
func (d *Device) NumDevices() int { return len(d.encoders) }

// Limits reports the device limits in effect.
func (d *Device) Limits() DeviceLimits { return d.limits }

// StateCache returns the shared render state cache.
func (d *Device) StateCache() *RenderStateCache { return d.cache }

// Provider returns the gpucontext provider for one group member, or nil if
// providers were not attached.
func (d *Device) Provider(deviceIndex int) gpucontext.DeviceProvider {
	if deviceIndex < 0 || deviceIndex >= len(d.providers) {
		return nil
	}
	return d.providers[deviceIndex]
}

// AddPipelineCache registers an externally created pipeline cache with the
// device for leak accounting at teardown.
func (d *Device) AddPipelineCache() { d.pipelineCacheCount.Add(1) }

// RemovePipelineCache unregisters a pipeline cache.
func (d *Device) RemovePipelineCache() { d.pipelineCacheCount.Add(-1) }

// PipelineCacheCount reports the number of live registered pipeline caches.
func (d *Device) PipelineCacheCount() int {
	return int(d.pipelineCacheCount.Load())
}

// Close tears the device down. Live pipelines, state objects, or registered
// pipeline caches at this point are leaks; Close reports them through the
// logger and returns nil so teardown always completes.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if n := d.pipelineCacheCount.Load(); n != 0 {
		Logger().Warn("device closed with live pipeline caches", "count", n)
	}
	d.cache.logLeaks()
	return nil
}
