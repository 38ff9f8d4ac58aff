package gfxpipe

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by pipeline creation. Wrap-aware: match with
// errors.Is, details ride along via fmt.Errorf("%w: ...").
var (
	// ErrInvalidDescription reports a pipeline description that violates a
	// structural rule (missing stages, mismatched counts, duplicate
	// extension blocks).
	ErrInvalidDescription = errors.New("gfxpipe: invalid pipeline description")

	// ErrInvalidSampleCount reports a rasterization sample count outside the
	// supported set {1, 2, 4, 8, 16}. Matches ErrInvalidDescription too.
	ErrInvalidSampleCount = fmt.Errorf("%w: unsupported sample count", ErrInvalidDescription)

	// ErrCompilerFailure reports that the external shader compiler rejected
	// the pipeline's stages.
	ErrCompilerFailure = errors.New("gfxpipe: shader compiler failure")

	// ErrHardwareObjectCreation reports that a device encoder failed to
	// construct a hardware object. Creation rolls back: no partially
	// constructed pipeline is ever returned.
	ErrHardwareObjectCreation = errors.New("gfxpipe: hardware object creation failed")

	// ErrOutOfHostMemory reports a backing-store allocation failure inside
	// an encoder. Encoders wrap it so callers can classify the failure;
	// creation keeps it matchable through the rollback path.
	ErrOutOfHostMemory = errors.New("gfxpipe: out of host memory")

	// ErrDeviceClosed reports use of a device after Close.
	ErrDeviceClosed = errors.New("gfxpipe: device closed")
)
