// Package gfxpipe translates declarative graphics-pipeline descriptions into
// hardware-executable pipeline objects and a minimal-diff bind protocol.
//
// # Overview
//
// A pipeline description bundles shader stages with fixed-function state
// (input assembly, rasterization, multisampling, blending, depth/stencil,
// viewports). gfxpipe normalizes the description, decides per state category
// whether the value is baked at creation time or supplied per draw, invokes
// an external shader compiler once per pipeline, and replicates hardware
// object construction across every accelerator in a device group with strict
// all-or-nothing semantics.
//
// # State tokens
//
// Baked state categories are deduplicated through reference-counted token
// caches (package statecache). At draw time the binder compares the
// pipeline's tokens against the command stream's last-bound tokens and emits
// only the categories that actually changed, turning structural comparisons
// into O(1) integer compares.
//
// # Collaborators
//
// External collaborators are modeled as interfaces:
//   - ShaderCompiler produces one compiled binary per pipeline
//   - DeviceEncoder sizes backing stores and constructs hardware objects
//   - CommandStream records state-set commands per device sub-stream
//   - PipelineCache supplies per-device shader cache handles
//
// Backends for the gogpu ecosystem live under backend/.
package gfxpipe

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
