package slideinfo

import "github.com/meigma/slideinfo/core"

// LevelGeometry describes one pyramid level. Level 0 is the full resolution.
// Re-exported from core package.
type LevelGeometry = core.LevelGeometry

// AssociatedImage describes a non-pyramid image such as a label or macro.
// Re-exported from core package.
type AssociatedImage = core.AssociatedImage

// Directory is the parsed level directory of a container.
// Re-exported from core package.
type Directory = core.Directory

// DirectoryReader parses container directories.
// Re-exported from core package.
type DirectoryReader = core.DirectoryReader

// DirectoryLimits bounds directory parsing work.
// Re-exported from core package.
type DirectoryLimits = core.DirectoryLimits

// SlideHandle provides random access to an opened container.
// Re-exported from core package.
type SlideHandle = core.SlideHandle
