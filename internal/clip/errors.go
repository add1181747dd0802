package clip

import "errors"

// Configuration and lifecycle errors.
var (
	// ErrNoBand indicates the config has no band element.
	ErrNoBand = errors.New("clip: no band element")

	// ErrNoWindow indicates the config has no window.
	ErrNoWindow = errors.New("clip: no window")

	// ErrNoFrames indicates the config has no frame source.
	ErrNoFrames = errors.New("clip: no frame source")

	// ErrNoDefault indicates no target is flagged as the default.
	ErrNoDefault = errors.New("clip: no default target")

	// ErrMultipleDefaults indicates more than one target is flagged as the default.
	ErrMultipleDefaults = errors.New("clip: more than one default target")

	// ErrDuplicateTarget indicates two targets share a name.
	ErrDuplicateTarget = errors.New("clip: duplicate target name")

	// ErrInvalidTarget indicates a target with no name or no element.
	ErrInvalidTarget = errors.New("clip: invalid target")

	// ErrDestroyed indicates the engine has been destroyed.
	ErrDestroyed = errors.New("clip: engine destroyed")
)
