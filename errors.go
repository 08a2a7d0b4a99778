package figurer

import "errors"

// ErrConfigMissing is the sentinel wrapped by every "required setter not
// called" error. Use errors.Is(err, ErrConfigMissing) to detect the category
// without matching the detail message.
var ErrConfigMissing = errors.New("figurer: required configuration missing")

// ErrConfigInconsistent is the sentinel wrapped by every dimensional or
// shape-mismatch configuration error.
var ErrConfigInconsistent = errors.New("figurer: configuration inconsistent")
