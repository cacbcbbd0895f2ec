package renderer

import "errors"

var (
	ErrSceneNotDefined   = errors.New("renderer: no scene defined")
	ErrEmitterNotDefined = errors.New("renderer: no emitter defined")
	ErrGridNotDefined    = errors.New("renderer: no receiver grid defined")
	ErrInterrupted       = errors.New("renderer: interrupted while generating map")
)
