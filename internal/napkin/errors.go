package napkin

import "errors"

// Error variables for configuration and paths.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config")
	ErrHomeUnknown        = errors.New("cannot determine napkin home (set --home, config home or $NAPKIN_HOME)")
)
