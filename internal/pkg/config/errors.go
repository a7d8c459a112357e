package config

import "errors"

var ErrMissing = errors.New("missing required setting")
