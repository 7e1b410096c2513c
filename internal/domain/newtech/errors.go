package newtech

import "errors"

// ErrNotReady is returned when program data has not been loaded yet.
var ErrNotReady = errors.New("program data not loaded")

// ErrDeviceCost is returned when a calculation is requested without a
// positive device cost.
var ErrDeviceCost = errors.New("device cost is required and must be positive")
