package nn

import "errors"

// ErrInvalidConfig is returned when an architecture is constructed from
// parameters that cannot form a valid network (non-positive channel counts,
// units that break a residual block's shape, or a broken stage chain).
var ErrInvalidConfig = errors.New("invalid config")
