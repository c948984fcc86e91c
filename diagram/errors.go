package diagram

import "errors"

// ErrNonFiniteCoordinate is reported for NaN or infinite node positions.
var ErrNonFiniteCoordinate = errors.New("non-finite coordinate")
