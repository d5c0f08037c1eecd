package meshopt

import "github.com/pkg/errors"

// ErrInvalidInput is when a malformed mesh or point cloud aborts an
// optimization call before any work is done.
var ErrInvalidInput = errors.New("invalid optimization input")

// ErrInsufficientData is when too few point cloud samples land on the mesh
// for any triangle to be constrained.
var ErrInsufficientData = errors.New("insufficient data to constrain the mesh")

// ErrSingularSystem is when a terminal global solve is too ill-conditioned to
// produce any coherent output.
var ErrSingularSystem = errors.New("singular linear system")

// ErrDegenerateDepth is when a solved inverse depth is too close to zero to
// recover a position along the bearing ray.
var ErrDegenerateDepth = errors.New("degenerate inverse depth")
