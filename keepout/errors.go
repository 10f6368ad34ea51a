package keepout

import "errors"

// ErrTipVertexNotFound is returned by BuildArcP when the phi-arm keepout
// has no vertex on the positive x-axis to treat as the nominal arm tip.
var ErrTipVertexNotFound = errors.New("keepout: no arm-tip vertex on the positive x-axis")
