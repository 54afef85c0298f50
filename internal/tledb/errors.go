package tledb

import "github.com/la1k/flyby/internal/flyerr"

// errParse and flyerrPath are aliases kept local so call sites in this
// package read naturally while still satisfying errors.Is against the
// flyerr sentinels.
var (
	errParse   = flyerr.ErrParse
	flyerrPath = flyerr.ErrPath
)
