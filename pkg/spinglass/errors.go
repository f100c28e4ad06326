package spinglass

import (
	"errors"

	"github.com/gilchrisn/potts-community/pkg/graph"
)

var (
	// ErrInvalidArgument marks precondition failures detected before the
	// annealing loop starts.
	ErrInvalidArgument = graph.ErrInvalidArgument

	// ErrIO marks failures to acquire or release the history file.
	ErrIO = errors.New("i/o error")
)
