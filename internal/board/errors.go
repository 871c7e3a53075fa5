package board

import "errors"

// Domain errors for the board package.
var (
	// ErrBoardNotFound is returned when a board ID does not exist.
	ErrBoardNotFound = errors.New("board: board not found")

	// ErrBoardExists is returned when creating a board whose ID is taken.
	ErrBoardExists = errors.New("board: board already exists")

	// ErrUnknownChannel is returned when a path query names a channel
	// that is not in the graph.
	ErrUnknownChannel = errors.New("board: unknown channel")

	// ErrNoPath is returned when no route connects two channels.
	ErrNoPath = errors.New("board: no path between channels")
)
