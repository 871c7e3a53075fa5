package board

import "time"

// Board is a stored electrode board definition.
type Board struct {
	// ID is the unique board identifier (e.g. "sci-bots-90-pin").
	ID string `json:"id"`

	// Name is the human-readable board name.
	Name string `json:"name"`

	// Description optionally describes the board layout.
	Description string `json:"description,omitempty"`

	// Electrodes lists every electrode on the board.
	Electrodes []Electrode `json:"electrodes"`

	// Links lists adjacency between electrode channels.
	Links []Link `json:"links"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Electrode is one addressable electrode on a board.
type Electrode struct {
	// Channel is the actuation channel number driving this electrode.
	Channel int `json:"channel"`

	// Enabled marks whether the electrode may be actuated. Disabled
	// electrodes stay in the definition (the hardware may skip them
	// during actuation) but are excluded from route planning.
	Enabled bool `json:"enabled"`

	// AreaMM2 is the electrode surface area in square millimetres, used
	// when converting capacitance to liquid coverage. Zero if unknown.
	AreaMM2 float64 `json:"area_mm2,omitempty"`
}

// Link records adjacency between two electrode channels.
type Link struct {
	A int `json:"a"`
	B int `json:"b"`
}
