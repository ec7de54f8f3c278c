// Package domain contains entity without logic, just meta-data
package domain

type (
	// RoomName identifies a media room. Unique among concurrently
	// active rooms; never reused while the room is live.
	RoomName string

	// Identity names a participant (human or agent) inside a room.
	// Separate namespace from RoomName.
	Identity string
)
