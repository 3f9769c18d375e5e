package core

import "errors"

// Messages carried by error events. They are part of the wire contract.
const (
	MsgNotInRoom    = "Not in a room"
	MsgUnauthorized = "Unauthorized"
)

// Reasons attached to remove-stream notifications.
const (
	ReasonStreamDead     = "Stream dead"
	ReasonPublisherGone  = "publisher disconnected"
	// ReasonStreamReplaced ends a publisher's room when it starts another one.
	ReasonStreamReplaced = "stream replaced"
)

// Cause labels for the rooms-destroyed metric.
const (
	causeStop       = "stop"
	causeDisconnect = "disconnect"
	causeLiveness   = "liveness"
	causeReplaced   = "replaced"
)

// ErrHubStopped is returned by blocking Hub calls after Run has exited.
var ErrHubStopped = errors.New("hub stopped")
