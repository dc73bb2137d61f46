// Package events defines the NATS subjects and payloads exchanged between the
// listener and the workers. Payloads carry only the build id: consumers
// re-fetch the row before acting, so stale event data can never be written
// back.
package events

import "encoding/json"

const (
	// SubjectBuildCreated is published when a build row is inserted.
	SubjectBuildCreated = "build.created"
	// SubjectBuildUpdated is published when a build row is updated.
	SubjectBuildUpdated = "build.updated"

	// QueueAgentWorkers is the queue group agent lifecycle workers join so
	// each event is handled by exactly one worker.
	QueueAgentWorkers = "agent-workers"
)

// BuildEvent is the envelope for build change events
type BuildEvent struct {
	ID string `json:"id"`
}

// Marshal encodes the event for publishing
func (e BuildEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBuildEvent decodes an event payload
func UnmarshalBuildEvent(data []byte) (BuildEvent, error) {
	var e BuildEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
