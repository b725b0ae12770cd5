package docker

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys used for Veil resources
const (
	LabelProject   = "veil.project"
	LabelSession   = "veil.session"
	LabelRunID     = "veil.run_id"
	LabelComponent = "veil.component"
	LabelRedisPort = "veil.redis.port"
)

// ComponentHub labels the Redis container that holds a session's presence hash.
const ComponentHub = "hub"

// BuildLabels creates the standard label set for Veil resources.
// component may be empty.
func BuildLabels(session, runID, component string) map[string]string {
	labels := map[string]string{
		LabelProject: "true",
		LabelSession: session,
		LabelRunID:   runID,
	}

	if component != "" {
		labels[LabelComponent] = component
	}

	return labels
}

// GenerateRunID creates a new UUID for a hub run.
// Each invocation of `veil up` gets a unique run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// HubContainerName returns the Redis hub container name for a session
func HubContainerName(session string) string {
	return fmt.Sprintf("veil-hub-%s", session)
}
