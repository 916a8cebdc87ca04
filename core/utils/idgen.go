package utils

import "github.com/gofrs/uuid/v5"

// BuildIncidentID produces the opaque id assigned to a new incident.
// Incident ids are server-built; attachment ids arrive from the client.
func BuildIncidentID() string {
	id, err := uuid.NewV4()
	if err != nil {
		// NewV4 only fails when the platform RNG is broken.
		panic(err)
	}
	return id.String()
}
