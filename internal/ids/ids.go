package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id for entities created by this service.
func New() string {
	return ksuid.New().String()
}
