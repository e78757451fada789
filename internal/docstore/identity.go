package docstore

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh document identifier.
//
// Identifiers are ObjectIDs rendered as 24 hex characters: a seconds
// timestamp, a per-process random value and a counter. Uniqueness is
// probabilistic across processes.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
