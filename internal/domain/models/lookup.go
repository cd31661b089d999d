// internal/domain/models/lookup.go
package models

// LookupEntry is a row of a small static lookup collection
// (spiritual_levels, sources).
type LookupEntry struct {
	ID   int    `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}
