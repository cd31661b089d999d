// internal/domain/models/feedmessage.go
package models

import "time"

// FeedMessage is the local record of a message relayed to the community channel.
type FeedMessage struct {
	ID                string   `bson:"_id" json:"id"`
	ExternalMessageID int64    `bson:"external_message_id" json:"external_message_id"`
	ChatID            int64    `bson:"chat_id" json:"chat_id"`
	Text              string   `bson:"text,omitempty" json:"text,omitempty"`
	MediaType         string   `bson:"media_type,omitempty" json:"media_type,omitempty"` // photo | video | document
	MediaReference    string   `bson:"media_reference,omitempty" json:"media_reference,omitempty"`
	Tags              []string `bson:"tags,omitempty" json:"tags"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy *int64    `bson:"created_by,omitempty" json:"created_by"`
	UpdatedBy *int64    `bson:"updated_by,omitempty" json:"updated_by"`
}
