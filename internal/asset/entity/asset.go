// Package entity defines stored asset metadata. Blobs live in object
// storage; these rows are the Postgres side of each object.
package entity

import "time"

// Asset is one stored object owned by a user.
type Asset struct {
	ID          int64
	OwnerID     int64
	Bucket      string
	Key         string
	FileName    string
	Extension   string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// NewAsset is the payload for inserting an asset row after the blob
// landed in the object store.
type NewAsset struct {
	ID          int64
	OwnerID     int64
	Bucket      string
	Key         string
	FileName    string
	Extension   string
	ContentType string
	Size        int64
}
