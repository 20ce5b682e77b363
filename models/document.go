package models

import "time"

// Document is uploaded file metadata attached to a master record or trip.
type Document struct {
	Filename     string     `json:"filename" bson:"filename"`
	Type         string     `json:"type" bson:"type"`
	ValidityDate *time.Time `json:"validityDate,omitempty" bson:"validityDate,omitempty"`
	URL          string     `json:"url" bson:"url"`
	UploadedDate time.Time  `json:"uploadedDate" bson:"uploadedDate"`
}

// DocumentOwner is the collection a document can be attached to.
type DocumentOwner string

const (
	OwnerTruck    DocumentOwner = "trucks"
	OwnerDriver   DocumentOwner = "drivers"
	OwnerParty    DocumentOwner = "parties"
	OwnerSupplier DocumentOwner = "suppliers"
	OwnerTrip     DocumentOwner = "trips"
)

// DocumentEntry is a document together with the record that owns it.
type DocumentEntry struct {
	Document
	Owner        DocumentOwner `json:"owner"`
	OwnerID      string        `json:"ownerId"`
	OwnerName    string        `json:"ownerName"`
	DaysToExpiry *int          `json:"daysToExpiry,omitempty"`
}
