package domain

import "errors"

// Ingestion failures. Each fails the whole BuildCatalog call.
var (
	// ErrUnknownCollection means an item group references a collection with
	// no metadata entry in the batch.
	ErrUnknownCollection = errors.New("collection metadata not found")

	// ErrMissingTimestamp means an item lacks (or has an unparseable) value
	// for the timestamp field its kind sorts on.
	ErrMissingTimestamp = errors.New("missing timestamp")

	// ErrInvalidCollectionID means a collection ID cannot be split into a
	// product and a storm name.
	ErrInvalidCollectionID = errors.New("invalid collection id")

	// ErrMixedGroup means an item group contains items from more than one
	// collection.
	ErrMixedGroup = errors.New("item group spans multiple collections")
)
