package meta

import "time"

// APIVersion represents the API and major version thereof with which this
// version of the Kvitto SDK is compatible.
const APIVersion = "github.com/kvittoapp/kvitto"

// TypeMeta represents metadata about a resource type to help clients and
// servers mutually head off potential confusion over types (and versions
// thereof) sent over the wire.
type TypeMeta struct {
	// Kind specifies the type of a serialized resource.
	Kind string `json:"kind,omitempty"`
	// APIVersion specifies the major version of the Kvitto API with which the
	// client or server having serialized the resource is compatible.
	APIVersion string `json:"apiVersion,omitempty"`
}

// ObjectMeta represents metadata about an instance of a resource. The fields
// of this type are broadly applicable to most if not all resource types.
type ObjectMeta struct {
	// ID is an immutable resource identifier.
	ID string `json:"id,omitempty" bson:"id"`
	// Created indicates the time at which a resource was created. This is
	// recorded by the system. Clients must leave the value of this field set
	// to nil when using the API to create or update resources.
	Created *time.Time `json:"created,omitempty" bson:"created"`
}
