// Package proto holds the wire contract of the HydroSync service: request
// and response messages encoded with protowire, the gRPC codec that carries
// them, and the service descriptor, client stub and server interface.
//
// Messages are plain structs with MarshalWire/UnmarshalWire methods using
// the protobuf binary encoding, so any protobuf implementation can talk to
// the service given the field numbers below. Calls select the codec through
// the "hydrowire" content subtype.
package proto
