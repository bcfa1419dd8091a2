// Package reminder is the gRPC surface of reminderd (service
// reminder.v1.AlarmService).
//
// The service descriptor is written by hand; requests and responses are plain
// structs or well-known protobuf types, encoded by the codec package. Server
// adapts the daemon to the service and maps domain errors to status codes;
// AlarmServiceClient is the matching client stub.
package reminder
