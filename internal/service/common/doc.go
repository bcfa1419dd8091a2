// Package common holds helpers shared by the daemon and its clients.
//
// It provides a gRPC client wrapper with call timeouts and the caller
// identity (user@host) carried in request metadata and logged by the daemon.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
