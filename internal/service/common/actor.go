//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/reminder/internal/logger"
)

const (
	// hostnameKey is the metadata key carrying the caller hostname.
	hostnameKey = "x-reminder-hostname"
	// usernameKey is the metadata key carrying the caller username.
	usernameKey = "x-reminder-username"
)

// Actor identifies the user and host that issued a request.
type Actor struct {
	// Hostname is the caller's machine name.
	Hostname string
	// Username is the caller's login.
	Username string
}

// String formats the actor as user@host.
func (a Actor) String() string {
	return a.Username + "@" + a.Hostname
}

// DetectActor gathers host and user information for the request log.
func DetectActor() (Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Actor{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Actor{}, fmt.Errorf("current user: %w", err)
	}

	return Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// WithActor attaches the actor to the outgoing gRPC metadata of ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		hostnameKey, actor.Hostname,
		usernameKey, actor.Username,
	)
}

// ActorFromIncoming extracts the actor from the incoming gRPC metadata of ctx.
func ActorFromIncoming(ctx context.Context) (Actor, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Actor{}, false
	}

	hosts := md.Get(hostnameKey)
	users := md.Get(usernameKey)

	if len(hosts) == 0 || len(users) == 0 {
		return Actor{}, false
	}

	return Actor{Hostname: hosts[0], Username: users[0]}, true
}

// LoggingInterceptor logs every unary call with its caller, duration and status code.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if actor, ok := ActorFromIncoming(ctx); ok {
			ctx = logger.WithKV(ctx, "actor", actor.String())
		}

		started := time.Now()
		resp, err := handler(ctx, req)

		logger.DebugKV(ctx, "Handled request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(started),
		)

		return resp, err
	}
}
