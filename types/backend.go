package types

import "context"

// Backend abstracts the ProtocolBanks API transport. The SDK core never
// talks HTTP directly: modules issue Get/Post calls against this interface
// and the surrounding application wires in a transport with whatever
// retry and timeout policy it wants. Implementations must honor ctx
// cancellation and return *SDKError for API-level failures.
type Backend interface {
	Get(ctx context.Context, path string, result interface{}) error
	Post(ctx context.Context, path string, body, result interface{}) error
}
