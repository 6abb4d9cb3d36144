package session

import "context"

// Observer provides hooks for session lifecycle, handshake, and crypto
// operations. Implementations should be lightweight; callbacks may run on
// hot paths.
type Observer interface {
	OnSessionStart()
	OnSessionEnd()
	OnSessionFailed(err error)
	OnHandshakeStart(ctx context.Context) (context.Context, func(error))
	OnEncrypt(ctx context.Context, plaintextLen int) (context.Context, func(error))
	OnDecrypt(ctx context.Context, ciphertextLen int) (context.Context, func(error))
	OnAuthFailure()
	OnProtocolError(err error)
}

// noopObserver discards every callback. Used when no Observer is configured.
type noopObserver struct{}

func (noopObserver) OnSessionStart()     {}
func (noopObserver) OnSessionEnd()       {}
func (noopObserver) OnSessionFailed(error) {}
func (noopObserver) OnHandshakeStart(ctx context.Context) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (noopObserver) OnEncrypt(ctx context.Context, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (noopObserver) OnDecrypt(ctx context.Context, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (noopObserver) OnAuthFailure()       {}
func (noopObserver) OnProtocolError(error) {}
