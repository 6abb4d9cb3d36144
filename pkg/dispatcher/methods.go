// methods.go provides a typed wrapper for every call in the companion-server
// method catalog. Bodies the HMD defines beyond Hello are not schema
// compiled here; each wrapper exposes what the call needs (a bool, a
// string, nothing) and otherwise hands back the raw response body.
package dispatcher

import (
	"context"
	"time"

	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
	"github.com/questhmd/hmdctl/pkg/crypto"
	"github.com/questhmd/hmdctl/pkg/protocol"
)

// Hello performs the key-exchange call that must be the first thing sent on
// a fresh connection. On success the underlying Session has transitioned
// into StateClaiming or StateAuthenticating.
func (d *Dispatcher) Hello(ctx context.Context) (*protocol.HelloResponse, error) {
	challenge, err := crypto.SecureRandomBytes(16)
	if err != nil {
		return nil, err
	}

	hello := &protocol.Hello{
		ClientPublicKey: d.session.LocalPublicKey(),
		ClientChallenge: challenge,
		AppID:           constants.AppID,
		AppVersion:      constants.AppVersion,
	}

	body, err := d.codec.EncodeHello(hello)
	if err != nil {
		return nil, err
	}

	resp, err := d.call(ctx, protocol.MethodHello, body)
	if err != nil {
		return nil, err
	}

	helloResp, err := d.codec.DecodeHelloResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := d.session.CompleteHandshake(helloResp); err != nil {
		return nil, err
	}

	return helloResp, nil
}

// Authenticate answers the HMD's authentication challenge for an
// already-claimed device. On success the Session transitions to StateReady.
func (d *Dispatcher) Authenticate(ctx context.Context, challenge []byte) error {
	signature, err := d.session.SignChallenge(challenge)
	if err != nil {
		return err
	}

	_, err = d.call(ctx, protocol.MethodAuthenticate, signature)
	if err != nil {
		if qerrors.Is(err, qerrors.ErrAuthRejected) {
			d.session.MarkAuthFailed()
		}
		return err
	}

	return d.session.MarkReady()
}

// OculusSetUserSecret provisions a freshly generated device secret for a
// device that has not been claimed yet. Persisting secret is left to the
// caller; pkg/connect saves it with pkg/devicekey after this call succeeds.
// On success the Session transitions to StateReady.
func (d *Dispatcher) OculusSetUserSecret(ctx context.Context, secret []byte) error {
	if _, err := d.call(ctx, protocol.MethodOculusSetUserSecret, secret); err != nil {
		return err
	}
	d.session.SetDeviceSecret(secret)
	return d.session.MarkReady()
}

// StatusResult carries a status-style response body verbatim; the method
// bodies beyond Hello are not schema-typed here.
type StatusResult struct {
	Raw []byte
}

// HmdStatus queries the HMD's general status.
func (d *Dispatcher) HmdStatus(ctx context.Context) (*StatusResult, error) {
	resp, err := d.call(ctx, protocol.MethodHmdStatus, nil)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Raw: resp.Body}, nil
}

// DevModeStatus reports whether developer mode is currently enabled.
func (d *Dispatcher) DevModeStatus(ctx context.Context) (bool, error) {
	resp, err := d.call(ctx, protocol.MethodDevModeStatus, nil)
	if err != nil {
		return false, err
	}
	return boolFromBody(resp.Body), nil
}

// DevModeSet toggles developer mode, then polls DevModeStatus until the
// change is confirmed or ConfirmPollTimeout elapses.
func (d *Dispatcher) DevModeSet(ctx context.Context, enabled bool) error {
	if _, err := d.call(ctx, protocol.MethodDevModeSet, boolToBody(enabled)); err != nil {
		return err
	}
	return d.pollUntil(ctx, enabled, d.DevModeStatus)
}

// OtaEnabledStatus reports whether OTA updates are currently enabled.
func (d *Dispatcher) OtaEnabledStatus(ctx context.Context) (bool, error) {
	resp, err := d.call(ctx, protocol.MethodOtaEnabledStatus, nil)
	if err != nil {
		return false, err
	}
	return boolFromBody(resp.Body), nil
}

// OtaEnabledSet toggles OTA update eligibility, then polls OtaEnabledStatus
// until the change is confirmed or ConfirmPollTimeout elapses.
func (d *Dispatcher) OtaEnabledSet(ctx context.Context, enabled bool) error {
	if _, err := d.call(ctx, protocol.MethodOtaEnabledSet, boolToBody(enabled)); err != nil {
		return err
	}
	return d.pollUntil(ctx, enabled, d.OtaEnabledStatus)
}

// AdbModeSet toggles ADB access. There is no corresponding status call in
// the catalog, so this is fire-and-acknowledge: success means the HMD
// accepted the request, not that it has taken effect.
func (d *Dispatcher) AdbModeSet(ctx context.Context, enabled bool) error {
	_, err := d.call(ctx, protocol.MethodAdbModeSet, boolToBody(enabled))
	return err
}

// MetaSetAccessTokenCombined provisions a combined Meta access token.
func (d *Dispatcher) MetaSetAccessTokenCombined(ctx context.Context, token string) error {
	_, err := d.call(ctx, protocol.MethodMetaSetAccessTokenCombined, []byte(token))
	return err
}

// RetailSkipFirstTimeNuxParams carries the parameters sent with the call
// that triggers the device's first-run setup flow to be skipped. Body is
// whatever the HMD expects for that triggering call; it is sent exactly
// once, on the first shape of the two-shape request below.
type RetailSkipFirstTimeNuxParams struct {
	Body []byte
}

// RetailSkipFirstTimeNux issues the skip request once with params, then
// reissues the call with get_status=true until the HMD reports a zero
// status or constants.NuxPollTimeout elapses. These are two distinct
// request shapes sharing one method code, not one repeated bare request.
func (d *Dispatcher) RetailSkipFirstTimeNux(ctx context.Context, params RetailSkipFirstTimeNuxParams) error {
	deadline := time.Now().Add(constants.NuxPollTimeout)

	resp, err := d.call(ctx, protocol.MethodRetailSkipFirstTimeNux, nuxTriggerBody(params))
	if err != nil {
		return err
	}

	for {
		if len(resp.Body) == 0 || resp.Body[0] == 0 {
			return nil
		}

		if time.Now().After(deadline) {
			return qerrors.ErrTimeout
		}
		if err := sleepCtx(ctx, constants.ConfirmPollInterval); err != nil {
			return qerrors.ErrTimeout
		}

		resp, err = d.call(ctx, protocol.MethodRetailSkipFirstTimeNux, nuxStatusQueryBody())
		if err != nil {
			return err
		}
	}
}

// nuxTriggerBody frames the one-time triggering call: get_status=false
// followed by the caller's parameters.
func nuxTriggerBody(params RetailSkipFirstTimeNuxParams) []byte {
	body := make([]byte, 1, 1+len(params.Body))
	body[0] = 0
	return append(body, params.Body...)
}

// nuxStatusQueryBody frames a poll-only call: get_status=true, no parameters.
func nuxStatusQueryBody() []byte {
	return []byte{1}
}

// pollUntil reissues statusFn until it reports want or ConfirmPollTimeout
// elapses.
func (d *Dispatcher) pollUntil(ctx context.Context, want bool, statusFn func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(constants.ConfirmPollTimeout)

	for {
		got, err := statusFn(ctx)
		if err != nil {
			return err
		}
		if got == want {
			return nil
		}
		if time.Now().After(deadline) {
			return qerrors.ErrTimeout
		}
		if err := sleepCtx(ctx, constants.ConfirmPollInterval); err != nil {
			return qerrors.ErrTimeout
		}
	}
}

func boolToBody(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func boolFromBody(body []byte) bool {
	return len(body) > 0 && body[0] != 0
}
