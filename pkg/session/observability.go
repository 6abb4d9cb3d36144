package session

import qerrors "github.com/questhmd/hmdctl/internal/errors"

func isProtocolError(err error) bool {
	if err == nil {
		return false
	}

	var perr *qerrors.ProtocolError
	if qerrors.As(err, &perr) {
		return true
	}

	return qerrors.Is(err, qerrors.ErrProtocolError) ||
		qerrors.Is(err, qerrors.ErrHandshakeFailed) ||
		qerrors.Is(err, qerrors.ErrInvalidState) ||
		qerrors.Is(err, qerrors.ErrMessageTooLarge)
}
