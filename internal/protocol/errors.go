package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrInvalidTx  = "E_INVALID_TX"
	ErrNotFound   = "E_NOT_FOUND"
	ErrStale      = "E_STALE"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrInvalidTx:       {},
	ErrNotFound:        {},
	ErrStale:           {},
	ErrInternal:        {},
}

// IsKnownCode reports whether code is one of the codes above. The empty code
// means success.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
