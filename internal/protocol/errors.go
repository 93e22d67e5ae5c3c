package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World routing/state.
	ErrWorldBusy = "E_WORLD_BUSY"
	ErrRateLimit = "E_RATE_LIMIT"

	// Command layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrOutOfBounds   = "E_OUT_OF_BOUNDS"
	ErrUnknownKind   = "E_UNKNOWN_KIND"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrBlocked       = "E_BLOCKED"
	ErrWaterfront    = "E_NEEDS_WATERFRONT"
	ErrOccupied      = "E_OCCUPIED"
	ErrNoop          = "E_NOOP"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrRateLimit:       {},
	ErrBadRequest:      {},
	ErrOutOfBounds:     {},
	ErrUnknownKind:     {},
	ErrNoResource:      {},
	ErrInvalidTarget:   {},
	ErrBlocked:         {},
	ErrWaterfront:      {},
	ErrOccupied:        {},
	ErrNoop:            {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
