package engine

// Default and bound values for the recognized SETTINGS keys, per
// RFC 7540 §6.5.2.
const (
	defaultHeaderTableSize      = 4096
	defaultEnablePush           = 1
	defaultMaxConcurrentStreams = 1<<32 - 1 // "unlimited" per the RFC's wording
	defaultInitialWindowSize    = 1<<16 - 1
	defaultSettingsMaxFrameSize = 1 << 14

	maxWindowSize       = 1<<31 - 1
	maxSettingsMaxFrame = 1<<24 - 1
)

// Settings holds one direction's view of the six recognized SETTINGS
// values. A Connection keeps two: Local (what it has told the peer) and
// Remote (what the peer has told it).
type Settings struct {
	HeaderTableSize      uint32
	EnablePush           bool
	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    uint32 // 0 means "no advertised limit"
}

// DefaultSettings returns the RFC 7540 §6.5.2 default values.
func DefaultSettings() Settings {
	return Settings{
		HeaderTableSize:      defaultHeaderTableSize,
		EnablePush:           defaultEnablePush == 1,
		MaxConcurrentStreams: defaultMaxConcurrentStreams,
		InitialWindowSize:    defaultInitialWindowSize,
		MaxFrameSize:         defaultSettingsMaxFrameSize,
	}
}

// Apply folds one SETTINGS pair into s, returning an error if the value
// violates the identifier's range constraint. Unknown identifiers are
// ignored per RFC 7540 §6.5.2's extensibility rule.
func (s *Settings) Apply(p SettingPair) error {
	switch p.ID {
	case SettingHeaderTableSize:
		s.HeaderTableSize = p.Value
	case SettingEnablePush:
		if p.Value > 1 {
			return NewConnError(ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
		}
		s.EnablePush = p.Value == 1
	case SettingMaxConcurrentStreams:
		s.MaxConcurrentStreams = p.Value
	case SettingInitialWindowSize:
		if p.Value > maxWindowSize {
			return NewConnError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE exceeds 2^31-1")
		}
		s.InitialWindowSize = p.Value
	case SettingMaxFrameSize:
		if p.Value < defaultSettingsMaxFrameSize || p.Value > maxSettingsMaxFrame {
			return NewConnError(ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of range")
		}
		s.MaxFrameSize = p.Value
	case SettingMaxHeaderListSize:
		s.MaxHeaderListSize = p.Value
	}
	return nil
}

// pendingSettings is a FIFO of SETTINGS frames sent but not yet
// acknowledged. RFC 7540 §6.5.3 lets a sender pipeline multiple SETTINGS
// frames before an ACK catches up; each ACK applies the oldest pending
// frame's values to the connection's notion of "what did I tell them I'd
// honor" bookkeeping (here, simply popped since Local already reflects the
// desired state from the moment the frame was queued).
type pendingSettings struct {
	queue [][]SettingPair
}

func (p *pendingSettings) push(pairs []SettingPair) {
	cp := append([]SettingPair(nil), pairs...)
	p.queue = append(p.queue, cp)
}

// popAck removes the oldest pending SETTINGS frame and reports whether
// there was one to pop; an ACK with nothing pending is a protocol error
// the caller should raise.
func (p *pendingSettings) popAck() ([]SettingPair, bool) {
	if len(p.queue) == 0 {
		return nil, false
	}
	pairs := p.queue[0]
	p.queue = p.queue[1:]
	return pairs, true
}
