package engine

// ClientOpts configures a client-role Connection. Every field is optional;
// the zero value is a Connection with the protocol defaults of RFC 7540.
type ClientOpts struct {
	// Settings overrides the default local SETTINGS sent as part of the
	// connection preface. To change only some values, start from
	// DefaultSettings() and edit it: a field left at zero here falls back to
	// the protocol default, except EnablePush, which is always taken as
	// given once any other field is non-zero.
	Settings Settings

	// H2CUpgrade marks a connection reached via an HTTP/1.1 Upgrade
	// exchange, so the 24-octet connection preface string is skipped. See
	// Connection.H2CUpgrade.
	H2CUpgrade bool
}

// NewClient returns a Connection playing the client role: it owns the odd
// stream id space and is responsible for sending the connection preface
// (unless opts.H2CUpgrade is set).
func NewClient(opts ClientOpts) *Connection {
	c := NewConnection(RoleClient)
	c.H2CUpgrade = opts.H2CUpgrade
	applyOverrides(c, opts.Settings)
	return c
}

// applyOverrides folds any non-zero field of override into c's local
// settings, before the connection's handshake bytes have been primed (the
// first Receive or Outbound call), so the overridden values are what goes
// out instead of the plain defaults.
func applyOverrides(c *Connection, override Settings) {
	if override == (Settings{}) {
		return
	}

	if override.HeaderTableSize != 0 {
		c.Local.HeaderTableSize = override.HeaderTableSize
		c.hpackDec.SetMaxTableSize(int(override.HeaderTableSize))
	}
	if override.MaxConcurrentStreams != 0 {
		c.Local.MaxConcurrentStreams = override.MaxConcurrentStreams
	}
	if override.InitialWindowSize != 0 {
		c.Local.InitialWindowSize = override.InitialWindowSize
	}
	if override.MaxFrameSize != 0 {
		c.Local.MaxFrameSize = override.MaxFrameSize
	}
	if override.MaxHeaderListSize != 0 {
		c.Local.MaxHeaderListSize = override.MaxHeaderListSize
	}
	c.Local.EnablePush = override.EnablePush
}
