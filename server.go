package engine

// ServerOpts configures a server-role Connection.
type ServerOpts struct {
	// Settings overrides the default local SETTINGS sent in reply to the
	// client's preface. A field left at zero falls back to the protocol
	// default, except EnablePush, which is always taken as given once any
	// other field is non-zero.
	Settings Settings

	// H2CUpgrade marks a connection reached via an HTTP/1.1 Upgrade
	// exchange, so no connection preface string is expected from the
	// client. See Connection.H2CUpgrade.
	H2CUpgrade bool
}

// NewServer returns a Connection playing the server role: it owns the even
// stream id space (plus PUSH_PROMISE-reserved streams) and waits to see the
// client's connection preface before accepting any frame, unless
// opts.H2CUpgrade is set.
func NewServer(opts ServerOpts) *Connection {
	c := NewConnection(RoleServer)
	c.H2CUpgrade = opts.H2CUpgrade
	applyOverrides(c, opts.Settings)
	return c
}
