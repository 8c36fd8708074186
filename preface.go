package engine

// ConnectionPreface is the fixed 24-octet sequence every client must send
// before any frame, per RFC 7540 §3.5. A server's Connection checks for
// it; a client's Connection emits it before its first SETTINGS frame.
const ConnectionPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"
