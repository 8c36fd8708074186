package hpack

import "sync"

// HeaderField is a single (name, value) pair as it travels through the
// HPACK tables. Use AcquireHeaderField/ReleaseHeaderField instead of
// allocating one directly when decoding a header block field by field.
type HeaderField struct {
	name, value []byte
	sensitive   bool
}

var headerFieldPool = sync.Pool{
	New: func() interface{} { return &HeaderField{} },
}

// AcquireHeaderField returns a HeaderField from the pool.
func AcquireHeaderField() *HeaderField {
	return headerFieldPool.Get().(*HeaderField)
}

// ReleaseHeaderField resets hf and returns it to the pool.
func ReleaseHeaderField(hf *HeaderField) {
	hf.Reset()
	headerFieldPool.Put(hf)
}

// Reset clears hf's name and value.
func (hf *HeaderField) Reset() {
	hf.name = hf.name[:0]
	hf.value = hf.value[:0]
	hf.sensitive = false
}

// Name returns the field name.
func (hf *HeaderField) Name() string { return string(hf.name) }

// Value returns the field value.
func (hf *HeaderField) Value() string { return string(hf.value) }

// NameBytes returns the field name bytes. The slice is owned by hf.
func (hf *HeaderField) NameBytes() []byte { return hf.name }

// ValueBytes returns the field value bytes. The slice is owned by hf.
func (hf *HeaderField) ValueBytes() []byte { return hf.value }

// SetName sets the field name.
func (hf *HeaderField) SetName(name string) { hf.name = append(hf.name[:0], name...) }

// SetValue sets the field value.
func (hf *HeaderField) SetValue(value string) { hf.value = append(hf.value[:0], value...) }

// SetNameBytes sets the field name from b.
func (hf *HeaderField) SetNameBytes(b []byte) { hf.name = append(hf.name[:0], b...) }

// SetValueBytes sets the field value from b.
func (hf *HeaderField) SetValueBytes(b []byte) { hf.value = append(hf.value[:0], b...) }

// Set sets both name and value.
func (hf *HeaderField) Set(name, value string) {
	hf.SetName(name)
	hf.SetValue(value)
}

// IsPseudo reports whether the field name starts with ':'.
func (hf *HeaderField) IsPseudo() bool {
	return len(hf.name) > 0 && hf.name[0] == ':'
}

// SetSensitive marks hf as never-indexed (e.g. "authorization", "cookie").
func (hf *HeaderField) SetSensitive(v bool) { hf.sensitive = v }

// IsSensitive reports whether hf was decoded/marked as never-indexed.
func (hf *HeaderField) IsSensitive() bool { return hf.sensitive }

// Size is the RFC 7541 §4.1 accounting size of the field: the octet length
// of its name and value plus 32 bytes of overhead.
func (hf *HeaderField) Size() int {
	return len(hf.name) + len(hf.value) + 32
}

// staticEntry is a plain (name, value) pair for the immutable static table;
// it never needs pooling since it's never mutated.
type staticEntry struct {
	name, value string
}

// staticTable is the 61-entry table fixed by RFC 7541 Appendix A.
var staticTable = [61]staticEntry{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// neverIndexNames are header names that always get the never-indexed
// representation on the wire, regardless of the caller's index policy,
// since their values are typically credentials that shouldn't linger in a
// shared compression context.
var neverIndexNames = map[string]bool{
	"cookie":              true,
	"authorization":       true,
	"set-cookie":          true,
	"proxy-authorization": true,
}
