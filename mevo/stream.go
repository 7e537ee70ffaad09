package mevo

// ByteStream is the transport collaborator (spec §1, §6.5): the core never
// dials or owns a socket itself, only this interface. ReadSome must be
// non-blocking: when no data is currently available it returns (0, nil),
// never blocking the caller. WriteAll may block briefly, bounded by the OS
// send buffer; a long-delayed write is the caller's problem to diagnose as
// an I/O error (spec §5).
type ByteStream interface {
	ReadSome(buf []byte) (n int, err error)
	WriteAll(b []byte) error
	Close() error
}
