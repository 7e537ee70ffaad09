package mevo

import "fmt"

// Kind enumerates the error taxonomy surfaced to callers (spec §7). Callers
// compare against these by obtaining the *Error (errors.As) and checking its
// Kind field.
type Kind int

const (
	KindIO Kind = iota
	KindFramingMalformedEscape
	KindFramingTooShort
	KindFramingChecksumMismatch
	KindFramingUnterminatedFrame
	KindDecodeUnknownType
	KindDecodeInvalidPayload
	KindProtocolTimeout
	KindProtocolUnexpectedMessage
	KindProtocolDeviceDormant
	KindConfigInvalidFloat
	KindConfigOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "Io"
	case KindFramingMalformedEscape:
		return "Framing.MalformedEscape"
	case KindFramingTooShort:
		return "Framing.TooShort"
	case KindFramingChecksumMismatch:
		return "Framing.ChecksumMismatch"
	case KindFramingUnterminatedFrame:
		return "Framing.UnterminatedFrame"
	case KindDecodeUnknownType:
		return "Decode.UnknownType"
	case KindDecodeInvalidPayload:
		return "Decode.InvalidPayload"
	case KindProtocolTimeout:
		return "Protocol.Timeout"
	case KindProtocolUnexpectedMessage:
		return "Protocol.UnexpectedMessage"
	case KindProtocolDeviceDormant:
		return "Protocol.DeviceDormant"
	case KindConfigInvalidFloat:
		return "Config.InvalidFloat"
	case KindConfigOutOfRange:
		return "Config.OutOfRange"
	default:
		return "Unknown"
	}
}

// Error is the single error type used throughout the core. It carries a
// Kind so callers can branch on the taxonomy without string matching, and
// wraps an optional underlying cause.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.msg, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

func newFramingError(kind Kind, format string, args ...interface{}) *Error {
	return newErr(kind, format, args...)
}

func newConfigError(kind Kind, format string, args ...interface{}) *Error {
	return newErr(kind, format, args...)
}

func newDecodeError(kind Kind, format string, args ...interface{}) *Error {
	return newErr(kind, format, args...)
}

func newProtocolError(kind Kind, format string, args ...interface{}) *Error {
	return newErr(kind, format, args...)
}
