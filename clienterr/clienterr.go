// Package clienterr holds the client-side error kinds: failures this
// library detects itself rather than ones a broker reports on the wire
// (those live in package kerr). The shape mirrors kerr.Error so callers get
// one consistent error surface regardless of which side noticed the
// problem.
package clienterr

// Kind identifies a client-side failure. Values are negative, disjoint from
// kerr's non-negative broker error codes, so a caller that only has an
// error code in hand can still tell the two families apart.
type Kind int16

const (
	MismatchArgument          Kind = -1
	CannotSend                Kind = -2
	CannotRecv                Kind = -3
	CannotBind                Kind = -4
	NoConnection               Kind = -5
	MetadataAttributes         Kind = -6
	UnknownApiKey              Kind = -7
	CannotGetMetadata          Kind = -8
	LeaderNotFound             Kind = -9
	MismatchCorrelationId      Kind = -10
	NoKnownBrokers             Kind = -11
	RequestOrResponse          Kind = -12
	TopicDoesNotMatch          Kind = -13
	PartitionDoesNotMatch      Kind = -14
	NotBinaryString            Kind = -15
	Compression                Kind = -16
	ResponseMessageNotReceived Kind = -17
	IncompatibleHostIpVersion  Kind = -18
	GroupCoordinatorNotFound   Kind = -19
	SendNoAck                  Kind = -20
)

var kindNames = map[Kind]string{
	MismatchArgument:           "MISMATCH_ARGUMENT",
	CannotSend:                 "CANNOT_SEND",
	CannotRecv:                 "CANNOT_RECV",
	CannotBind:                 "CANNOT_BIND",
	NoConnection:               "NO_CONNECTION",
	MetadataAttributes:         "METADATA_ATTRIBUTES",
	UnknownApiKey:              "UNKNOWN_API_KEY",
	CannotGetMetadata:          "CANNOT_GET_METADATA",
	LeaderNotFound:             "LEADER_NOT_FOUND",
	MismatchCorrelationId:      "MISMATCH_CORRELATION_ID",
	NoKnownBrokers:             "NO_KNOWN_BROKERS",
	RequestOrResponse:          "REQUEST_OR_RESPONSE",
	TopicDoesNotMatch:          "TOPIC_DOES_NOT_MATCH",
	PartitionDoesNotMatch:      "PARTITION_DOES_NOT_MATCH",
	NotBinaryString:            "NOT_BINARY_STRING",
	Compression:                "COMPRESSION",
	ResponseMessageNotReceived: "RESPONSE_MESSAGE_NOT_RECEIVED",
	IncompatibleHostIpVersion:  "INCOMPATIBLE_HOST_IP_VERSION",
	GroupCoordinatorNotFound:   "GROUP_COORDINATOR_NOT_FOUND",
	SendNoAck:                  "SEND_NO_ACK",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN_CLIENT_ERROR"
}

// Error is a client-detected failure: one that never touched the wire, or
// that was triggered by a transport/protocol problem rather than a broker
// error code.
type Error struct {
	Kind Kind
	// Message is additional context (the offending value, the underlying
	// I/O error, etc). It may be empty.
	Message string
	// Cause is the underlying error, if any (a net.Error, an io error from
	// a short read, ...). Unwrap exposes it for errors.Is/As.
	Cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*Error)
	return ok && ce.Kind == kind
}
