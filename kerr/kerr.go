// Package kerr contains the Kafka broker error taxonomy: the numeric error
// codes brokers return in response bodies, their symbolic names, and the
// retry policy each one implies.
//
// The errors are intentionally undocumented beyond a short description, to
// avoid duplicating the official table at
// http://kafka.apache.org/protocol.html#protocolErrorCodes.
package kerr

// Classification says how the Cluster routing layer should react to an
// error code.
type Classification int

const (
	// Fatal errors are returned to the caller without retrying.
	Fatal Classification = iota
	// Retryable errors are retried in place: same leader, same metadata.
	Retryable
	// MetadataInvalidating errors are retried after a metadata refresh,
	// since they indicate the cached leader is wrong or gone.
	MetadataInvalidating
)

// Error is a Kafka broker error.
type Error struct {
	// Message is the string form of the error code (e.g.
	// LEADER_NOT_AVAILABLE).
	Message string
	// Code is the wire error code.
	Code int16
	// Retriable is whether Kafka itself documents this code as retriable.
	// Classification is the finer-grained signal the Cluster actually acts
	// on; Retriable is kept for parity with the upstream taxonomy and for
	// callers that only care about the coarse bit.
	Retriable bool
	// Classification tells the Cluster retry loop what to do with this
	// error: retry as-is, refresh metadata and retry, or give up.
	Classification Classification
	// Description is a short human-readable explanation.
	Description string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorForCode returns the error corresponding to the given wire error code.
//
// If the code is unknown, this returns UnknownServerError.
// If the code is 0, this returns nil.
func ErrorForCode(code int16) error {
	if code == 0 {
		return nil
	}
	err, exists := code2err[code]
	if !exists {
		return UnknownServerError
	}
	return err
}

// IsRetriable returns the coarse Retriable bit of a Kafka error: whether
// Kafka documents the code as retriable. It can differ from Classification
// (CorruptMessage is Retriable but classified Fatal).
func IsRetriable(err error) bool {
	kerr, ok := err.(*Error)
	return ok && kerr.Retriable
}

// ClassificationOf returns the Classification for a broker error, or Fatal
// for anything that isn't a *Error (including nil, which callers should
// have already special-cased as "no error").
func ClassificationOf(err error) Classification {
	kerr, ok := err.(*Error)
	if !ok {
		return Fatal
	}
	return kerr.Classification
}

var (
	UnknownServerError           = &Error{"UNKNOWN_SERVER_ERROR", -1, false, Fatal, "The server experienced an unexpected error when processing the request."}
	OffsetOutOfRange              = &Error{"OFFSET_OUT_OF_RANGE", 1, false, Fatal, "The requested offset is not within the range of offsets maintained by the server."}
	CorruptMessage                = &Error{"CORRUPT_MESSAGE", 2, true, Fatal, "This message has failed its CRC checksum, exceeds the valid size, has a null key for a compacted topic, or is otherwise corrupt."}
	UnknownTopicOrPartition       = &Error{"UNKNOWN_TOPIC_OR_PARTITION", 3, true, MetadataInvalidating, "This server does not host this topic-partition."}
	InvalidFetchSize              = &Error{"INVALID_FETCH_SIZE", 4, false, Fatal, "The requested fetch size is invalid."}
	LeaderNotAvailable             = &Error{"LEADER_NOT_AVAILABLE", 5, true, MetadataInvalidating, "There is no leader for this topic-partition as we are in the middle of a leadership election."}
	NotLeaderForPartition          = &Error{"NOT_LEADER_FOR_PARTITION", 6, true, MetadataInvalidating, "This server is not the leader for that topic-partition."}
	RequestTimedOut                = &Error{"REQUEST_TIMED_OUT", 7, true, Retryable, "The request timed out."}
	BrokerNotAvailable             = &Error{"BROKER_NOT_AVAILABLE", 8, true, Retryable, "The broker is not available."}
	ReplicaNotAvailable            = &Error{"REPLICA_NOT_AVAILABLE", 9, true, Retryable, "The replica is not available for the requested topic-partition."}
	MessageTooLarge                = &Error{"MESSAGE_TOO_LARGE", 10, false, Fatal, "The request included a message larger than the max message size the server will accept."}
	StaleControllerEpoch           = &Error{"STALE_CONTROLLER_EPOCH", 11, false, Fatal, "The controller moved to another broker."}
	OffsetMetadataTooLarge         = &Error{"OFFSET_METADATA_TOO_LARGE", 12, false, Fatal, "The metadata field of the offset request was too large."}
	NetworkException               = &Error{"NETWORK_EXCEPTION", 13, true, Retryable, "The server disconnected before a response was received."}
	GroupLoadInProgress            = &Error{"GROUP_LOAD_IN_PROGRESS", 14, true, Retryable, "The coordinator is loading and hence can't process requests."}
	GroupCoordinatorNotAvailable   = &Error{"GROUP_COORDINATOR_NOT_AVAILABLE", 15, true, Retryable, "The coordinator is not available."}
	NotCoordinatorForGroup         = &Error{"NOT_COORDINATOR_FOR_GROUP", 16, true, Retryable, "This is not the correct coordinator."}
	InvalidTopicException          = &Error{"INVALID_TOPIC_EXCEPTION", 17, false, Fatal, "The request attempted to perform an operation on an invalid topic."}
	RecordListTooLarge              = &Error{"RECORD_LIST_TOO_LARGE", 18, false, Fatal, "The request included message batch larger than the configured segment size on the server."}
	NotEnoughReplicas               = &Error{"NOT_ENOUGH_REPLICAS", 19, true, Retryable, "Messages are rejected since there are fewer in-sync replicas than required."}
	NotEnoughReplicasAfterAppend    = &Error{"NOT_ENOUGH_REPLICAS_AFTER_APPEND", 20, true, Retryable, "Messages are written to the log, but to fewer in-sync replicas than required."}
	InvalidRequiredAcks             = &Error{"INVALID_REQUIRED_ACKS", 21, false, Fatal, "Produce request specified an invalid value for required acks."}
	IllegalGeneration                = &Error{"ILLEGAL_GENERATION", 22, false, Fatal, "Specified group generation id is not valid."}
	InconsistentGroupProtocol       = &Error{"INCONSISTENT_GROUP_PROTOCOL", 23, false, Fatal, "The group member's supported protocols are incompatible with those of existing members."}
	InvalidGroupID                   = &Error{"INVALID_GROUP_ID", 24, false, Fatal, "The configured group id is invalid."}
	UnknownMemberID                  = &Error{"UNKNOWN_MEMBER_ID", 25, false, Fatal, "The coordinator is not aware of this member."}
	InvalidSessionTimeout            = &Error{"INVALID_SESSION_TIMEOUT", 26, false, Fatal, "The session timeout is not within the range allowed by the broker."}
	RebalanceInProgress              = &Error{"REBALANCE_IN_PROGRESS", 27, true, Retryable, "The group is rebalancing, so a rejoin is needed."}
	InvalidCommitOffsetSize          = &Error{"INVALID_COMMIT_OFFSET_SIZE", 28, false, Fatal, "The committing offset data size is not valid."}
	TopicAuthorizationFailed         = &Error{"TOPIC_AUTHORIZATION_FAILED", 29, false, Fatal, "Not authorized to access this topic."}
	GroupAuthorizationFailed         = &Error{"GROUP_AUTHORIZATION_FAILED", 30, false, Fatal, "Not authorized to access this group."}
	ClusterAuthorizationFailed       = &Error{"CLUSTER_AUTHORIZATION_FAILED", 31, false, Fatal, "Cluster authorization failed."}
	InvalidTimestamp                 = &Error{"INVALID_TIMESTAMP", 32, false, Fatal, "The timestamp of the message is out of acceptable range."}
	UnsupportedSaslMechanism         = &Error{"UNSUPPORTED_SASL_MECHANISM", 33, false, Fatal, "The broker does not support the requested SASL mechanism."}
	IllegalSaslState                 = &Error{"ILLEGAL_SASL_STATE", 34, false, Fatal, "Request is not valid given the current SASL state."}
	UnsupportedVersion               = &Error{"UNSUPPORTED_VERSION", 35, false, Fatal, "The version of the API is not supported."}
)

var code2err = map[int16]*Error{
	-1: UnknownServerError,
	1:  OffsetOutOfRange,
	2:  CorruptMessage,
	3:  UnknownTopicOrPartition,
	4:  InvalidFetchSize,
	5:  LeaderNotAvailable,
	6:  NotLeaderForPartition,
	7:  RequestTimedOut,
	8:  BrokerNotAvailable,
	9:  ReplicaNotAvailable,
	10: MessageTooLarge,
	11: StaleControllerEpoch,
	12: OffsetMetadataTooLarge,
	13: NetworkException,
	14: GroupLoadInProgress,
	15: GroupCoordinatorNotAvailable,
	16: NotCoordinatorForGroup,
	17: InvalidTopicException,
	18: RecordListTooLarge,
	19: NotEnoughReplicas,
	20: NotEnoughReplicasAfterAppend,
	21: InvalidRequiredAcks,
	22: IllegalGeneration,
	23: InconsistentGroupProtocol,
	24: InvalidGroupID,
	25: UnknownMemberID,
	26: InvalidSessionTimeout,
	27: RebalanceInProgress,
	28: InvalidCommitOffsetSize,
	29: TopicAuthorizationFailed,
	30: GroupAuthorizationFailed,
	31: ClusterAuthorizationFailed,
	32: InvalidTimestamp,
	33: UnsupportedSaslMechanism,
	34: IllegalSaslState,
	35: UnsupportedVersion,
}

// ErrorForCodeTyped is like ErrorForCode but returns the concrete *Error (or
// nil for code 0), for callers inside this module that want to branch on
// Classification without a type assertion.
func ErrorForCodeTyped(code int16) *Error {
	if code == 0 {
		return nil
	}
	if err, ok := code2err[code]; ok {
		return err
	}
	return UnknownServerError
}
