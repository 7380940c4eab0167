package crdt

import "errors"

var (
	ErrInvalidPath     = errors.New("invalid document path")
	ErrTypeMismatch    = errors.New("value has unexpected type")
	ErrIndexOutOfRange = errors.New("list index out of range")
	ErrInvalidValue    = errors.New("invalid value")
	ErrMalformedChange = errors.New("malformed change")
	ErrSeqReused       = errors.New("actor sequence number reused with different content")
	ErrScopeMismatch   = errors.New("saved replica belongs to another scope")
	ErrActorInUse      = errors.New("fork requires a new actor id")
	ErrCorruptReplica  = errors.New("corrupt replica image")
)
