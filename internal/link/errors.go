package link

import "errors"

var (
	ErrSpawnFailure  = errors.New("link: spawn failure")
	ErrBindFailure   = errors.New("link: bind failure")
	ErrAcceptTimeout = errors.New("link: accept timeout")
	ErrLinkOffline   = errors.New("link: offline")
	ErrNotOffline    = errors.New("link: not offline")
	ErrLinkExists    = errors.New("link: already registered")
	ErrLinkNotFound  = errors.New("link: not registered")
	ErrLinkNotClosed = errors.New("link: still open")
	ErrClosed        = errors.New("link: closed")
	ErrWrongKind     = errors.New("link: operation not supported by link kind")
)
