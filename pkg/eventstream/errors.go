package eventstream

import "errors"

// ErrNilWidgetEvent indicates a nil widget event payload was provided to a publisher.
var ErrNilWidgetEvent = errors.New("nil widget event")
