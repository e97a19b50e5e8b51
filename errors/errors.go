package errors

import "fmt"

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrInvalidPayload  = fmt.Errorf("invalid queue payload")
	ErrUnknownRoomKind = fmt.Errorf("unknown room kind")
)
