package transport

import "time"

// timeNow is a seam for tests.
var timeNow = func() time.Time { return time.Now().UTC() }
