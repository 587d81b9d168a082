package utils

import "time"

// NowMillis returns the current wall-clock time in epoch milliseconds.
//
// All lifecycle decisions (time expiry, created_at stamps) are made against
// an explicit instant passed into the engine; this is the production source
// of that instant. Test contexts supply their own value instead.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
