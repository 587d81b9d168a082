package models

// Paste represents one ephemeral paste record in the system.
//
// Timestamps are epoch milliseconds. Optional attributes are pointer fields:
// a nil ExpiresAt means the paste never expires by time, a nil MaxViews means
// it can be read an unlimited number of times. RemainingViews is present
// exactly when MaxViews is, starts equal to it, and is only ever changed by
// the store-side atomic decrement in the consume protocol.
type Paste struct {
	ID             string `json:"id" bson:"_id"`
	Content        string `json:"-" bson:"content"` // Not exposed in JSON
	CreatedAt      int64  `json:"created_at" bson:"created_at"`
	ExpiresAt      *int64 `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	MaxViews       *int64 `json:"max_views,omitempty" bson:"max_views,omitempty"`
	RemainingViews *int64 `json:"remaining_views,omitempty" bson:"remaining_views,omitempty"`
}

// ExpiredAt reports whether the paste is past its time limit at the given
// instant. The boundary instant itself counts as expired: content is never
// served at or after ExpiresAt. Pastes without an ExpiresAt never expire by
// time.
func (p *Paste) ExpiredAt(now int64) bool {
	if p.ExpiresAt == nil {
		return false
	}
	return *p.ExpiresAt <= now
}

// ViewLimited reports whether the paste carries a view budget.
func (p *Paste) ViewLimited() bool {
	return p.MaxViews != nil
}
