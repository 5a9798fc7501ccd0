package domain

import "time"

// NoticeLifetime is how long a notice stays visible.
const NoticeLifetime = 1400 * time.Millisecond

// Notice is a transient message shown after an action.
type Notice struct {
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewNotice creates a notice visible from now for NoticeLifetime.
func NewNotice(text string, now time.Time) Notice {
	return Notice{Text: text, ExpiresAt: now.Add(NoticeLifetime)}
}

// Active reports whether the notice is still visible at now.
func (n Notice) Active(now time.Time) bool {
	return n.Text != "" && now.Before(n.ExpiresAt)
}
