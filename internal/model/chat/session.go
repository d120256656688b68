package chat

import "time"

// Session identifies one interactive UI session. Nothing about it outlives the process.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
