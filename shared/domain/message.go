package domain

import "time"

type Message struct {
	Id        MsgId
	Timestamp time.Time
	Author    Author
	Content   MsgText
	Visible   bool
}

// Author is the public view of a user. It never carries the email hash.
type Author struct {
	Id     UserId
	Name   UserName
	Avatar []FrameURI
}

// Submission is an untrusted request to post a message.
type Submission struct {
	Name    UserName
	Avatar  []string
	Email   *string // nil when the client omitted it
	Content MsgText
}
