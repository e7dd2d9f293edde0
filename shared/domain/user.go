package domain

import "time"

// User is created once per submission and never mutated.
type User struct {
	Id        UserId
	Name      UserName
	EmailHash EmailHash
	CreatedAt time.Time
}

// Avatar is the ordered list of normalized, locally hosted frames of a user.
type Avatar struct {
	UserId UserId
	Frames []FrameURI
}
