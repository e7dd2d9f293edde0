package domain

import (
	"strconv"
	"time"
)

type (
	UserId    = int64
	MsgId     = int64
	UserName  = string
	EmailHash = []byte
	MsgText   = string
	FrameURI  = string
)

// Visibility selects which messages a listing returns.
type Visibility int

const (
	VisibleOnly Visibility = iota // public board
	PendingOnly                   // moderation queue
	AnyVisibility
)

func (v Visibility) String() string {
	switch v {
	case VisibleOnly:
		return "visible"
	case PendingOnly:
		return "pending"
	default:
		return "all"
	}
}

// Page is one page of a listing.
type Page struct {
	Page      int
	PageSize  int
	PageCount int
	Items     []Message
}

// PageCount is ceil(total/pageSize), zero for an empty board.
func PageCount(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Offset of the first row of a 1-based page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// SubmissionResult is what the storage assigns to an accepted submission.
type SubmissionResult struct {
	Id        MsgId
	Timestamp time.Time
}

// FrameExt is the extension of the canonical re-encoded avatar frame.
const FrameExt = ".png"

// FrameName is the file name of a stored frame, e.g. "0.png".
func FrameName(frame int) string {
	return strconv.Itoa(frame) + FrameExt
}
