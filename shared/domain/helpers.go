package domain

import (
	"fmt"
	"strings"
	"time"
)

// for debug
func (m *Message) String() string {
	return fmt.Sprintf("[id:%d, author:%s(%d), visible:%t, ts:%s, frames:[%s], content:%q]",
		m.Id, m.Author.Name, m.Author.Id, m.Visible, m.Timestamp.Format(time.StampMilli),
		strings.Join(m.Author.Avatar, ", "), m.Content)
}
