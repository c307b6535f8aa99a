package broadcast

import (
	"github.com/wfunc/avalon/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToPlayer(name string, msgID uint16, data []byte) error
}

// SessionBroadcaster pushes packets to connected sessions. There is one
// table per process, so fanout is always table-wide or per player.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *SessionBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环负责清理
			continue
		}
	}
	return nil
}

func (b *SessionBroadcaster) BroadcastToPlayer(name string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByPlayerName(name) {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
