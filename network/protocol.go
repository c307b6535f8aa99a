package network

// 消息类型
const (
	MsgTypeHeartbeat = 1
	MsgTypeIdentify  = 101 // client announces which player it watches
	MsgTypeStateSync = 301 // server: game state changed, re-fetch status
	MsgTypeGameEnd   = 305 // server: a winner was declared
)
