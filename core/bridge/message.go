package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"Zenith/model"
)

// MessageType 消息类型
type MessageType string

const (
	MsgGetSnapshot       MessageType = "get-snapshot"       // 请求当前共享状态
	MsgSnapshot          MessageType = "snapshot"           // get-snapshot 的回复，只发给请求方
	MsgPushSnapshot      MessageType = "push-snapshot"      // 上报局部状态
	MsgBroadcastSnapshot MessageType = "broadcast-snapshot" // 合并后的完整状态，发给所有 surface
	MsgTransportCommand  MessageType = "transport-command"  // 播放控制
)

// Command is a transport command forwarded between surfaces.
type Command string

const (
	CmdTogglePlay Command = "toggle-play"
	CmdNext       Command = "next"
	CmdPrev       Command = "prev"
)

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	return c == CmdTogglePlay || c == CmdNext || c == CmdPrev
}

// Message 跨窗口消息
type Message struct {
	Type      MessageType          `json:"type"`
	RequestID string               `json:"requestId,omitempty"`
	From      string               `json:"from,omitempty"` // surface ID of the sender
	Seq       uint64               `json:"seq,omitempty"`  // per-sender push counter
	Snapshot  *model.Snapshot      `json:"snapshot,omitempty"`
	Patch     *model.SnapshotPatch `json:"patch,omitempty"`
	Command   Command              `json:"command,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

// Encode stamps and serializes the message.
func (m *Message) Encode() ([]byte, error) {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(m)
}

// DecodeMessage parses one frame and checks the fields its type requires.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid bridge message: %w", err)
	}
	switch m.Type {
	case MsgGetSnapshot:
	case MsgSnapshot, MsgBroadcastSnapshot:
		if m.Snapshot == nil {
			return nil, fmt.Errorf("%s without snapshot", m.Type)
		}
	case MsgPushSnapshot:
		if m.Patch == nil {
			return nil, fmt.Errorf("%s without patch", m.Type)
		}
	case MsgTransportCommand:
		if !m.Command.Valid() {
			return nil, fmt.Errorf("unknown transport command %q", m.Command)
		}
	default:
		return nil, fmt.Errorf("unknown message type %q", m.Type)
	}
	return &m, nil
}
