package model

// NoticeKind 提示类型
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a short user-facing message (a toast in the UI, a line on the CLI).
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Notifier receives user-facing notices. A nil Notifier drops them.
type Notifier func(Notice)

// Notify sends a notice if n is set.
func (n Notifier) Notify(kind NoticeKind, msg string) {
	if n != nil {
		n(Notice{Kind: kind, Message: msg})
	}
}
