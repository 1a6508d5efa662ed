package models

// Content types a chat message can carry. The payload builder picks the
// notification body by this priority: text > image > audio > video > file.
const (
	ContentText  = "text"
	ContentImage = "image"
	ContentAudio = "audio"
	ContentVideo = "video"
	ContentFile  = "file"
)

// ChatMessage is the slice of a chat message the engine needs to build a
// notification. The chat domain owns the full message.
type ChatMessage struct {
	ID          string `json:"id" validate:"required"`
	SenderID    string `json:"sender_id" validate:"required"`
	SenderName  string `json:"sender_name" validate:"required"`
	ReceiverID  string `json:"receiver_id"`
	GroupID     string `json:"group_id"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
}

// ChatGroup identifies the group a group message belongs to.
type ChatGroup struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Call is the slice of a call the engine needs to notify about.
type Call struct {
	ID         string `json:"id" validate:"required"`
	CallerID   string `json:"caller_id"`
	CallerName string `json:"caller_name" validate:"required"`
	Video      bool   `json:"video"`
}

// Kind returns "video" or "voice" for human-readable text.
func (c Call) Kind() string {
	if c.Video {
		return "video"
	}
	return "voice"
}

// CallkitType returns the call type in the string form the device call
// UI expects: "0" for voice, "1" for video.
func (c Call) CallkitType() string {
	if c.Video {
		return "1"
	}
	return "0"
}
