package models

import "time"

// EmbedField is one named text field of a rich content block.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is a webhook-authored order announcement as seen on the
// wire: an ordered sequence of named fields plus an optional free-text body.
type Notification struct {
	ChannelID string
	MessageID string
	Fields    []EmbedField
	Body      string
}

// InboundMessage is a plain text message from a human, candidate for
// command dispatch.
type InboundMessage struct {
	ChannelID string
	MessageID string
	AuthorID  string
	AuthorTag string
	Content   string
	CreatedAt time.Time
}

// CommandContext identifies the administrator invocation a lifecycle
// transition runs on behalf of.
type CommandContext struct {
	ChannelID  string
	MessageID  string
	InvokerID  string
	InvokerTag string
}

// Embed is an outbound rich message payload.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
}

const (
	ColorGreen  = 0x00FF00
	ColorRed    = 0xFF0000
	ColorOrange = 0xFFA500
	ColorBlue   = 0x0099FF
)
