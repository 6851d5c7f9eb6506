package transport

import (
	"context"
	"errors"
)

// ErrTokenMissing is returned when the adapter is built without a bot token.
var ErrTokenMissing = errors.New("telegram token is empty")

type UpdateKind string

const (
	UpdateInlineQuery UpdateKind = "inline_query"
	UpdateMessage     UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Query   *InlineQuery
	Message *Message
}

// InlineQuery is a user typing "@bot <text>" in any chat.
type InlineQuery struct {
	ID           string
	Text         string
	FromID       int64
	FromUsername string
}

type Message struct {
	ID     int
	ChatID int64
	FromID int64
	Text   string
}

type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Article is a single text answer to an inline query.
type Article struct {
	ID             string
	Title          string
	Text           string
	ParseMode      string
	DisablePreview bool
}

// Adapter is the chat-platform side of the bridge.
//
// Start begins delivering updates to out, in the order they were received.
// Done is closed when the inbound stream has failed for good; Err then
// returns the cause.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error
	Done() <-chan struct{}
	Err() error

	AnswerInline(ctx context.Context, queryID string, results []Article) error
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
