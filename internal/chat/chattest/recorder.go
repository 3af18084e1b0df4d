// Package chattest provides a recording chat.Responder for tests.
package chattest

import (
	"context"
	"sync"

	"github.com/m3rciful/kinobot/internal/chat"
)

// Recorder records everything sent through it. Set FailReply (or FailPhoto
// for replies carrying a photo) to make Reply fail.
type Recorder struct {
	mu      sync.Mutex
	Replies []chat.Reply
	Acks    []string
	Inline  [][]chat.InlineResult
	Sent    map[int64][]chat.Reply

	FailReply error
	FailPhoto error
}

var (
	_ chat.Responder = (*Recorder)(nil)
	_ chat.Sender    = (*Recorder)(nil)
)

// Reply records r.
func (r *Recorder) Reply(_ context.Context, rep chat.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReply != nil {
		return r.FailReply
	}
	if rep.Photo != "" && r.FailPhoto != nil {
		return r.FailPhoto
	}
	r.Replies = append(r.Replies, rep)
	return nil
}

// Ack records text.
func (r *Recorder) Ack(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Acks = append(r.Acks, text)
	return nil
}

// AnswerInline records results.
func (r *Recorder) AnswerInline(_ context.Context, results []chat.InlineResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Inline = append(r.Inline, results)
	return nil
}

// SendTo records rep under userID.
func (r *Recorder) SendTo(_ context.Context, userID int64, rep chat.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Sent == nil {
		r.Sent = make(map[int64][]chat.Reply)
	}
	r.Sent[userID] = append(r.Sent[userID], rep)
	return nil
}

// Last returns the most recent reply, or a zero Reply.
func (r *Recorder) Last() chat.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Replies) == 0 {
		return chat.Reply{}
	}
	return r.Replies[len(r.Replies)-1]
}

// Reset drops recorded replies, acks and inline answers.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Replies, r.Acks, r.Inline = nil, nil, nil
}

// Choice builds a choice event.
func Choice(userID int64, key, value string) chat.Event {
	return chat.Event{Kind: chat.KindChoice, UserID: userID, ChatID: userID, Choice: chat.Choice{Key: key, Value: value}}
}

// Text builds a text event.
func Text(userID int64, text string) chat.Event {
	return chat.Event{Kind: chat.KindText, UserID: userID, ChatID: userID, Text: text}
}

// Command builds a command event; payload may be empty.
func Command(userID int64, name, payload string) chat.Event {
	return chat.Event{Kind: chat.KindCommand, UserID: userID, ChatID: userID, Command: name, Payload: payload}
}

// Video builds a video event.
func Video(userID int64, fileID string) chat.Event {
	return chat.Event{Kind: chat.KindVideo, UserID: userID, ChatID: userID, File: chat.File{ID: fileID}}
}

// Photo builds a photo event.
func Photo(userID int64, fileID string) chat.Event {
	return chat.Event{Kind: chat.KindPhoto, UserID: userID, ChatID: userID, File: chat.File{ID: fileID}}
}
