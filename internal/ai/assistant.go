// Package ai holds the provider-neutral types of the chat assistant.
package ai

import (
	"context"
	"strings"

	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/tools"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrUnavailable is what clients see when the hosted model fails.
var ErrUnavailable = errors.New("assistant is unavailable")

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one chat turn.
type Request struct {
	Caller   tools.Caller
	Messages []Message
	// ThreadID keys the conversation memory; empty disables it.
	ThreadID string
}

// Emit receives formatted output chunks as they are produced.
type Emit func(chunk string) error

// Pipeline answers a chat turn, streaming the formatted answer through emit
// and returning it in full.
type Pipeline interface {
	Answer(ctx context.Context, req Request, emit Emit) (string, error)
}

// Validate checks the request has an identity and ends with a non-empty user message.
func (r *Request) Validate() error {
	if !r.Caller.Authenticated() {
		return errors.ErrUnauthenticated
	}
	if len(r.Messages) == 0 {
		return errors.NewInvalidRequestError("messages must not be empty")
	}
	for i, m := range r.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return errors.NewInvalidRequestError("message %d: role %q is not one of %q or %q", i, m.Role, RoleUser, RoleAssistant)
		}
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != RoleUser || strings.TrimSpace(last.Content) == "" {
		return errors.NewInvalidRequestError("the last message must be a non-empty user message")
	}
	return nil
}

// LastUserMessage returns the content of the final message.
func (r *Request) LastUserMessage() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}
