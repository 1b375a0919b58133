// Package gemini implements the chat assistant on Google's Gemini models: a
// data agent that calls capabilities, then a formatter that streams the answer.
package gemini

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/memory"
)

type conversationMemory interface {
	Load(owner, thread string) []memory.Turn
	Append(owner, thread string, turns ...memory.Turn)
	Forget(owner, thread string)
}

type Pipeline struct {
	data      *DataAgent
	formatter *Formatter
	memory    conversationMemory
	logger    *zap.Logger
}

var _ ai.Pipeline = (*Pipeline)(nil)

// NewPipeline wires the two agents. mem may be nil to disable conversation memory.
func NewPipeline(data *DataAgent, formatter *Formatter, mem conversationMemory, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{data: data, formatter: formatter, memory: mem, logger: log}
}

func (p *Pipeline) Answer(ctx context.Context, req ai.Request, emit ai.Emit) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	log := logger.WithOwner(p.logger, req.Caller.OwnerID)

	var history []memory.Turn
	if p.memory != nil && req.ThreadID != "" {
		history = p.memory.Load(req.Caller.OwnerID, req.ThreadID)
	}

	answer, err := p.data.Run(ctx, req.Caller, history, req.Messages)
	if err != nil {
		return "", errors.Wrap(err, "data agent")
	}

	formatted, err := p.formatter.Format(ctx, req.Messages, answer, emit)
	if err != nil {
		return formatted, errors.Wrap(err, "formatter agent")
	}

	if p.memory != nil && req.ThreadID != "" {
		p.memory.Append(req.Caller.OwnerID, req.ThreadID,
			memory.Turn{Role: string(ai.RoleUser), Content: req.LastUserMessage()},
			memory.Turn{Role: string(ai.RoleAssistant), Content: answer},
		)
	}

	log.Info("chat turn answered",
		zap.String("thread_id", req.ThreadID),
		zap.Int("history_turns", len(history)),
		zap.Int("answer_length", len(formatted)),
	)
	return formatted, nil
}

// Forget drops what the pipeline remembers of one thread.
func (p *Pipeline) Forget(owner, thread string) {
	if p.memory == nil {
		return
	}
	p.memory.Forget(owner, thread)
	logger.WithOwner(p.logger, owner).Debug("chat thread forgotten", zap.String("thread_id", thread))
}
