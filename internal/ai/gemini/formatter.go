package gemini

import (
	"context"
	"strings"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/wire"
)

//go:embed formatter_prompt.md
var formatterPrompt string

const AgentFormatter = "formatter"

type streamer interface {
	Stream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, emit func(string) error) (string, error)
	Model() string
}

// Formatter rewrites a data answer into prose and wire cards, streaming the result.
type Formatter struct {
	streamer streamer
	system   string
	logger   *zap.Logger
}

func NewFormatter(s streamer, log *zap.Logger) *Formatter {
	return &Formatter{
		streamer: s,
		system:   formatterInstruction(),
		logger:   logger.WithCommonFields(log, Provider, s.Model(), AgentFormatter),
	}
}

// formatterInstruction injects the card layouts from the wire package into the prompt.
func formatterInstruction() string {
	return strings.NewReplacer(
		"{{APPLICATION_TEMPLATE}}", wire.Template(wire.TagApplication),
		"{{JOB_TEMPLATE}}", wire.Template(wire.TagJob),
	).Replace(strings.TrimSpace(formatterPrompt))
}

func (f *Formatter) Format(ctx context.Context, messages []ai.Message, answer string, emit ai.Emit) (string, error) {
	contents := conversation(nil, messages)
	contents = append(contents, genai.NewContentFromText(
		"Answer prepared from the employer's data:\n\n"+answer+"\n\nFormat this answer for the employer.",
		genai.RoleUser,
	))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(f.system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}

	f.logger.Debug("formatting answer", zap.Int("messages", len(messages)))
	return f.streamer.Stream(ctx, contents, config, emit)
}
