package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/memory"
	"github.com/spigell/smart-hr/internal/tools"
	"github.com/spigell/smart-hr/internal/utils"
)

//go:embed data_prompt.md
var dataPrompt string

const (
	AgentData = "data"

	defaultMaxSteps = 6
)

type generator interface {
	Generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.Content, error)
	Model() string
}

type toolCaller interface {
	Call(ctx context.Context, caller tools.Caller, name string, args map[string]any) tools.Result
}

// DataAgent answers a question by letting the model call capabilities until it replies in text.
type DataAgent struct {
	generator generator
	tools     toolCaller
	decls     []*genai.Tool
	maxSteps  int
	maxLogLen int
	logger    *zap.Logger
	now       func() time.Time
}

func NewDataAgent(g generator, t toolCaller, maxSteps int, log *zap.Logger) *DataAgent {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	return &DataAgent{
		generator: g,
		tools:     t,
		decls:     declarations(tools.Specs()),
		maxSteps:  maxSteps,
		maxLogLen: defaultMaxLogLength,
		logger:    logger.WithCommonFields(log, Provider, g.Model(), AgentData),
		now:       time.Now,
	}
}

// Run returns the model's plain-text answer to the last message. The caller
// is injected into every capability call; the model never supplies it.
func (a *DataAgent) Run(ctx context.Context, caller tools.Caller, history []memory.Turn, messages []ai.Message) (string, error) {
	log := logger.WithOwner(a.logger, caller.OwnerID)
	contents := conversation(history, messages)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(a.systemInstruction(caller), genai.RoleUser),
		Tools:             a.decls,
		Temperature:       genai.Ptr[float32](0.1),
	}

	for step := 1; step <= a.maxSteps; step++ {
		content, err := a.generator.Generate(ctx, contents, config)
		if err != nil {
			return "", err
		}
		contents = append(contents, content)

		calls := functionCalls(content)
		if len(calls) == 0 {
			return a.answer(log, step, content)
		}

		responses := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			result := a.tools.Call(ctx, caller, call.Name, call.Args)
			log.Debug("capability called by model",
				zap.Int("step", step),
				zap.String(logger.FieldCapability, call.Name),
				zap.Any("args", call.Args),
				zap.Bool("failed", result.Err != nil),
			)
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: result.Map(),
			}})
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: responses})
	}

	log.Warn("data agent reached max steps, forcing an answer", zap.Int("max_steps", a.maxSteps))

	config.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone},
	}
	content, err := a.generator.Generate(ctx, contents, config)
	if err != nil {
		return "", err
	}
	return a.answer(log, a.maxSteps+1, content)
}

func (a *DataAgent) answer(log *zap.Logger, step int, content *genai.Content) (string, error) {
	text := strings.TrimSpace(textOf(content))
	if text == "" {
		return "", errors.New("data agent returned an empty answer")
	}
	log.Debug("data agent answered",
		zap.Int("steps", step),
		zap.String("answer_preview", utils.TruncateForLog(text, a.maxLogLen)),
	)
	return text, nil
}

func (a *DataAgent) systemInstruction(caller tools.Caller) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(dataPrompt))
	b.WriteString("\n\n")
	b.WriteString(actingLine(caller))
	fmt.Fprintf(&b, "\nToday is %s.", a.now().UTC().Format("Monday, 2 January 2006"))
	return b.String()
}

func actingLine(caller tools.Caller) string {
	name := strings.TrimSpace(caller.FirstName)
	if name == "" {
		name = "the employer"
	}
	line := "You are acting on behalf of " + name
	if company := strings.TrimSpace(caller.Company); company != "" {
		line += " from " + company
	}
	return line + "."
}

// conversation maps remembered turns and the request messages to model contents.
func conversation(history []memory.Turn, messages []ai.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+len(messages)+1)
	for _, turn := range history {
		contents = append(contents, textContent(ai.Role(turn.Role), turn.Content))
	}
	for _, m := range messages {
		contents = append(contents, textContent(m.Role, m.Content))
	}
	return contents
}

func textContent(role ai.Role, text string) *genai.Content {
	r := genai.RoleUser
	if role == ai.RoleAssistant {
		r = genai.RoleModel
	}
	return &genai.Content{Role: r, Parts: []*genai.Part{{Text: text}}}
}
