package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldAgent names the pipeline stage (data or formatter).
	FieldAgent = "ai_agent"
	// FieldOwner is the tenant the request acts for.
	FieldOwner = "owner_id"
	// FieldCapability is the capability invoked by the data agent.
	FieldCapability = "capability"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the provider/model/agent fields of an AI component.
// Empty values are skipped.
func CommonFields(provider, model, agent string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
		StringField{Key: FieldAgent, Value: agent},
	)
}

// WithCommonFields attaches CommonFields to the logger.
func WithCommonFields(logger *zap.Logger, provider, model, agent string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model, agent)...)
}

// WithOwner scopes the logger to a tenant.
func WithOwner(logger *zap.Logger, ownerID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldOwner, Value: ownerID})...)
}
