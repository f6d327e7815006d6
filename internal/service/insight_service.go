package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/nodo-plus/config"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

const placeholderInsight = "El análisis automático no está disponible: GEMINI_API_KEY no está configurada."

// InsightService asks an LLM for a reviewer oriented summary of a
// questionnaire recap.
type InsightService interface {
	Summarize(ctx context.Context, kind, summaryText string) (insight string, generated bool, err error)
}

type geminiInsightService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewInsightService opens the Gemini client when an API key is configured
// and closes it when the application stops.
func NewInsightService(lc fx.Lifecycle, cfg *config.Config) (InsightService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Submission insights will return a placeholder.")
		return &geminiInsightService{}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.GeminiModel)
	model.SetTemperature(0.2)
	svc := &geminiInsightService{client: client, model: model}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return svc.close()
		},
	})
	return svc, nil
}

func (s *geminiInsightService) close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client, s.model = nil, nil
	if err != nil {
		return fmt.Errorf("close Gemini client: %w", err)
	}
	log.Info().Msg("Gemini client closed")
	return nil
}

func buildInsightPrompt(kind, summaryText string) string {
	var b strings.Builder
	b.WriteString("Eres un analista de NODO+, un marketplace que conecta soluciones EdTech con instituciones educativas en Colombia.\n")
	if kind == "INSTITUTION" {
		b.WriteString("A continuación está el resumen del cuestionario de caracterización de una institución educativa.\n")
	} else {
		b.WriteString("A continuación está el resumen del cuestionario de perfil de una empresa EdTech.\n")
	}
	b.WriteString("Escribe en español, para el equipo revisor:\n")
	b.WriteString("- Fortalezas principales (máximo 3 viñetas).\n")
	b.WriteString("- Riesgos o información faltante (máximo 3 viñetas).\n")
	b.WriteString("- Una recomendación final de una sola frase.\n\n")
	b.WriteString("Resumen:\n---\n")
	b.WriteString(summaryText)
	b.WriteString("\n---\n")
	return b.String()
}

func (s *geminiInsightService) Summarize(ctx context.Context, kind, summaryText string) (string, bool, error) {
	if strings.TrimSpace(summaryText) == "" {
		return "", false, NewInvalidError("Submission has no summary to analyze")
	}
	if s.model == nil {
		return placeholderInsight, false, nil
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildInsightPrompt(kind, summaryText)))
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("Gemini API error while generating insight")
		return "", false, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("Gemini returned no candidates or parts in response.")
		return "", false, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), true, nil
}
