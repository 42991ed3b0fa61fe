package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"viralib-backend/internal/models"
)

// Analyzer turns a processed remote file into a VideoAnalysis. The model is
// not trusted to honor the schema: its output is fence-stripped, parsed and
// coerced field by field, and a parse failure yields a degraded analysis
// instead of an error.
type Analyzer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewAnalyzer(apiKey, modelName string) (*Analyzer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	return &Analyzer{client: client, model: model}, nil
}

func (a *Analyzer) Close() {
	a.client.Close()
}

// Analyze makes a single model call referencing the remote file. No retry;
// one attempt per pipeline run.
func (a *Analyzer) Analyze(ctx context.Context, file *models.RemoteFile) (models.VideoAnalysis, error) {
	resp, err := a.model.GenerateContent(ctx,
		genai.FileData{MIMEType: file.MIMEType, URI: file.URI},
		genai.Text(analysisPrompt),
	)
	if err != nil {
		return models.VideoAnalysis{}, fmt.Errorf("Gemini API error: %w", err)
	}

	return ParseAnalysis(extractText(resp)), nil
}

const analysisPrompt = `Eres un analista experto de contenido viral de TikTok. Analiza el video proporcionado.

CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.

JSON schema (every value MUST be a flat string, never a nested object or array):
{
  "guion_oral": "transcripcion literal de todo lo que se dice en el video",
  "hook": "el gancho de los primeros 3 segundos",
  "cta": "la llamada a la accion, o cadena vacia si no hay",
  "estilo_edicion": "descripcion corta del estilo de edicion (cortes, texto en pantalla, ritmo)",
  "tema_principal": "exactamente uno de: Entretener, Identificar, Activar, Educar",
  "justificacion_tema": "una frase justificando la clasificacion"
}`

// ParseAnalysis normalizes whatever the model returned into the strict
// six-string schema. Invalid JSON produces the degraded sentinel analysis.
func ParseAnalysis(raw string) models.VideoAnalysis {
	cleaned := stripCodeFences(raw)

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return models.DegradedAnalysis(fmt.Sprintf("invalid JSON from model: %v", err))
	}

	return models.VideoAnalysis{
		Transcript:         coerceString(fields["guion_oral"]),
		Hook:               coerceString(fields["hook"]),
		CTA:                coerceString(fields["cta"]),
		EditingStyle:       coerceString(fields["estilo_edicion"]),
		Theme:              coerceString(fields["tema_principal"]),
		ThemeJustification: coerceString(fields["justificacion_tema"]),
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// coerceString flattens any JSON value to a string. The model has been seen
// nesting an object where a string was requested (the cta field).
func coerceString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]interface{}:
		pretty, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(pretty)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = coerceString(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AdaptToNiche rewrites a stored analysis as a script template for the
// creator's own niche. Single-shot prompt, no file reference needed.
func (a *Analyzer) AdaptToNiche(ctx context.Context, analysis models.VideoAnalysis, niche string) (models.AdaptedContent, error) {
	prompt := buildAdaptPrompt(analysis, niche)

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.AdaptedContent{}, fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := stripCodeFences(extractText(resp))

	var adapted models.AdaptedContent
	if err := json.Unmarshal([]byte(rawText), &adapted); err != nil {
		// Try to extract the JSON object
		start := strings.Index(rawText, "{")
		end := strings.LastIndex(rawText, "}")
		if start >= 0 && end > start {
			if err := json.Unmarshal([]byte(rawText[start:end+1]), &adapted); err == nil {
				return adapted, nil
			}
		}
		return models.AdaptedContent{}, fmt.Errorf("failed to parse adapted content: %w", err)
	}

	return adapted, nil
}

func buildAdaptPrompt(analysis models.VideoAnalysis, niche string) string {
	var b strings.Builder

	b.WriteString("Eres un guionista experto de contenido corto. Adapta el siguiente video de referencia al nicho del creador.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Nicho del creador: %s\n\n", niche))
	b.WriteString("Video de referencia:\n")
	b.WriteString(fmt.Sprintf("- Hook: %s\n", analysis.Hook))
	b.WriteString(fmt.Sprintf("- Guion: %s\n", analysis.Transcript))
	b.WriteString(fmt.Sprintf("- CTA: %s\n", analysis.CTA))
	b.WriteString(fmt.Sprintf("- Estilo de edicion: %s\n", analysis.EditingStyle))
	b.WriteString(fmt.Sprintf("- Tema: %s\n\n", analysis.Theme))
	b.WriteString(`JSON schema: {"hook": "string", "guion": "string", "cta": "string"}`)

	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
