package services

import (
	"strings"
	"testing"

	"viralib-backend/internal/models"
)

func TestParseAnalysis_ValidJSON(t *testing.T) {
	raw := `{
		"guion_oral": "Hola",
		"hook": "Pregunta directa",
		"cta": "Sigue para más",
		"estilo_edicion": "Cortes rápidos",
		"tema_principal": "Educar",
		"justificacion_tema": "Explica un proceso"
	}`

	analysis := ParseAnalysis(raw)

	if analysis.Transcript != "Hola" {
		t.Errorf("Expected transcript 'Hola', got %q", analysis.Transcript)
	}
	if analysis.Theme != models.ThemeEducar {
		t.Errorf("Expected theme 'Educar', got %q", analysis.Theme)
	}
	if analysis.ThemeJustification != "Explica un proceso" {
		t.Errorf("Expected justification 'Explica un proceso', got %q", analysis.ThemeJustification)
	}
}

func TestParseAnalysis_CodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n{\"hook\": \"Mira esto\", \"tema_principal\": \"Entretener\"}\n```"},
		{"bare fence", "```\n{\"hook\": \"Mira esto\", \"tema_principal\": \"Entretener\"}\n```"},
		{"no fence", "{\"hook\": \"Mira esto\", \"tema_principal\": \"Entretener\"}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analysis := ParseAnalysis(tc.raw)
			if analysis.Hook != "Mira esto" {
				t.Errorf("Expected hook 'Mira esto', got %q", analysis.Hook)
			}
			if analysis.Theme != models.ThemeEntretener {
				t.Errorf("Expected theme 'Entretener', got %q", analysis.Theme)
			}
		})
	}
}

func TestParseAnalysis_NestedObjectCoerced(t *testing.T) {
	// Observed failure mode: the model nests an object where a string was
	// requested.
	analysis := ParseAnalysis(`{"hook": {"a": 1}}`)

	if analysis.Hook == "" {
		t.Fatal("Expected stringified JSON for nested hook, got empty string")
	}
	if !strings.Contains(analysis.Hook, `"a"`) {
		t.Errorf("Expected stringified object containing key \"a\", got %q", analysis.Hook)
	}
	if analysis.Theme == models.ThemeError {
		t.Error("Nested field must be coerced, not treated as a parse failure")
	}
}

func TestParseAnalysis_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "Lo siento, no puedo analizar este video."},
		{"truncated", `{"guion_oral": "Hola", "hook":`},
		{"empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analysis := ParseAnalysis(tc.raw)

			if analysis.Theme != models.ThemeError {
				t.Errorf("Expected Error theme, got %q", analysis.Theme)
			}
			if analysis.Transcript != models.AnalysisErrorSentinel {
				t.Errorf("Expected error sentinel transcript, got %q", analysis.Transcript)
			}
			if analysis.ThemeJustification == "" {
				t.Error("Expected justification to carry the parse error")
			}
		})
	}
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil", nil, ""},
		{"string", "hola", "hola"},
		{"number", float64(42), "42"},
		{"bool", true, "true"},
		{"array", []interface{}{"a", "b"}, "a, b"},
		{"mixed array", []interface{}{"a", float64(1)}, "a, 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := coerceString(tc.input)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestCoerceString_Object(t *testing.T) {
	result := coerceString(map[string]interface{}{"texto": "sigue"})

	if !strings.Contains(result, `"texto"`) || !strings.Contains(result, `"sigue"`) {
		t.Errorf("Expected pretty-printed JSON object, got %q", result)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json fence", "```json\n{}\n```", "{}"},
		{"bare fence", "```\n{}\n```", "{}"},
		{"whitespace", "  {}  ", "{}"},
		{"untouched", "{}", "{}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}
