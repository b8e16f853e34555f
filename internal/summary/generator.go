// File path: internal/summary/generator.go
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/GH-TeamBID/gober-api/internal/chunk"
	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/llm"
)

// Section is one question the generated report answers.
type Section struct {
	Title    string
	Question string
}

// DefaultSections mirrors the report structure the product team settled on
// for Spanish procurement notices.
func DefaultSections() []Section {
	return []Section{
		{
			Title:    "Objeto y alcance",
			Question: "¿Cuál es el objeto del contrato, qué requisitos técnicos y administrativos se exigen a los licitadores y cuál es el presupuesto base de licitación?",
		},
		{
			Title:    "Criterios y plazos",
			Question: "¿Cuáles son los criterios de adjudicación con sus ponderaciones, los plazos de ejecución y presentación de ofertas, y las garantías exigidas?",
		},
	}
}

const citedSystemPreamble = `Eres un asistente experto en licitaciones públicas españolas. Tu tarea es responder preguntas sobre una licitación usando EXCLUSIVAMENTE los fragmentos de documentos que se proporcionan a continuación.

INSTRUCCIONES:
1. Responde únicamente con información presente en los fragmentos.
2. Cada afirmación debe citar el fragmento del que procede usando exactamente el formato [chunk_id: XXX], donde XXX es el ID del fragmento.
3. No inventes información ni cites fragmentos inexistentes.
4. Si los fragmentos no contienen la respuesta, indícalo claramente.
5. Usa un lenguaje claro y profesional en español.
6. Estructura la respuesta con encabezados Markdown cuando aporte claridad.
7. Incluye cifras, fechas y plazos exactos tal como aparecen en los fragmentos.
8. Coloca la cita inmediatamente después de cada dato citado.

FRAGMENTOS DISPONIBLES:

`

var fragmentTemplate = prompts.NewPromptTemplate(
	"--- FRAGMENTO {{.index}} ---\nID: {{.chunkID}}\nTítulo: {{.title}}\nDocumento: {{.document}}\nPágina: {{.page}}\nContenido:\n{{.text}}\n\n",
	[]string{"index", "chunkID", "title", "document", "page", "text"},
)

var sectionTemplate = prompts.NewPromptTemplate(
	"Sección: {{.title}}\n\nPregunta: {{.question}}",
	[]string{"title", "question"},
)

const conversationalPrompt = `Eres un asistente que resume licitaciones públicas para un lector sin tiempo. A partir del informe siguiente, escribe un resumen conversacional en español de como máximo 1500 caracteres. No uses encabezados ni citas; escribe párrafos breves y directos, como explicándoselo a un colega.

Ejemplo de tono: "El Ayuntamiento de Jaén busca una empresa que renueve el alumbrado de tres barrios. El presupuesto ronda los 2 millones de euros y las ofertas se pueden presentar hasta finales de mes."

INFORME:

`

// Generator produces the cited report and the conversational summary from
// the flattened document chunks.
type Generator struct {
	provider llm.Provider
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// buildSystemPrompt embeds every chunk as a numbered fragment so the model
// can cite chunk ids verbatim.
func buildSystemPrompt(chunks []chunk.FlatChunk) (string, error) {
	var b strings.Builder
	b.WriteString(citedSystemPreamble)
	for i, c := range chunks {
		block, err := fragmentTemplate.Format(map[string]any{
			"index":    i + 1,
			"chunkID":  c.Metadata.ChunkID,
			"title":    c.Metadata.Title,
			"document": c.Metadata.PDFPath,
			"page":     c.Metadata.PageNumber,
			"text":     c.Text,
		})
		if err != nil {
			return "", fmt.Errorf("render fragment %d: %w", i+1, err)
		}
		b.WriteString(block)
	}
	return b.String(), nil
}

// GenerateSection answers one section question against the fragment context.
func (g *Generator) GenerateSection(ctx context.Context, systemPrompt string, section Section) (string, error) {
	question, err := sectionTemplate.Format(map[string]any{
		"title":    section.Title,
		"question": section.Question,
	})
	if err != nil {
		return "", fmt.Errorf("render section prompt: %w", err)
	}
	return llm.WithRetry(ctx, "section "+section.Title, func(ctx context.Context) (string, error) {
		return g.provider.Chat(ctx, []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		})
	})
}

// GenerateDocument builds the full cited report, one section at a time.
// Sections are generated sequentially so their order in the report is
// stable; a failed section aborts the report rather than shipping a hole.
func (g *Generator) GenerateDocument(ctx context.Context, chunks []chunk.FlatChunk, sections []Section) (string, error) {
	if len(chunks) == 0 {
		return "", errors.New("no chunks available for generation")
	}
	if len(sections) == 0 {
		sections = DefaultSections()
	}
	systemPrompt, err := buildSystemPrompt(chunks)
	if err != nil {
		return "", err
	}
	logger := common.Logger()
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		logger.Info("summary: generating section", "section", section.Title, "chunks", len(chunks))
		text, err := g.GenerateSection(ctx, systemPrompt, section)
		if err != nil {
			return "", fmt.Errorf("generate section %q: %w", section.Title, err)
		}
		parts = append(parts, strings.TrimSpace(text))
	}
	return strings.Join(parts, "\n\n"), nil
}

// GenerateConversationalSummary condenses the cited report into a short
// plain-language summary for list views.
func (g *Generator) GenerateConversationalSummary(ctx context.Context, document string) (string, error) {
	if strings.TrimSpace(document) == "" {
		return "", errors.New("empty document")
	}
	return llm.WithRetry(ctx, "conversational summary", func(ctx context.Context) (string, error) {
		return g.provider.Chat(ctx, []llm.Message{
			{Role: "system", Content: conversationalPrompt + document},
			{Role: "user", Content: "Escribe el resumen."},
		})
	})
}
