// File: services/intelligence/gemini.go
package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dentaflow/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const classifyInstruction = `You classify one message sent to a dental clinic scheduling assistant.
Respond with JSON only, no prose, matching:
{"intents":["BOOKING"|"CANCEL"|"RESCHEDULE"|"PRICE_INQUIRY"|"APPOINTMENT_INQUIRY"|"CONFIRM"|"DECLINE"],
 "entities":{"patientName":"","treatmentType":"","dentistName":"","dateTimeText":""}}
Leave entity fields empty when not mentioned. Use an empty intents array when unsure.`

const generateInstruction = `You are a friendly dental clinic receptionist. Reply briefly and helpfully
to the patient's message. Do not invent appointment details.`

// GeminiClient wraps the Gemini model for classification and reply generation.
type GeminiClient struct {
	model *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiClient{model: client.GenerativeModel(modelName)}, nil
}

func (g *GeminiClient) generateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

// Classify asks the model for a JSON classification of the message. Raw
// output is parsed defensively; anything unparseable is an error so the
// caller can fall back to keyword matching.
func (g *GeminiClient) Classify(ctx context.Context, message string, history []models.Message) (models.ClassifierOutput, error) {
	var sb strings.Builder
	sb.WriteString(classifyInstruction)
	sb.WriteString("\n\nRecent conversation:\n")
	writeHistoryTail(&sb, history, 6)
	sb.WriteString("\nMessage to classify: ")
	sb.WriteString(message)

	raw, err := g.generateText(ctx, sb.String())
	if err != nil {
		return models.ClassifierOutput{}, err
	}

	var out models.ClassifierOutput
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return models.ClassifierOutput{}, fmt.Errorf("malformed classifier output: %w", err)
	}
	return out, nil
}

// Generate produces the open-ended conversational reply for rule-less turns.
func (g *GeminiClient) Generate(ctx context.Context, message string, history []models.Message) (string, error) {
	var sb strings.Builder
	sb.WriteString(generateInstruction)
	sb.WriteString("\n\nRecent conversation:\n")
	writeHistoryTail(&sb, history, 10)
	sb.WriteString("\nPatient: ")
	sb.WriteString(message)
	sb.WriteString("\nReceptionist:")

	return g.generateText(ctx, sb.String())
}

func writeHistoryTail(sb *strings.Builder, history []models.Message, n int) {
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	for _, msg := range history[start:] {
		fmt.Fprintf(sb, "%s: %s\n", msg.Role, msg.Text)
	}
}

// stripCodeFence removes a markdown fence the model sometimes wraps JSON in.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
