package assistant

import (
	"context"

	"cloud.google.com/go/vertexai/genai"
	"github.com/franckalain/nutriscan/internal/ml"
)

// VertexGenerator generates replies with a Gemini model on Vertex AI
type VertexGenerator struct {
	model *genai.GenerativeModel
}

// NewVertexGenerator wraps a model from an open Vertex AI client
func NewVertexGenerator(client *genai.Client, modelName string) *VertexGenerator {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.4)
	return &VertexGenerator{model: model}
}

// Generate sends the prompt and returns the model's text
func (g *VertexGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return ml.ResponseText(resp)
}
