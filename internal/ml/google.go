package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/vertexai/genai"
	"github.com/franckalain/nutriscan/internal/models"
)

const defaultVisionModel = "gemini-1.5-flash"

// GoogleConfig holds configuration for the Google model
type GoogleConfig struct {
	BaseConfig
	ProjectID       string `json:"project_id"`
	Location        string `json:"location"`
	CredentialsFile string `json:"credentials_file"`
	VisionModel     string `json:"vision_model"`
}

// Load loads the Google configuration
func (c *GoogleConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "google", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_LOCATION")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.VisionModel == "" {
		c.VisionModel = defaultVisionModel
	}

	return nil
}

// GoogleModel implements the Model interface for Google's Vertex AI
type GoogleModel struct {
	config GoogleConfig
	client *genai.Client
	model  *genai.GenerativeModel
}

// GoogleModelFactory implements ModelFactory for Google models
type GoogleModelFactory struct {
	config GoogleConfig
}

// NewGoogleModelFactory creates a new Google model factory
func NewGoogleModelFactory(config GoogleConfig) *GoogleModelFactory {
	return &GoogleModelFactory{config: config}
}

// CreateModel creates a new Google model instance
func (f *GoogleModelFactory) CreateModel() (Model, error) {
	return &GoogleModel{
		config: f.config,
	}, nil
}

// Load initializes the Google model
func (m *GoogleModel) Load(ctx context.Context) error {
	client, err := NewVertexClient(ctx, m.config)
	if err != nil {
		return err
	}

	m.client = client
	m.model = client.GenerativeModel(m.config.VisionModel)
	return nil
}

const visionPrompt = `Identify the packaged food product in this image and read its nutrition label.

Format the response as a JSON object with exactly one of "error" or "success" populated.
Use null for any value you cannot read. Values are per serving.
{
	"error": {
		"error_reason": "string",
		"suggestion_for_better_results": "string"
	},
	"success": {
		"detected_name": "string",
		"brand": "string",
		"category": "string",
		"barcode": "string",
		"health_score": number between 0 and 100,
		"calories": number,
		"sugar": number,
		"protein": number,
		"fat": number,
		"carbs": number,
		"sodium": number,
		"fiber": number,
		"serving_size": number,
		"ingredients": ["string"],
		"warnings": ["string"]
	}
}`

// ProcessImage processes an image using Google's Vertex AI
func (m *GoogleModel) ProcessImage(ctx context.Context, imageData []byte) (models.ScanPayload, error) {
	if m.model == nil {
		return nil, fmt.Errorf("model not loaded")
	}

	img := genai.ImageData("jpeg", imageData)

	slog.Debug("calling vision model", "model", m.config.VisionModel, "image_bytes", len(imageData))
	resp, err := m.model.GenerateContent(ctx, genai.Text(visionPrompt), img)
	if err != nil {
		return nil, fmt.Errorf("failed to call ai: %w", err)
	}

	text, err := ResponseText(resp)
	if err != nil {
		return nil, err
	}
	return parseVisionResponse(text)
}

// parseVisionResponse turns the model's JSON answer into a scan payload
func parseVisionResponse(text string) (models.ScanPayload, error) {
	text = StripCodeFence(text)

	var output struct {
		Error *struct {
			ErrorReason string `json:"error_reason"`
			Suggestion  string `json:"suggestion_for_better_results"`
		} `json:"error"`
		Success map[string]any `json:"success"`
	}
	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w while parsing %s", err, text)
	}

	if output.Error != nil && output.Error.ErrorReason != "" {
		return nil, fmt.Errorf("error: %s; suggestion: %s", output.Error.ErrorReason, output.Error.Suggestion)
	}
	if output.Success == nil {
		return nil, fmt.Errorf("missing or invalid success object in response")
	}

	payload := models.ScanPayload(output.Success)
	payload["source"] = "camera"
	return payload, nil
}
