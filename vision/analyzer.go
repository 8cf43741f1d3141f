// Package vision calls the Gemini API to enumerate household objects in
// room photos and videos. The model is asked for JSON matching a fixed
// schema and its output is sanitized before it reaches the inventory merger.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/homiestan/homiestan_backend/inventory"
)

const defaultModel = "gemini-2.0-flash"

const catalogPrompt = `You are cataloging the contents of a room in a home.
List every distinct household object type you can see across all attached
photos and videos, with how many instances of each you can count. Use short,
human-readable names ("floor lamp", "dining chair"). Do not list parts of
objects, walls, floors, ceilings, doors or windows.`

const observePrompt = `You are verifying a room's contents during a rental
inspection. List every distinct household object type visible in the attached
photos, with how many instances of each you can count. Use short,
human-readable names. Do not list parts of objects, walls, floors, ceilings,
doors or windows.`

// MediaInput is one downloaded photo or video to include in the request.
type MediaInput struct {
	Data        []byte
	ContentType string
}

type Analyzer struct {
	client *genai.Client
	model  string
}

func NewAnalyzer(ctx context.Context) (*Analyzer, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Analyzer{client: client, model: model}, nil
}

type objectList struct {
	Objects []inventory.ObjectEntry `json:"objects"`
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"objects": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":  {Type: genai.TypeString},
						"count": {Type: genai.TypeInteger},
					},
					Required: []string{"name", "count"},
				},
			},
		},
		Required: []string{"objects"},
	}
}

// Catalog enumerates objects for the owner's room capture.
func (a *Analyzer) Catalog(ctx context.Context, media []MediaInput) ([]inventory.ObjectEntry, error) {
	return a.analyze(ctx, catalogPrompt, media)
}

// Observe enumerates objects for a tenant's inspection photos.
func (a *Analyzer) Observe(ctx context.Context, media []MediaInput) ([]inventory.ObjectEntry, error) {
	return a.analyze(ctx, observePrompt, media)
}

func (a *Analyzer) analyze(ctx context.Context, prompt string, media []MediaInput) ([]inventory.ObjectEntry, error) {
	if len(media) == 0 {
		return nil, errors.New("no media to analyze")
	}

	parts := make([]*genai.Part, 0, len(media)+1)
	for _, m := range media {
		parts = append(parts, genai.NewPartFromBytes(m.Data, m.ContentType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("vision call failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("vision call returned no content")
	}

	return ParseObjectList([]byte(text))
}

// ParseObjectList decodes the model's JSON and drops malformed entries so
// only valid ObjectEntry values reach the merger. An empty object list is a
// valid observation (an empty room).
func ParseObjectList(data []byte) ([]inventory.ObjectEntry, error) {
	var list objectList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("invalid vision response: %w", err)
	}

	entries := make([]inventory.ObjectEntry, 0, len(list.Objects))
	for _, obj := range list.Objects {
		if inventory.NormalizeKey(obj.Name) == "" {
			continue
		}
		if obj.Count < 1 {
			continue
		}
		entries = append(entries, inventory.ObjectEntry{
			Name:  strings.TrimSpace(obj.Name),
			Count: obj.Count,
		})
	}
	return entries, nil
}
