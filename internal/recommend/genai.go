package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"depremkit/internal/expiry"
	"depremkit/internal/models"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the part of *genai.Models the generator needs.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GenAIGenerator asks a Gemini model for a kit and normalizes its answer.
type GenAIGenerator struct {
	models contentGenerator
	model  string
	logger *zerolog.Logger
	now    func() time.Time
}

// NewGenAIGenerator connects to the Gemini API with apiKey.
func NewGenAIGenerator(ctx context.Context, apiKey, model string, logger *zerolog.Logger) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAIGenerator(client.Models, model, logger), nil
}

func newGenAIGenerator(m contentGenerator, model string, logger *zerolog.Logger) *GenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &GenAIGenerator{models: m, model: model, logger: logger, now: time.Now}
}

// reply is the JSON shape requested from the model.
type reply struct {
	Items []struct {
		Name           string `json:"name"`
		Category       string `json:"category"`
		Quantity       int64  `json:"quantity"`
		Unit           string `json:"unit"`
		ExpirationDate string `json:"expirationDate"`
		Notes          string `json:"notes"`
	} `json:"items"`
	Explanation string `json:"explanation"`
}

func (g *GenAIGenerator) Generate(ctx context.Context, p models.HouseholdProfile) (*models.Recommendation, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	now := g.now()
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.4),
		ResponseMIMEType: "application/json",
		ResponseSchema:   replySchema(),
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(p, now)), cfg)
	if err != nil {
		return nil, fmt.Errorf("generate kit: %w", err)
	}
	g.logger.Debug().Dur("took", time.Since(start)).Str("model", g.model).Msg("kit generated")

	rec, err := parseReply(resp.Text(), now)
	if err != nil {
		return nil, err
	}
	if rec.Explanation == "" {
		rec.Explanation = explain(p, len(rec.Items))
	}
	return rec, nil
}

func buildPrompt(p models.HouseholdProfile, now time.Time) string {
	var b strings.Builder
	b.WriteString("Bir deprem çantası için eşya listesi öner. Yanıtı yalnızca JSON olarak ver.\n")
	fmt.Fprintf(&b, "Bugünün tarihi: %s\n", expiry.DateString(now))
	fmt.Fprintf(&b, "Hane büyüklüğü: %d kişi\n", p.HouseholdSize)
	fmt.Fprintf(&b, "Çocuk: %s, Yaşlı: %s, Evcil hayvan: %s, Kronik hastalık: %s\n",
		yesNo(p.HasChildren), yesNo(p.HasElderly), yesNo(p.HasPets), yesNo(p.HasChronicIllness))
	if p.MedicationNeeds != "" {
		fmt.Fprintf(&b, "İlaç ihtiyaçları: %s\n", p.MedicationNeeds)
	}
	if p.DietaryRestrictions != "" {
		fmt.Fprintf(&b, "Diyet kısıtlamaları: %s\n", p.DietaryRestrictions)
	}
	fmt.Fprintf(&b, "Yaşam alanı: %s\n", p.LivingArea)
	if len(p.PriorityCategories) > 0 {
		fmt.Fprintf(&b, "Öncelikli kategoriler: %s\n", strings.Join(p.PriorityCategories, ", "))
	}

	ids := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		ids = append(ids, c.ID)
	}
	fmt.Fprintf(&b, "category alanı şu değerlerden biri olmalı: %s.\n", strings.Join(ids, ", "))
	b.WriteString("unit alanı için pcs, kg, L, pack, box veya bottle kullan. ")
	b.WriteString("expirationDate YYYY-MM-DD biçiminde olmalı, bozulmayan eşyalarda boş bırak.")
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "evet"
	}
	return "hayır"
}

func replySchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":           str,
						"category":       str,
						"quantity":       {Type: genai.TypeInteger},
						"unit":           str,
						"expirationDate": str,
						"notes":          str,
					},
					Required: []string{"name", "category", "quantity"},
				},
			},
			"explanation": str,
		},
		Required: []string{"items", "explanation"},
	}
}

// parseReply turns the model output into a recommendation. Unknown
// categories become "other", quantities are at least 1, and dates that are
// malformed or already past are dropped.
func parseReply(text string, now time.Time) (*models.Recommendation, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var r reply
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &r); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}

	today := expiry.DateString(now)
	rec := &models.Recommendation{Explanation: strings.TrimSpace(r.Explanation)}
	for _, it := range r.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		item := models.NewItem{
			Name:     name,
			Category: it.Category,
			Quantity: it.Quantity,
			Unit:     strings.TrimSpace(it.Unit),
			Notes:    strings.TrimSpace(it.Notes),
		}
		if !models.IsKnownCategory(item.Category) {
			item.Category = models.CategoryOther
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.Unit == "" {
			item.Unit = models.DefaultUnit
		}
		if d := strings.TrimSpace(it.ExpirationDate); d != "" {
			if _, err := time.Parse(expiry.DateLayout, d); err == nil && d >= today {
				item.ExpirationDate = d
			}
		}
		rec.Items = append(rec.Items, item)
	}
	if len(rec.Items) == 0 {
		return nil, errors.New("model reply contains no items")
	}
	return rec, nil
}
