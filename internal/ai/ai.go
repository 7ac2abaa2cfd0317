// Package ai answers storefront chat messages. GeminiAssistant lets the model
// search the catalog through a function tool; CannedAssistant is the fallback
// when no API key is configured.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const (
	DefaultModel = "gemini-1.5-flash"

	searchToolName = "search_products"
	maxToolRounds  = 4
	maxToolResults = 5
)

// Assistant produces the reply to message given the earlier turns of the session.
type Assistant interface {
	Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}

// CannedAssistant acknowledges every message without calling a model.
type CannedAssistant struct{}

const CannedReply = "Thanks for reaching out! A member of our team will get back to you shortly. " +
	"In the meantime you can browse our catalog or use the contact form for order questions."

func (CannedAssistant) Reply(context.Context, []models.ChatMessage, string) (string, error) {
	return CannedReply, nil
}

type GeminiAssistant struct {
	client    *genai.Client
	modelName string
	catalog   catalogTool
	logger    *logrus.Logger
}

// NewGeminiAssistant initializes the Gemini client.
func NewGeminiAssistant(ctx context.Context, apiKey, modelName string, products store.Products, logger *logrus.Logger) (*GeminiAssistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiAssistant{
		client:    client,
		modelName: modelName,
		catalog:   catalogTool{products: products},
		logger:    logger,
	}, nil
}

func (a *GeminiAssistant) Close() error {
	return a.client.Close()
}

func (a *GeminiAssistant) Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	// 1. --- Model, tool and instructions ---
	model := a.client.GenerativeModel(a.modelName)
	model.Tools = []*genai.Tool{searchTool()}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(`
			You are the storefront's shopping assistant.
			Use %s to look up products before recommending them; never invent products or prices.
			Categories: %v. Prices are in Naira. Be brief and friendly.
			For order or payment problems, point the customer to the contact form.
		`, searchToolName, models.Categories))},
	}

	// 2. --- Replay the session ---
	cs := model.StartChat()
	cs.History = toContents(history)

	res, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", err)
	}

	// 3. --- Answer tool calls until the model replies with text ---
	for round := 0; ; round++ {
		if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return "Sorry, I don't have an answer for that right now.", nil
		}
		part := res.Candidates[0].Content.Parts[0]

		funcCall, ok := part.(genai.FunctionCall)
		if !ok {
			return fmt.Sprintf("%v", part), nil
		}
		if funcCall.Name != searchToolName {
			return "", fmt.Errorf("unknown function: %s", funcCall.Name)
		}
		if round >= maxToolRounds {
			return "", fmt.Errorf("assistant exceeded %d tool calls", maxToolRounds)
		}

		a.logger.WithField("args", funcCall.Args).Debug("Assistant searching catalog")
		result, toolErr := a.catalog.search(ctx, funcCall.Args)
		if toolErr != nil {
			result = fmt.Sprintf("Search error: %v", toolErr)
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     searchToolName,
			Response: map[string]any{"result": result},
		})
		if err != nil {
			return "", fmt.Errorf("tool response error: %w", err)
		}
	}
}

func searchTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        searchToolName,
				Description: "Searches the product catalog by keyword and/or category.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"keyword": {
							Type:        genai.TypeString,
							Description: "Words to match against product names and descriptions.",
						},
						"category": {
							Type:        genai.TypeString,
							Description: "Optional category filter.",
						},
					},
				},
			},
		},
	}
}

// toContents maps stored chat turns onto Gemini's user/model roles.
func toContents(history []models.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == models.ChatRoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return out
}

type catalogTool struct {
	products store.Products
}

type productHit struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    string  `json:"price"`
	Category string  `json:"category"`
	InStock  bool    `json:"inStock"`
	Rating   float64 `json:"rating"`
}

// search runs the tool call and returns the hits as JSON text.
func (t catalogTool) search(ctx context.Context, args map[string]any) (string, error) {
	keyword, _ := args["keyword"].(string)
	category, _ := args["category"].(string)

	filter := store.ProductFilter{Keyword: keyword, Page: 1, PageSize: maxToolResults}
	if c := models.Category(category); c.Valid() {
		filter.Category = c
	}

	products, _, err := t.products.ListProducts(ctx, filter)
	if err != nil {
		return "", err
	}

	hits := make([]productHit, 0, len(products))
	for _, p := range products {
		hits = append(hits, productHit{
			ID:       p.ID,
			Name:     p.Name,
			Slug:     p.Slug,
			Price:    p.Price.StringFixed(2),
			Category: string(p.Category),
			InStock:  p.Stock > 0,
			Rating:   p.Rating,
		})
	}

	data, err := json.Marshal(hits)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
