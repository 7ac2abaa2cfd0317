package ai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store/memstore"
)

func TestCatalogSearch(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	require.NoError(t, st.CreateProduct(ctx, &models.Product{Slug: "kettle", Name: "Steel Kettle", Price: decimal.NewFromInt(12000), Category: models.CategoryHome, Stock: 3}))
	require.NoError(t, st.CreateProduct(ctx, &models.Product{Slug: "phone", Name: "Phone", Price: decimal.NewFromInt(90000), Category: models.CategoryElectronics}))

	out, err := catalogTool{products: st}.search(ctx, map[string]any{"keyword": "kettle", "category": "not-a-category"})
	require.NoError(t, err)

	var hits []productHit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Steel Kettle", hits[0].Name)
	assert.Equal(t, "12000.00", hits[0].Price)
	assert.True(t, hits[0].InStock)

	out, err = catalogTool{products: st}.search(ctx, map[string]any{"category": "electronics"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 1)
	assert.False(t, hits[0].InStock)
}

func TestToContentsMapsRoles(t *testing.T) {
	contents := toContents([]models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "hi"},
		{Role: models.ChatRoleAssistant, Content: "hello"},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, genai.Text("hello"), contents[1].Parts[0])
}

func TestCannedAssistant(t *testing.T) {
	reply, err := CannedAssistant{}.Reply(context.Background(), nil, "anything")
	require.NoError(t, err)
	assert.Equal(t, CannedReply, reply)
}
