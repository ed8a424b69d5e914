package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drksurvraze/orderbot/internal/models"
)

func TestExtract_StructuredFields(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "🆔 Order", Value: "`ORD_AB12`"},
			{Name: "👤 Discord", Value: "alice#0001"},
			{Name: "📦 Product", Value: "VIP Rank"},
		},
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, "ORD_AB12", got.OrderID)
	assert.Equal(t, "alice#0001", got.Username)
	assert.Equal(t, "VIP Rank", got.ProductDetails)
}

func TestExtract_OrderFieldNamePreferredOverValuePattern(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Note", Value: "see ORD_OTHER99"},
			{Name: "Order ID", Value: "`CUSTOM-77`"},
			{Name: "Discord", Value: "bob#1234"},
		},
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, "CUSTOM-77", got.OrderID)
}

func TestExtract_OrderIDFromBody(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Username", Value: "carol#0007"},
		},
		Body: "New purchase received.\nReference: ORD_XY99 paid in full.",
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, "ORD_XY99", got.OrderID)
	assert.Equal(t, "carol#0007", got.Username)
}

func TestExtract_MissingOrderIDFails(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Discord", Value: "dave#2222"},
		},
		Body: "no identifier here",
	}

	_, err := Extract(n)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order id")
}

func TestExtract_MissingUsernameFails(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Order", Value: "ORD_1"},
		},
	}

	_, err := Extract(n)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestExtract_UsernameValueHeuristic(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Order", Value: "ORD_7"},
			{Name: "Buyer", Value: "erin#5555"},
		},
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, "erin#5555", got.Username)
}

func TestExtract_UsernameFromBodyLabel(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Order", Value: "ORD_8"},
		},
		Body: "Paid via card\nDiscord: frank#0909\nThanks!",
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, "frank#0909", got.Username)
}

func TestExtract_DetailsSentinelSkipped(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Order", Value: "ORD_2"},
			{Name: "Discord", Value: "gina#0001"},
			{Name: "Product", Value: "Not Specified"},
			{Name: "Extra", Value: "Elite Package"},
		},
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, "Elite Package", got.ProductDetails)
}

func TestExtract_DetailsFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"token count", "Payment ok\n500 Tokens\nbye", "500 Tokens"},
		{"rank tier", "MVP+ Rank purchase", "MVP+ Rank purchase"},
		{"item label", "Item: Netherite Kit", "Netherite Kit"},
		{"line after ign label", "In-game name:\nSteve\nrest", "Steve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := models.Notification{
				Fields: []models.EmbedField{
					{Name: "Order", Value: "ORD_3"},
					{Name: "Discord", Value: "hank#0001"},
				},
				Body: tt.body,
			}

			got, err := Extract(n)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ProductDetails)
		})
	}
}

func TestExtract_DetailsFallbackLiteral(t *testing.T) {
	n := models.Notification{
		Fields: []models.EmbedField{
			{Name: "Order", Value: "ORD_4"},
			{Name: "Discord", Value: "ivy#0001"},
		},
	}

	got, err := Extract(n)

	require.NoError(t, err)
	assert.Equal(t, FallbackDetails, got.ProductDetails)
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "ORD_1 hello", StripMarkup(" `ORD_1` **hello** "))
	assert.Equal(t, "name", StripMarkup("~~name~~"))
	assert.Equal(t, "quiet", StripMarkup("||quiet||"))
}
