package perception

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elsbot/internal/prompt"
)

const echoCatalog = "Katalog ELS\nLaptop X — Rp 10.000.000\nLaptop Y — Rp 12.500.000\nMouse Z — Rp 150.000"

func TestEchoClient_QuotesMatchingLine(t *testing.T) {
	c := NewEchoClient()
	got, err := c.CompleteWithSystem(context.Background(), prompt.Compose(echoCatalog), "Berapa harga Laptop X?")
	require.NoError(t, err)

	assert.Contains(t, got, "Laptop X — Rp 10.000.000")
	assert.NotContains(t, got, "Laptop Y")
	assert.True(t, strings.HasSuffix(got, "Ada lagi yang bisa saya bantu?"))
}

func TestEchoClient_IgnoresPolicySection(t *testing.T) {
	c := NewEchoClient()
	// "stok" and "harga" appear in the rules but not in the catalog.
	got, err := c.CompleteWithSystem(context.Background(), prompt.Compose(echoCatalog), "mouse")
	require.NoError(t, err)
	assert.Contains(t, got, "Mouse Z — Rp 150.000")
}

func TestEchoClient_NoMatch(t *testing.T) {
	c := NewEchoClient()
	got, err := c.CompleteWithSystem(context.Background(), prompt.Compose(echoCatalog), "printer?")
	require.NoError(t, err)
	assert.Equal(t, echoNotFound, got)

	got, err = c.Complete(context.Background(), "halo")
	require.NoError(t, err)
	assert.Equal(t, echoNotFound, got)
}

func TestEchoClient_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEchoClient().CompleteWithSystem(ctx, prompt.Compose(echoCatalog), "laptop")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBestMatch_TieKeepsEarliest(t *testing.T) {
	assert.Equal(t, "Laptop X — Rp 10.000.000", bestMatch(echoCatalog, "laptop"))
	assert.Equal(t, "", bestMatch(echoCatalog, "?!"))
}
