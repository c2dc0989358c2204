package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
)

func TestFilterTextKeepsInnerSpaces(t *testing.T) {
	items := []docstore.Document{
		{ID: "p1", Fields: map[string]any{"title": "Go Lang"}},
		{ID: "p2", Fields: map[string]any{"title": "golang"}},
		{ID: "p3", Fields: map[string]any{"title": "Kotlin"}},
	}

	require.Equal(t, []string{"p1"}, ids(FilterText(items, " lang", "title")))
	require.Equal(t, []string{"p1", "p2"}, ids(FilterText(items, "LANG", "title")))
	require.Equal(t, []string{"p1", "p2", "p3"}, ids(FilterText(items, "   ", "title")))
	require.Empty(t, FilterText(items, "lang ", "title"))
}
