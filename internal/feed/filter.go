package feed

import (
	"strings"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
)

// FilterText devolve os itens cujo campo contém substring, sem diferenciar caixa.
// Substring em branco devolve todos os itens, na mesma ordem. Fora esse caso
// os espaços da substring fazem parte da busca.
func FilterText(items []docstore.Document, substring, field string) []docstore.Document {
	out := make([]docstore.Document, 0, len(items))
	if strings.TrimSpace(substring) == "" {
		return append(out, items...)
	}
	needle := strings.ToLower(substring)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.String(field)), needle) {
			out = append(out, item)
		}
	}
	return out
}
