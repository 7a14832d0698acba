package retrieval

import (
	"fmt"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
)

const excerptRunes = 160

// AssembleContext packs retrieved chunks into a prompt context of at most
// budget characters. Chunks are taken greedily in rank order and are never
// truncated: one that does not fit is skipped and later, smaller chunks may
// still be taken. Source markers count toward the budget.
//
// Returned citations cover exactly the included chunks, numbered [S1]..[Sn]
// in inclusion order.
func AssembleContext(results []commonModels.SearchResult, budget int) (string, []commonModels.Citation) {
	var (
		blocks    []rune
		citations []commonModels.Citation
		used      int
	)
	for _, r := range results {
		block := fmt.Sprintf("[S%d] %s", len(citations)+1, r.Text)
		cost := len([]rune(block))
		if len(citations) > 0 {
			cost += 2 //separator
		}
		if used+cost > budget {
			continue
		}

		if len(citations) > 0 {
			blocks = append(blocks, '\n', '\n')
		}
		blocks = append(blocks, []rune(block)...)
		used += cost
		citations = append(citations, commonModels.Citation{
			Ref:        len(citations) + 1,
			DocumentId: r.DocumentId,
			ChunkId:    r.ChunkId,
			Excerpt:    excerpt(r.Text),
		})
	}
	return string(blocks), citations
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes]) + "…"
}
