package sortbot

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/wordsort/internal/domain/puzzle"
)

// generatePuzzle builds an inline puzzle whose words are spread round-robin
// over the categories. The answer key maps word text to category id.
func generatePuzzle(rng *rand.Rand, round, words, buckets int) (puzzle.Data, map[string]string) {
	data := puzzle.Data{}
	for b := range buckets {
		data.Categories = append(data.Categories, puzzle.CategoryEntry{
			ID:    fmt.Sprintf("cat-%d", b),
			Label: fmt.Sprintf("Category %d", b+1),
		})
	}

	key := make(map[string]string, words)
	for w := range words {
		text := fmt.Sprintf("w%d-%d-%04d", round, w, rng.IntN(10_000))
		cat := data.Categories[w%buckets].ID
		data.Words = append(data.Words, puzzle.Entry{Word: text, Category: cat})
		key[text] = cat
	}
	rng.Shuffle(len(data.Words), func(i, j int) {
		data.Words[i], data.Words[j] = data.Words[j], data.Words[i]
	})
	return data, key
}

// pickTarget returns the correct category with probability accuracy and a
// different one otherwise.
func pickTarget(rng *rand.Rand, data puzzle.Data, correct string, accuracy float64) string {
	if rng.Float64() < accuracy {
		return correct
	}
	wrong := make([]string, 0, len(data.Categories)-1)
	for _, c := range data.Categories {
		if c.ID != correct {
			wrong = append(wrong, c.ID)
		}
	}
	return wrong[rng.IntN(len(wrong))]
}

// expectedScore mirrors the accuracy scorer for one check.
func expectedScore(correct, total int, weight float64) float64 {
	if total == 0 {
		return 0
	}
	s := 100 * float64(correct) / float64(total) * weight
	return min(max(s, 0), 100)
}
