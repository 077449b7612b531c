package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/vitaguide/backend/internal/domain/catalog"
)

// Score weights. Only their relative order matters to ranking.
const (
	DescriptionMatchBonus = 40
	CategoryMatchBonus    = 50
	NameMatchBonus        = 25
	IngredientMatchBonus  = 15
	KeywordMatchBonus     = 10

	// minKeywordLength drops goal words too short to be meaningful
	minKeywordLength = 3

	// GeneralFitReason is reported when no signal matched
	GeneralFitReason = "Genel uyum"
)

// MatchScore is the score of one supplement against one goal
type MatchScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// supplementText holds the folded searchable fields of a supplement
type supplementText struct {
	description string
	name        string
	ingredients []ingredientText
	categories  []string
}

type ingredientText struct {
	display string
	folded  string
}

func newSupplementText(s *catalog.Supplement) supplementText {
	st := supplementText{}
	if s == nil {
		return st
	}
	st.description = foldText(s.Description)
	st.name = foldText(s.Name)
	for _, ing := range s.Ingredients {
		if f := foldText(ing.Name); f != "" {
			st.ingredients = append(st.ingredients, ingredientText{display: ing.Name, folded: f})
		}
	}
	for _, c := range s.Category {
		if f := foldText(c); f != "" {
			st.categories = append(st.categories, f)
		}
	}
	return st
}

// ScoreProductForGoal scores how well a supplement fits a free-text goal.
// Matching is case and diacritic insensitive and every signal adds to the score.
func ScoreProductForGoal(s *catalog.Supplement, goal string) MatchScore {
	return scoreText(newSupplementText(s), goal)
}

func scoreText(st supplementText, goal string) MatchScore {
	folded := foldText(goal)
	if folded == "" {
		return MatchScore{Score: 0, Reason: GeneralFitReason}
	}

	score := 0
	var reasons []string

	if strings.Contains(st.description, folded) {
		score += DescriptionMatchBonus
		reasons = append(reasons, "Açıklama hedefle güçlü uyum gösteriyor")
	}

	for _, c := range st.categories {
		if c == folded {
			score += CategoryMatchBonus
			reasons = append(reasons, "Kategori eşleşmesi")
			break
		}
	}

	if strings.Contains(st.name, folded) {
		score += NameMatchBonus
		reasons = append(reasons, "Ürün adı eşleşmesi")
	}

	for _, ing := range st.ingredients {
		if strings.Contains(ing.folded, folded) {
			score += IngredientMatchBonus
			reasons = append(reasons, "İçerik eşleşmesi: "+ing.display)
		}
	}

	var matchedWords []string
	for _, word := range goalKeywords(folded) {
		if st.matchesWord(word) {
			score += KeywordMatchBonus
			matchedWords = append(matchedWords, word)
		}
	}
	if len(matchedWords) > 0 {
		reasons = append(reasons, "Anahtar kelime eşleşmesi: "+strings.Join(matchedWords, ", "))
	}

	if score <= 0 {
		return MatchScore{Score: 0, Reason: GeneralFitReason}
	}
	return MatchScore{Score: score, Reason: strings.Join(reasons, "; ")}
}

// goalKeywords splits a folded goal on whitespace, drops short words and repeats
func goalKeywords(folded string) []string {
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for _, w := range strings.Fields(folded) {
		if utf8.RuneCountInString(w) < minKeywordLength {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

func (st supplementText) matchesWord(word string) bool {
	if strings.Contains(st.description, word) || strings.Contains(st.name, word) {
		return true
	}
	for _, c := range st.categories {
		if strings.Contains(c, word) {
			return true
		}
	}
	for _, ing := range st.ingredients {
		if strings.Contains(ing.folded, word) {
			return true
		}
	}
	return false
}
