package grading

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/stemsi/examcore/internal/model"
)

var (
	nonWordRunRe = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	stopwordsSet = map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true,
	}
)

// LexicalGrader scores free-text answers offline, with no external calls,
// by blending keyword overlap with expected answer against TF-IDF cosine
// similarity of the two texts. It is the default free-text grader, and the
// one cmd/server uses when the LLM engine is selected without an API key; it
// does not stand in for an LLMGrader whose call fails.
type LexicalGrader struct {
	KeywordWeight       float64
	SimilarityWeight    float64
	SimilarityThreshold float64
}

// NewLexicalGrader returns a LexicalGrader with the given weights. Pass
// 0.4/0.6/0.3 for the defaults the original scoring pipeline used: 40%
// keyword overlap, 60% TF-IDF cosine similarity, combined scores below the
// threshold floored to zero.
func NewLexicalGrader(keywordWeight, similarityWeight, similarityThreshold float64) *LexicalGrader {
	return &LexicalGrader{
		KeywordWeight:       keywordWeight,
		SimilarityWeight:    similarityWeight,
		SimilarityThreshold: similarityThreshold,
	}
}

func (g *LexicalGrader) Grade(_ context.Context, q *model.Question, answerText string) (Result, error) {
	if strings.TrimSpace(answerText) == "" {
		return Result{Score: 0, Feedback: "No answer provided."}, nil
	}

	keywordScore := keywordOverlap(answerText, q.ExpectedAnswer)
	similarityScore := cosineSimilarity(answerText, q.ExpectedAnswer)

	combined := g.KeywordWeight*keywordScore + g.SimilarityWeight*similarityScore
	if combined < g.SimilarityThreshold {
		combined = 0
	}

	final := round2(combined * float64(q.Points))
	return Result{Score: final, Feedback: feedbackFor(combined)}, nil
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = nonWordRunRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return text
}

func keywords(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(normalize(text)) {
		if len(w) > 2 && !stopwordsSet[w] {
			set[w] = true
		}
	}
	return set
}

func keywordOverlap(answer, expected string) float64 {
	expectedKeywords := keywords(expected)
	if len(expectedKeywords) == 0 {
		return 0
	}
	answerKeywords := keywords(answer)
	matched := 0
	for w := range answerKeywords {
		if expectedKeywords[w] {
			matched++
		}
	}
	score := float64(matched) / float64(len(expectedKeywords))
	if score > 1 {
		score = 1
	}
	return score
}

// cosineSimilarity computes TF-IDF cosine similarity between two documents
// treated as the entire corpus, mirroring a two-document fit_transform.
func cosineSimilarity(a, b string) float64 {
	docA := strings.Fields(normalize(a))
	docB := strings.Fields(normalize(b))
	if len(docA) == 0 || len(docB) == 0 {
		return 0
	}

	vocab := map[string]bool{}
	for _, w := range docA {
		vocab[w] = true
	}
	for _, w := range docB {
		vocab[w] = true
	}

	docsContaining := func(term string, docs ...[]string) int {
		n := 0
		for _, d := range docs {
			for _, w := range d {
				if w == term {
					n++
					break
				}
			}
		}
		return n
	}

	tfidf := func(doc []string) map[string]float64 {
		counts := map[string]int{}
		for _, w := range doc {
			counts[w]++
		}
		vec := make(map[string]float64, len(counts))
		for term, c := range counts {
			tf := float64(c) / float64(len(doc))
			df := docsContaining(term, docA, docB)
			idf := math.Log(float64(3)/float64(1+df)) + 1
			vec[term] = tf * idf
		}
		return vec
	}

	vecA := tfidf(docA)
	vecB := tfidf(docB)

	var dot, normA, normB float64
	for term := range vocab {
		av := vecA[term]
		bv := vecB[term]
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func feedbackFor(combined float64) string {
	switch {
	case combined >= 0.8:
		return "Excellent answer with strong keyword coverage and high similarity."
	case combined >= 0.6:
		return "Good answer with adequate keyword coverage."
	case combined >= 0.4:
		return "Fair answer with some relevant keywords."
	case combined >= 0.2:
		return "Weak answer with minimal keyword coverage."
	default:
		return "Answer does not meet the expected criteria."
	}
}
