package scoring

import (
	"math"
	"strings"
	"unicode"
)

var stopWords = toSet(`a about above after again against all am an and any are as at be because been
before being below between both but by can could did do does doing down during each few for from
further had has have having he her here hers herself him himself his how i if in into is it its
itself just me more most my myself no nor not now of off on once only or other our ours ourselves
out over own same she should so some such than that the their theirs them themselves then there
these they this those through to too under until up very was we were what when where which while
who whom why will with you your yours yourself yourselves us also etc per via within across
including well must may might would shall`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// tokenize lowercases text and splits it into terms, keeping + and # so that
// C++ and C# survive. Stop words and other one-character tokens are dropped.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimLeft(f, "+")
		if f != "" && unicode.IsDigit(rune(f[0])) {
			f = strings.TrimRight(f, "+")
		}
		if len([]rune(f)) < 2 && f != "c" && f != "r" {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// ContentSimilarity is the cosine similarity of the TF-IDF vectors of a and
// b, with both documents forming the corpus.
func ContentSimilarity(a, b string) float64 {
	docs := [][]string{tokenize(a), tokenize(b)}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0
	}

	tfs := make([]map[string]float64, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]float64)
		for _, t := range doc {
			tf[t]++
		}
		for t := range tf {
			tf[t] /= float64(len(doc))
			df[t]++
		}
		tfs[i] = tf
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log((1+n)/(1+float64(d))) + 1
	}

	var dot, normA, normB float64
	for t, w := range idf {
		x := tfs[0][t] * w
		y := tfs[1][t] * w
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
