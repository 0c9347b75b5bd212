package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
)

// Field weights for term matches. Title hits count most, content hits least,
// summary and tag hits sit in between.
const (
	titleWeight   = 1.0
	contentWeight = 0.5
	summaryWeight = 0.8
	tagWeight     = 0.7
)

// Suggestion is a completion or related-query candidate with the number of
// documents supporting it.
type Suggestion struct {
	Term  string
	Count int
}

// SmartSearcher provides lexical search over documents: weighted multi-field
// term matching, fuzzy whole-text matching, prefix suggestions, and related
// query discovery.
type SmartSearcher struct {
	docs   storage.DocumentRepository
	logger *slog.Logger
}

// SmartOption configures a SmartSearcher.
type SmartOption func(*SmartSearcher)

// WithSmartLogger sets a custom logger.
// Default is slog.Default().
func WithSmartLogger(logger *slog.Logger) SmartOption {
	return func(s *SmartSearcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSmartSearcher creates a new lexical searcher.
func NewSmartSearcher(docs storage.DocumentRepository, opts ...SmartOption) (*SmartSearcher, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	s := &SmartSearcher{
		docs:   docs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search scores every document against the query terms and returns the top
// matches ordered by score. Documents scoring below minScore are dropped.
//
// Each expanded term contributes one weighted slot per field: title, content,
// tags, and summary when the document has one. A document's score is the mean
// over all slots, so a single-term query hitting title and a tag of a
// summaryless document scores (1.0 + 0 + 0.7) / 3.
func (s *SmartSearcher) Search(ctx context.Context, query string, minScore float64, limit int) ([]core.ScoredDocument, error) {
	clean := normalizeQuery(query)
	terms := expandTerms(queryTerms(clean))
	if len(terms) == 0 {
		return []core.ScoredDocument{}, nil
	}

	docs, err := s.docs.AllDocuments(ctx)
	if err != nil {
		s.logger.Error("failed to load documents for search", "err", err)
		return nil, err
	}

	results := make([]core.ScoredDocument, 0)
	for _, doc := range docs {
		score := scoreDocument(doc, terms)
		if score > 0 && score >= minScore {
			results = append(results, core.ScoredDocument{Document: doc, Score: score})
		}
	}

	sortScored(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("smart search complete",
		"query", clean, "terms", len(terms), "minScore", minScore, "hits", len(results))
	return results, nil
}

// scoreDocument computes the mean weighted term-field match for one document.
func scoreDocument(doc *core.Document, terms []string) float64 {
	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)
	summary := strings.ToLower(doc.Summary)

	tags := make([]string, len(doc.Tags))
	for i, tag := range doc.Tags {
		tags[i] = strings.ToLower(tag)
	}

	fieldsPerTerm := 3
	if summary != "" {
		fieldsPerTerm = 4
	}

	var total float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			total += titleWeight
		}
		if strings.Contains(content, term) {
			total += contentWeight
		}
		if summary != "" && strings.Contains(summary, term) {
			total += summaryWeight
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				total += tagWeight
				break
			}
		}
	}

	return total / float64(len(terms)*fieldsPerTerm)
}

// FuzzySearch matches the query against whole documents using character-level
// similarity. Candidates are documents whose title or content contains at
// least one expanded query term; each candidate is scored by the
// Ratcliff/Obershelp ratio of its title and content against the query, and
// kept when the ratio reaches minScore. maxDistance is accepted for API
// compatibility but does not constrain results.
func (s *SmartSearcher) FuzzySearch(ctx context.Context, query string, maxDistance int, minScore float64, limit int) ([]core.ScoredDocument, error) {
	_ = maxDistance

	clean := normalizeQuery(query)
	terms := expandTerms(queryTerms(clean))
	if len(terms) == 0 {
		return []core.ScoredDocument{}, nil
	}

	docs, err := s.docs.AllDocuments(ctx)
	if err != nil {
		s.logger.Error("failed to load documents for fuzzy search", "err", err)
		return nil, err
	}

	results := make([]core.ScoredDocument, 0)
	for _, doc := range docs {
		haystack := strings.ToLower(doc.Title + " " + doc.Content)
		candidate := false
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				candidate = true
				break
			}
		}
		if !candidate {
			continue
		}

		score := ratio(haystack, clean)
		if score < minScore {
			continue
		}
		results = append(results, core.ScoredDocument{Document: doc, Score: score})
	}

	sortScored(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Suggest returns completion candidates for a partial query, drawn from
// document title words and tags that share the prefix. An empty query
// returns the most-used tags.
func (s *SmartSearcher) Suggest(ctx context.Context, partial string, limit int) ([]Suggestion, error) {
	clean := normalizeQuery(partial)
	if clean == "" {
		return s.topTags(ctx, limit)
	}

	docs, err := s.docs.AllDocuments(ctx)
	if err != nil {
		s.logger.Error("failed to load documents for suggestions", "err", err)
		return nil, err
	}

	counts := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, word := range strings.Fields(normalizeQuery(doc.Title)) {
			if strings.HasPrefix(word, clean) && !seen[word] {
				counts[word]++
				seen[word] = true
			}
		}
		for _, tag := range doc.Tags {
			lower := strings.ToLower(tag)
			if strings.HasPrefix(lower, clean) && !seen[lower] {
				counts[lower]++
				seen[lower] = true
			}
		}
	}

	return rankedSuggestions(counts, limit), nil
}

// SimilarQueries proposes follow-up queries by appending words and tags that
// co-occur with the current query terms in matching documents.
func (s *SmartSearcher) SimilarQueries(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	clean := normalizeQuery(query)
	terms := queryTerms(clean)
	if len(terms) == 0 {
		return []Suggestion{}, nil
	}

	docs, err := s.docs.AllDocuments(ctx)
	if err != nil {
		s.logger.Error("failed to load documents for related queries", "err", err)
		return nil, err
	}

	inQuery := make(map[string]bool, len(terms))
	for _, term := range terms {
		inQuery[term] = true
	}

	merged := make(map[string]int)
	for _, term := range terms {
		cooccur := make(map[string]int)
		for _, doc := range docs {
			text := normalizeQuery(doc.Title + " " + doc.Content)
			if !strings.Contains(text, term) && !hasTag(doc.Tags, term) {
				continue
			}
			seen := make(map[string]bool)
			for _, word := range strings.Fields(text) {
				if len(word) > 3 && !stopWords[word] && !inQuery[word] && !seen[word] {
					cooccur[word]++
					seen[word] = true
				}
			}
			for _, tag := range doc.Tags {
				lower := strings.ToLower(tag)
				if !inQuery[lower] && !seen[lower] {
					cooccur[lower]++
					seen[lower] = true
				}
			}
		}

		// Keep the strongest few companions per term
		for _, top := range rankedSuggestions(cooccur, 5) {
			if top.Count > merged[top.Term] {
				merged[top.Term] = top.Count
			}
		}
	}

	related := rankedSuggestions(merged, limit)
	for i := range related {
		related[i].Term = clean + " " + related[i].Term
	}
	return related, nil
}

// hasTag reports whether term matches one of the document's tags,
// case-insensitively.
func hasTag(tags []string, term string) bool {
	for _, tag := range tags {
		if strings.ToLower(tag) == term {
			return true
		}
	}
	return false
}

// topTags returns the most frequently used tags as suggestions.
func (s *SmartSearcher) topTags(ctx context.Context, limit int) ([]Suggestion, error) {
	tagCounts, err := s.docs.TagCounts(ctx)
	if err != nil {
		s.logger.Error("failed to load tag counts", "err", err)
		return nil, err
	}

	if limit > 0 && len(tagCounts) > limit {
		tagCounts = tagCounts[:limit]
	}
	suggestions := make([]Suggestion, len(tagCounts))
	for i, tc := range tagCounts {
		suggestions[i] = Suggestion{Term: tc.Tag, Count: tc.Count}
	}
	return suggestions, nil
}

// rankedSuggestions orders counted terms by count descending, then
// alphabetically, and truncates to limit.
func rankedSuggestions(counts map[string]int, limit int) []Suggestion {
	suggestions := make([]Suggestion, 0, len(counts))
	for term, count := range counts {
		suggestions = append(suggestions, Suggestion{Term: term, Count: count})
	}
	slices.SortFunc(suggestions, func(a, b Suggestion) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Term, b.Term)
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// sortScored orders results by score descending with document key as a
// deterministic tiebreak.
func sortScored(results []core.ScoredDocument) {
	slices.SortFunc(results, func(a, b core.ScoredDocument) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Document.Key, b.Document.Key)
	})
}
