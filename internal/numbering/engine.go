// Package numbering assigns and maintains inline citation numbers within a
// document and recomputes a single global numbering across a project.
//
// Within a document the distinct inline numbers are always exactly {1..k}
// with no gaps, where k is the number of distinct dedupe groups cited, and
// sub-numbers within a group are exactly {1..m}. Adds reuse number gaps,
// removes close them immediately; see each operation for the details.
//
// Operations assume single-writer-per-document semantics. Concurrent
// mutations of one document's citation set must be serialized by the caller;
// the gap-filling and resequencing logic is not idempotent under
// interleaved execution.
package numbering

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/matsen/citegraph/internal/article"
	"github.com/matsen/citegraph/internal/dedupe"
)

// Store is the record-store surface the engine mutates citations through.
// *storage.DB satisfies it.
type Store interface {
	GetArticle(id string) (*article.Article, error)
	GetDocument(id string) (*article.Document, error)
	GetCitation(id string) (*article.Citation, error)
	ListCitations(documentID string) ([]article.Citation, error)
	InsertCitation(c *article.Citation) error
	UpdateCitations(cits []article.Citation) error
	DeleteCitations(ids []string) error
}

// ErrInvariantViolation reports that a mutation would have produced
// overlapping or gapped numbers. The mutation is aborted; nothing persists.
var ErrInvariantViolation = errors.New("citation numbering invariant violation")

// Engine maintains citation numbering for documents backed by a Store.
type Engine struct {
	store Store
}

// NewEngine creates a numbering engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Add attaches an article to a document as a new citation.
//
// If the document already cites the same logical source (matched first by
// exact article id, then by dedupe key against every other citation's
// article), the new citation reuses that group's inline number and takes the
// smallest free sub-number. Otherwise it takes the smallest inline number
// not used by any group. No other rows are renumbered.
func (e *Engine) Add(documentID, articleID, pageRange, note string) (*article.Citation, error) {
	doc, err := e.store.GetDocument(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, article.ErrDocumentNotFound
	}

	a, err := e.store.GetArticle(articleID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, article.ErrArticleNotFound
	}
	key := dedupe.Key(a)

	cits, err := e.store.ListCitations(documentID)
	if err != nil {
		return nil, err
	}
	keys, err := e.citationKeys(cits)
	if err != nil {
		return nil, err
	}

	// Exact article match first, dedupe-key match second. The second pass
	// catches duplicate article rows describing the same source.
	var group []article.Citation
	for _, c := range cits {
		if c.ArticleID == articleID {
			group = append(group, c)
		}
	}
	if len(group) == 0 {
		for _, c := range cits {
			if keys[c.ID] == key {
				group = append(group, c)
			}
		}
	}

	c := article.Citation{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		ArticleID:  articleID,
		OrderIndex: maxOrderIndex(cits) + 1,
		PageRange:  pageRange,
		Note:       note,
	}

	if len(group) > 0 {
		usedSubs := make(map[int]bool, len(group))
		for _, g := range group {
			usedSubs[g.SubNumber] = true
		}
		c.InlineNumber = group[0].InlineNumber
		c.SubNumber = smallestMissing(usedSubs)
	} else {
		usedInline := make(map[int]bool, len(cits))
		for _, existing := range cits {
			usedInline[existing.InlineNumber] = true
		}
		c.InlineNumber = smallestMissing(usedInline)
		c.SubNumber = 1
	}

	for _, g := range group {
		if g.InlineNumber == c.InlineNumber && g.SubNumber == c.SubNumber {
			return nil, fmt.Errorf("number %d.%d already active in document %s: %w",
				c.InlineNumber, c.SubNumber, documentID, ErrInvariantViolation)
		}
	}

	if err := e.store.InsertCitation(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Remove deletes a citation and restores numbering density.
//
// If other citations of the same dedupe group remain, their sub-numbers are
// resequenced 1..count by order index. If the last citation of a group was
// removed, every group with a greater inline number shifts down by one so
// the numbers stay dense. Order indexes resequence to 0..n-1 either way.
func (e *Engine) Remove(citationID string) error {
	victim, err := e.store.GetCitation(citationID)
	if err != nil {
		return err
	}
	if victim == nil {
		return article.ErrCitationNotFound
	}

	cits, err := e.store.ListCitations(victim.DocumentID)
	if err != nil {
		return err
	}
	keys, err := e.citationKeys(cits)
	if err != nil {
		return err
	}
	victimKey := keys[victim.ID]

	var remaining []article.Citation
	for _, c := range cits {
		if c.ID != citationID {
			remaining = append(remaining, c)
		}
	}

	var group []article.Citation
	for _, c := range remaining {
		if keys[c.ID] == victimKey {
			group = append(group, c)
		}
	}

	updated := make(map[string]article.Citation, len(remaining))
	if len(group) > 0 {
		sort.SliceStable(group, func(i, j int) bool { return group[i].OrderIndex < group[j].OrderIndex })
		for i := range group {
			if group[i].SubNumber != i+1 {
				group[i].SubNumber = i + 1
				updated[group[i].ID] = group[i]
			}
		}
	} else {
		// Last citation of the group: close the inline-number gap now.
		for _, c := range remaining {
			if c.InlineNumber > victim.InlineNumber {
				c.InlineNumber--
				updated[c.ID] = c
			}
		}
	}

	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].OrderIndex < remaining[j].OrderIndex })
	for i, c := range remaining {
		if u, ok := updated[c.ID]; ok {
			c = u
		}
		if c.OrderIndex != i {
			c.OrderIndex = i
			updated[c.ID] = c
		}
	}

	final := make([]article.Citation, 0, len(remaining))
	for _, c := range remaining {
		if u, ok := updated[c.ID]; ok {
			c = u
		}
		final = append(final, c)
	}
	if err := checkDense(final, keys); err != nil {
		return err
	}

	if err := e.store.DeleteCitations([]string{citationID}); err != nil {
		return err
	}
	changes := make([]article.Citation, 0, len(updated))
	for _, c := range updated {
		changes = append(changes, c)
	}
	return e.store.UpdateCitations(changes)
}

// Synchronize reconciles a document's citation rows with the citation ids
// still present in its content. Rows not in presentIDs are deleted; the
// survivors are renumbered from scratch: groups by dedupe key in order of
// first appearance, sub-numbers sequential within each group, order indexes
// 0..n-1. Citations whose articles are distinct rows sharing a dedupe key
// merge into one group here. Running it twice with the same id set is a
// no-op the second time.
func (e *Engine) Synchronize(documentID string, presentIDs []string) (changed int, err error) {
	doc, err := e.store.GetDocument(documentID)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, article.ErrDocumentNotFound
	}

	cits, err := e.store.ListCitations(documentID)
	if err != nil {
		return 0, err
	}

	present := make(map[string]bool, len(presentIDs))
	for _, id := range presentIDs {
		present[id] = true
	}

	var toDelete []string
	var remaining []article.Citation
	for _, c := range cits {
		if present[c.ID] {
			remaining = append(remaining, c)
		} else {
			toDelete = append(toDelete, c.ID)
		}
	}

	keys, err := e.citationKeys(remaining)
	if err != nil {
		return 0, err
	}

	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].OrderIndex < remaining[j].OrderIndex })

	inlineByKey := make(map[string]int)
	subByKey := make(map[string]int)
	nextInline := 1

	var changes []article.Citation
	for i, c := range remaining {
		key := keys[c.ID]
		if _, seen := inlineByKey[key]; !seen {
			inlineByKey[key] = nextInline
			nextInline++
		}
		subByKey[key]++

		want := c
		want.InlineNumber = inlineByKey[key]
		want.SubNumber = subByKey[key]
		want.OrderIndex = i
		if want != c {
			changes = append(changes, want)
		}
	}

	if len(toDelete) > 0 {
		if err := e.store.DeleteCitations(toDelete); err != nil {
			return 0, err
		}
	}
	if err := e.store.UpdateCitations(changes); err != nil {
		return 0, err
	}
	return len(toDelete) + len(changes), nil
}

// citationKeys resolves the dedupe key of every citation's article, caching
// article lookups. A citation whose article row is missing falls back to an
// id key so it forms its own group instead of failing the operation.
func (e *Engine) citationKeys(cits []article.Citation) (map[string]string, error) {
	byArticle := make(map[string]string)
	keys := make(map[string]string, len(cits))
	for _, c := range cits {
		key, ok := byArticle[c.ArticleID]
		if !ok {
			a, err := e.store.GetArticle(c.ArticleID)
			if err != nil {
				return nil, err
			}
			if a == nil {
				key = "id:" + c.ArticleID
			} else {
				key = dedupe.Key(a)
			}
			byArticle[c.ArticleID] = key
		}
		keys[c.ID] = key
	}
	return keys, nil
}

// checkDense verifies the dense-numbering invariants over a planned final
// state: inline numbers exactly {1..k}, sub-numbers exactly {1..m} per group.
func checkDense(cits []article.Citation, keys map[string]string) error {
	inlineByKey := make(map[string]int)
	subsByKey := make(map[string]map[int]bool)
	for _, c := range cits {
		key := keys[c.ID]
		if prev, ok := inlineByKey[key]; ok && prev != c.InlineNumber {
			return fmt.Errorf("group %s has inline numbers %d and %d: %w", key, prev, c.InlineNumber, ErrInvariantViolation)
		}
		inlineByKey[key] = c.InlineNumber
		if subsByKey[key] == nil {
			subsByKey[key] = make(map[int]bool)
		}
		if subsByKey[key][c.SubNumber] {
			return fmt.Errorf("group %s reuses sub-number %d: %w", key, c.SubNumber, ErrInvariantViolation)
		}
		subsByKey[key][c.SubNumber] = true
	}

	seen := make(map[int]bool, len(inlineByKey))
	for key, n := range inlineByKey {
		if n < 1 || n > len(inlineByKey) || seen[n] {
			return fmt.Errorf("inline number %d for group %s breaks density: %w", n, key, ErrInvariantViolation)
		}
		seen[n] = true
	}
	for key, subs := range subsByKey {
		for s := 1; s <= len(subs); s++ {
			if !subs[s] {
				return fmt.Errorf("group %s missing sub-number %d: %w", key, s, ErrInvariantViolation)
			}
		}
	}
	return nil
}

// smallestMissing returns the smallest positive integer absent from used.
func smallestMissing(used map[int]bool) int {
	for n := 1; ; n++ {
		if !used[n] {
			return n
		}
	}
}

func maxOrderIndex(cits []article.Citation) int {
	max := -1
	for _, c := range cits {
		if c.OrderIndex > max {
			max = c.OrderIndex
		}
	}
	return max
}
