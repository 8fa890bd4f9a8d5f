package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"

	apperrors "github.com/Aman-CERP/booksearch/internal/errors"
)

// Reader is a read-only view of a finished index, used for statistics and
// verification. It holds the index lock shared, so it cannot be opened
// while a build is writing.
type Reader struct {
	path  string
	lock  *indexLock
	index bleve.Index
}

// OpenReader opens the index at path read-only.
func OpenReader(path string) (*Reader, error) {
	lock := newIndexLock(path)
	if err := lock.tryLock(true); err != nil {
		code := apperrors.ErrCodeIndexOpenFailed
		if errors.Is(err, ErrWriterBusy) {
			code = apperrors.ErrCodeWriterBusy
		}
		return nil, apperrors.IndexError(code, path, err)
	}

	idx, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	if err != nil {
		_ = lock.unlock()
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return nil, apperrors.IndexError(apperrors.ErrCodeFileNotFound, path, err).
				WithSuggestion("Run 'booksearch index <catalog.csv>' first")
		}
		return nil, apperrors.IndexError(apperrors.ErrCodeIndexOpenFailed, path, err)
	}

	return &Reader{path: path, lock: lock, index: idx}, nil
}

// DocCount returns the number of documents in the index.
func (r *Reader) DocCount() (uint64, error) {
	return r.index.DocCount()
}

// Get returns the stored document with the given id.
func (r *Reader) Get(ctx context.Context, id string) (Document, bool, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Fields = []string{"*"}
	req.Size = 1

	res, err := r.index.SearchInContext(ctx, req)
	if err != nil {
		return Document{}, false, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return Document{}, false, nil
	}
	return documentFromFields(res.Hits[0].Fields), true, nil
}

// Documents returns every stored document ordered by document id.
func (r *Reader) Documents(ctx context.Context) ([]Document, error) {
	count, err := r.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []Document{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Fields = []string{"*"}
	req.Size = int(count)

	res, err := r.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	type entry struct {
		key uint64
		doc Document
	}
	entries := make([]entry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		key, _ := strconv.ParseUint(hit.ID, 10, 64)
		entries = append(entries, entry{key: key, doc: documentFromFields(hit.Fields)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	docs := make([]Document, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs, nil
}

// Close closes the index and releases the shared lock.
func (r *Reader) Close() error {
	return errors.Join(r.index.Close(), r.lock.unlock())
}
