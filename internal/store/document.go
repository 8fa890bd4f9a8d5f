package store

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/booksearch/internal/catalog"
)

// BookType is the bleve document type of every indexed record.
const BookType = "book"

// Field names of the book mapping.
const (
	FieldID             = "id"
	FieldTitle          = "title"
	FieldAuthor         = "author"
	FieldPublisher      = "publisher"
	FieldExtension      = "extension"
	FieldFilesize       = "filesize"
	FieldLanguage       = "language"
	FieldYear           = "year"
	FieldPages          = "pages"
	FieldISBN           = "isbn"
	FieldIPFSCID        = "ipfs_cid"
	FieldPublisherExist = "publisher_exist"
)

// Document is the indexed form of one catalog record.
type Document struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Publisher      string `json:"publisher"`
	Extension      string `json:"extension"`
	Filesize       uint64 `json:"filesize"`
	Language       string `json:"language"`
	Year           uint64 `json:"year"`
	Pages          uint64 `json:"pages"`
	ISBN           string `json:"isbn"`
	IPFSCID        string `json:"ipfs_cid"`
	PublisherExist bool   `json:"publisher_exist"`
}

// Type implements bleve's mapping.Classifier.
func (Document) Type() string {
	return BookType
}

// MapRecord converts a record to its document. PublisherExist is true iff
// the publisher is non-empty.
func MapRecord(rec catalog.Record) Document {
	return Document{
		ID:             rec.ID,
		Title:          rec.Title,
		Author:         rec.Author,
		Publisher:      rec.Publisher,
		Extension:      rec.Extension,
		Filesize:       rec.Filesize,
		Language:       rec.Language,
		Year:           rec.Year,
		Pages:          rec.Pages,
		ISBN:           rec.ISBN,
		IPFSCID:        rec.IPFSCID,
		PublisherExist: rec.Publisher != "",
	}
}

// NewBookMapping returns the index mapping for Document. Every field is
// stored; free text is analyzed, identifiers are keywords.
func NewBookMapping() *mapping.IndexMappingImpl {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	keyword := bleve.NewKeywordFieldMapping()
	numeric := bleve.NewNumericFieldMapping()
	boolean := bleve.NewBooleanFieldMapping()

	cid := bleve.NewKeywordFieldMapping()
	cid.Index = false
	cid.IncludeInAll = false

	book := bleve.NewDocumentStaticMapping()
	book.AddFieldMappingsAt(FieldID, numeric)
	book.AddFieldMappingsAt(FieldTitle, text)
	book.AddFieldMappingsAt(FieldAuthor, text)
	book.AddFieldMappingsAt(FieldPublisher, text)
	book.AddFieldMappingsAt(FieldExtension, keyword)
	book.AddFieldMappingsAt(FieldFilesize, numeric)
	book.AddFieldMappingsAt(FieldLanguage, keyword)
	book.AddFieldMappingsAt(FieldYear, numeric)
	book.AddFieldMappingsAt(FieldPages, numeric)
	book.AddFieldMappingsAt(FieldISBN, keyword)
	book.AddFieldMappingsAt(FieldIPFSCID, cid)
	book.AddFieldMappingsAt(FieldPublisherExist, boolean)

	im := bleve.NewIndexMapping()
	im.AddDocumentMapping(BookType, book)
	im.DefaultMapping = book
	im.DefaultAnalyzer = standard.Name
	im.StoreDynamic = false
	im.IndexDynamic = false
	im.DocValuesDynamic = false

	return im
}

// documentFromFields rebuilds a Document from stored search-hit fields.
func documentFromFields(fields map[string]interface{}) Document {
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	num := func(name string) uint64 {
		f, _ := fields[name].(float64)
		return uint64(f)
	}
	exist, _ := fields[FieldPublisherExist].(bool)

	return Document{
		ID:             num(FieldID),
		Title:          str(FieldTitle),
		Author:         str(FieldAuthor),
		Publisher:      str(FieldPublisher),
		Extension:      str(FieldExtension),
		Filesize:       num(FieldFilesize),
		Language:       str(FieldLanguage),
		Year:           num(FieldYear),
		Pages:          num(FieldPages),
		ISBN:           str(FieldISBN),
		IPFSCID:        str(FieldIPFSCID),
		PublisherExist: exist,
	}
}
