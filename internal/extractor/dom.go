package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse fetched bodies into a DOM tree
- Extract attribute values (the crawl consumes href)

The extractor never fetches and never judges URLs; it returns raw
attribute strings in document order and leaves normalization and
filtering to the caller. Non-HTML bytes parse leniently under HTML5
error recovery and simply yield no attributes.
*/

// Extractor is the parser boundary of the crawl.
type Extractor interface {
	Parse(sourceUrl *url.URL, body []byte) (*goquery.Document, failure.ClassifiedError)
	Attributes(doc *goquery.Document, attrName string) []string
}

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

func (d *DomExtractor) Parse(sourceUrl *url.URL, body []byte) (*goquery.Document, failure.ClassifiedError) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		extractionErr := &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
		d.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"DomExtractor.Parse",
			mapExtractionErrorToMetadataCause(extractionErr),
			extractionErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
			},
		)
		return nil, extractionErr
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Attributes returns every value of the named attribute across all elements
// of doc, in document order. Elements carrying the attribute with an empty
// value contribute an empty string.
func (d *DomExtractor) Attributes(doc *goquery.Document, attrName string) []string {
	var values []string
	doc.Find(fmt.Sprintf("[%s]", attrName)).Each(func(i int, s *goquery.Selection) {
		if val, exists := s.Attr(attrName); exists {
			values = append(values, val)
		}
	})
	return values
}
