package search

import (
	"context"
	"log"
	"strconv"

	"github.com/olivere/elastic/v7"
)

const productIndex = "products"

const productMapping = `{
	"mappings": {
		"properties": {
			"name":        {"type": "text"},
			"description": {"type": "text"},
			"brand":       {"type": "keyword"}
		}
	}
}`

// ProductDoc is the indexed projection of a product.
type ProductDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
}

// Client maintains the product search index. A nil Client disables
// Elasticsearch and callers fall back to SQL LIKE queries.
type Client struct {
	es *elastic.Client
}

// NewClient connects to Elasticsearch and ensures the products index.
// Returns nil when address is empty.
func NewClient(address string) (*Client, error) {
	if address == "" {
		log.Println("Elasticsearch not configured, keyword search uses SQL")
		return nil, nil
	}

	es, err := elastic.NewClient(
		elastic.SetURL(address),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := es.IndexExists(productIndex).Do(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := es.CreateIndex(productIndex).BodyString(productMapping).Do(ctx); err != nil {
			return nil, err
		}
	}

	log.Println("Elasticsearch connected successfully")
	return &Client{es: es}, nil
}

func (c *Client) Enabled() bool {
	return c != nil
}

// IndexProduct upserts one product document.
func (c *Client) IndexProduct(ctx context.Context, id uint, doc ProductDoc) {
	if c == nil {
		return
	}
	_, err := c.es.Index().
		Index(productIndex).
		Id(strconv.FormatUint(uint64(id), 10)).
		BodyJson(doc).
		Do(ctx)
	if err != nil {
		log.Printf("search: index product %d: %v", id, err)
	}
}

// DeleteProduct removes a product document.
func (c *Client) DeleteProduct(ctx context.Context, id uint) {
	if c == nil {
		return
	}
	_, err := c.es.Delete().
		Index(productIndex).
		Id(strconv.FormatUint(uint64(id), 10)).
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		log.Printf("search: delete product %d: %v", id, err)
	}
}

// SearchProducts returns ids of products matching keyword across
// name/description/brand, best match first.
func (c *Client) SearchProducts(ctx context.Context, keyword string, limit int) ([]uint, error) {
	query := elastic.NewMultiMatchQuery(keyword, "name", "description", "brand").
		Type("best_fields").
		Fuzziness("AUTO")

	result, err := c.es.Search().
		Index(productIndex).
		Query(query).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		id, err := strconv.ParseUint(hit.Id, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
