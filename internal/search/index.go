package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/config"
)

// ProductDocument is the searchable projection of a product.
type ProductDocument struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Categories  string `json:"categories"`
	Brand       string `json:"brand"`
	Attributes  string `json:"attributes"`
}

var searchFields = []string{"name", "description", "categories", "brand", "attributes"}

const indexSettings = `{
  "settings": {"number_of_shards": 1, "number_of_replicas": 1},
  "mappings": {
    "properties": {
      "id":          {"type": "integer"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "categories":  {"type": "text"},
      "brand":       {"type": "text"},
      "attributes":  {"type": "text"}
    }
  }
}`

// ProductIndex runs free-text product queries against Elasticsearch.
type ProductIndex struct {
	client     *elasticsearch.Client
	index      string
	maxResults int
}

// NewProductIndex creates a ProductIndex for the configured cluster.
func NewProductIndex(cfg *config.SearchConfig) (*ProductIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.URLs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 1000
	}
	return &ProductIndex{client: client, index: cfg.Index, maxResults: maxResults}, nil
}

// Search returns the ids of products matching query, best match first.
func (i *ProductIndex) Search(ctx context.Context, query string) ([]int, error) {
	body := map[string]interface{}{
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":                query,
				"fields":               searchFields,
				"fuzziness":            "AUTO",
				"minimum_should_match": 1,
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(&buf),
		i.client.Search.WithSize(i.maxResults),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res.StatusCode, res.Body)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]int, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			log.Warn().Str("doc_id", hit.ID).Msg("Skipping search hit with non numeric id")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (i *ProductIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index: unexpected status %d", res.StatusCode)
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexSettings))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.StatusCode, res.Body)
	}
	log.Info().Str("index", i.index).Msg("Created search index")
	return nil
}

// Index writes docs with one bulk request, replacing existing documents.
func (i *ProductIndex) Index(ctx context.Context, docs []ProductDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]map[string]string{"index": {"_id": strconv.Itoa(doc.ID)}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode bulk doc: %w", err)
		}
	}

	res, err := i.client.Bulk(&buf,
		i.client.Bulk.WithContext(ctx),
		i.client.Bulk.WithIndex(i.index),
	)
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("bulk", res.StatusCode, res.Body)
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		failed := 0
		for _, item := range parsed.Items {
			for _, result := range item {
				if result.Status >= 300 {
					failed++
				}
			}
		}
		return fmt.Errorf("bulk index: %d of %d documents failed", failed, len(docs))
	}
	return nil
}

func responseError(op string, status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 1024))
	if len(raw) == 0 {
		return fmt.Errorf("%s: status %d", op, status)
	}
	return fmt.Errorf("%s: status %d: %s", op, status, raw)
}
