package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

type Config struct {
	Addresses []string
	Username  string
	Password  string
}

type Client struct {
	es *elasticsearch.Client
}

func NewClient(cfg *Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	res, err := es.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	return &Client{es: es}, nil
}

// NewFromES wraps an existing client without the connectivity check.
func NewFromES(es *elasticsearch.Client) *Client {
	return &Client{es: es}
}

type SearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string            `json:"_id"`
			Source json.RawMessage   `json:"_source"`
			Sort   []json.RawMessage `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) CreateIndex(ctx context.Context, index, mapping string) error {
	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	// 400 resource_already_exists_exception is fine
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}

func (c *Client) Index(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %s: %s", id, res.Status())
	}
	return nil
}

func (c *Client) Search(ctx context.Context, index string, query map[string]interface{}) (*SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search %s: %s: %s", index, res.Status(), msg)
	}

	var out SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DefaultPageSize is the number of hits SearchIDs reads per request when none is given.
const DefaultPageSize = 1000

// SearchIDs runs a query_string search and returns the numeric document ids of every hit.
// Hits are read pageSize at a time with search_after on the numeric id field.
func (c *Client) SearchIDs(ctx context.Context, index, term string, fields []string, pageSize int) ([]int64, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	ids := []int64{}
	var after []json.RawMessage
	for {
		q := map[string]interface{}{
			"_source": false,
			"size":    pageSize,
			"sort":    []interface{}{map[string]interface{}{"id": "asc"}},
			"query": map[string]interface{}{
				"query_string": map[string]interface{}{
					"query":  fmt.Sprintf("*%s*", term),
					"fields": fields,
				},
			},
		}
		if after != nil {
			q["search_after"] = after
		}

		res, err := c.Search(ctx, index, q)
		if err != nil {
			return nil, err
		}

		for _, hit := range res.Hits.Hits {
			id, err := strconv.ParseInt(hit.ID, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}

		hits := res.Hits.Hits
		if len(hits) < pageSize {
			return ids, nil
		}
		after = hits[len(hits)-1].Sort
		if len(after) == 0 {
			return nil, fmt.Errorf("search %s: hit without sort values, cannot page", index)
		}
	}
}
