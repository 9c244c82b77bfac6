package elastic

import (
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/shrimpsizemoose/trekker/logger"
)

func Connect(url string) (*es.Client, error) {
	cfg := es.Config{
		Addresses: []string{url},
	}
	client, err := es.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	logger.Info.Printf("✅ Connected to Elasticsearch (%s)", url)
	return client, nil
}
