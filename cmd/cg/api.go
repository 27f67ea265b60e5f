package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/matsen/citegraph/internal/config"
	"github.com/matsen/citegraph/internal/pubmed"
)

// newAPIClient builds the throttled bibliographic API client. A .env file
// is loaded first so NCBI_API_KEY can live next to the repository.
func newAPIClient() *pubmed.Client {
	_ = godotenv.Load()

	var opts []pubmed.ClientOption
	if key := config.GetNCBIAPIKey(); key != "" {
		opts = append(opts, pubmed.WithAPIKey(key))
	}
	return pubmed.NewClient(opts...)
}

// fetchByDOI looks up one work by DOI. Returns nil without error when the
// DOI is unknown.
func fetchByDOI(ctx context.Context, doi string) (*pubmed.PartialArticle, error) {
	return newAPIClient().FetchByDoi(ctx, doi)
}
