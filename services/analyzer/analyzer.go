// Package analyzer provides search analyzer operations.
package analyzer

import (
	"context"
	"encoding/json"

	arangorest "github.com/arangorest/arangorest-go"
)

// AnalyzerClient defines the interface for analyzer operations.
// Implement this interface for testing with mocks.
type AnalyzerClient interface {
	List(ctx context.Context) ([]Analyzer, error)
	Get(ctx context.Context, name string) (*Analyzer, error)
	Create(ctx context.Context, def Analyzer) (*Analyzer, error)
	Delete(ctx context.Context, name string, force bool) error
}

// Client is an analyzer client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new analyzer client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements AnalyzerClient.
var _ AnalyzerClient = (*Client)(nil)

// Feature names an analyzer feature.
type Feature string

const (
	FeatureFrequency Feature = "frequency"
	FeatureNorm      Feature = "norm"
	FeaturePosition  Feature = "position"
	FeatureOffset    Feature = "offset"
)

// Analyzer is an analyzer definition. Properties depend on Type and are
// passed through as JSON.
type Analyzer struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
	Features   []Feature       `json:"features,omitempty"`
}

func analyzerPath(name string) string {
	return "/_api/analyzer/" + arangorest.PathEscape(name)
}

// List returns the analyzers visible in the current database, built-in
// ones included.
func (c *Client) List(ctx context.Context) ([]Analyzer, error) {
	resp, err := c.client.Get(ctx, "/_api/analyzer")
	if err != nil {
		return nil, err
	}
	var out []Analyzer
	if err := resp.UnmarshalResult(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns an analyzer.
func (c *Client) Get(ctx context.Context, name string) (*Analyzer, error) {
	if err := arangorest.RequireArg("analyzer name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, analyzerPath(name))
	if err != nil {
		return nil, err
	}
	return decodeAnalyzer(resp)
}

// Create creates an analyzer. Creating one identical to an existing
// analyzer succeeds and returns the existing definition.
//
// Example:
//
//	a, err := analyzers.Create(ctx, analyzer.Analyzer{
//	    Name:       "text_de_stem",
//	    Type:       "text",
//	    Properties: json.RawMessage(`{"locale":"de","stemming":true}`),
//	    Features:   []analyzer.Feature{analyzer.FeatureFrequency, analyzer.FeatureNorm},
//	})
func (c *Client) Create(ctx context.Context, def Analyzer) (*Analyzer, error) {
	if err := arangorest.RequireArg("analyzer name", def.Name); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("analyzer type", def.Type); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, "/_api/analyzer", def)
	if err != nil {
		return nil, err
	}
	return decodeAnalyzer(resp)
}

// Delete removes an analyzer. With force set it is removed even while
// views use it.
func (c *Client) Delete(ctx context.Context, name string, force bool) error {
	if err := arangorest.RequireArg("analyzer name", name); err != nil {
		return err
	}
	var opts []arangorest.RequestOption
	if force {
		opts = append(opts, arangorest.WithQuery("force", true))
	}
	_, err := c.client.Delete(ctx, analyzerPath(name), opts...)
	return err
}

func decodeAnalyzer(resp *arangorest.Response) (*Analyzer, error) {
	var a Analyzer
	if err := resp.Unmarshal(&a); err != nil {
		return nil, err
	}
	return &a, nil
}
