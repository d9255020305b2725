// Package graph provides named graph operations.
package graph

import (
	"context"

	arangorest "github.com/arangorest/arangorest-go"
)

// GraphClient defines the interface for named graph operations.
// Implement this interface for testing with mocks.
type GraphClient interface {
	List(ctx context.Context) ([]Graph, error)
	Create(ctx context.Context, name string, opts *CreateOptions) (*Graph, error)
	Get(ctx context.Context, name string) (*Graph, error)
	Drop(ctx context.Context, name string, dropCollections bool) error

	VertexCollections(ctx context.Context, graph string) ([]string, error)
	AddVertexCollection(ctx context.Context, graph, collection string) (*Graph, error)
	RemoveVertexCollection(ctx context.Context, graph, collection string, dropCollection bool) (*Graph, error)

	EdgeDefinitions(ctx context.Context, graph string) ([]EdgeDefinition, error)
	EdgeCollections(ctx context.Context, graph string) ([]string, error)
	AddEdgeDefinition(ctx context.Context, graph string, def EdgeDefinition) (*Graph, error)
	ReplaceEdgeDefinition(ctx context.Context, graph string, def EdgeDefinition) (*Graph, error)
	RemoveEdgeDefinition(ctx context.Context, graph, collection string, dropCollection bool) (*Graph, error)

	CreateVertex(ctx context.Context, graph, collection string, doc any, opts *WriteOptions) (*Result, error)
	GetVertex(ctx context.Context, graph, collection, key string, out any) error
	UpdateVertex(ctx context.Context, graph, collection, key string, patch any, opts *WriteOptions) (*Result, error)
	ReplaceVertex(ctx context.Context, graph, collection, key string, doc any, opts *WriteOptions) (*Result, error)
	RemoveVertex(ctx context.Context, graph, collection, key string, opts *WriteOptions) error

	CreateEdge(ctx context.Context, graph, collection string, edge any, opts *WriteOptions) (*Result, error)
	GetEdge(ctx context.Context, graph, collection, key string, out any) error
	UpdateEdge(ctx context.Context, graph, collection, key string, patch any, opts *WriteOptions) (*Result, error)
	ReplaceEdge(ctx context.Context, graph, collection, key string, edge any, opts *WriteOptions) (*Result, error)
	RemoveEdge(ctx context.Context, graph, collection, key string, opts *WriteOptions) error
}

// Client is a named graph client.
type Client struct {
	client arangorest.Requester
}

// NewClient creates a new graph client.
func NewClient(c arangorest.Requester) *Client {
	return &Client{client: c}
}

// Ensure Client implements GraphClient.
var _ GraphClient = (*Client)(nil)

// EdgeDefinition relates an edge collection to its vertex collections.
type EdgeDefinition struct {
	Collection string   `json:"collection"`
	From       []string `json:"from"`
	To         []string `json:"to"`
}

// Graph describes a named graph.
type Graph struct {
	ID                string           `json:"_id,omitempty"`
	Key               string           `json:"_key,omitempty"`
	Rev               string           `json:"_rev,omitempty"`
	Name              string           `json:"name"`
	EdgeDefinitions   []EdgeDefinition `json:"edgeDefinitions"`
	OrphanCollections []string         `json:"orphanCollections"`
	NumberOfShards    int              `json:"numberOfShards,omitempty"`
	ReplicationFactor any              `json:"replicationFactor,omitempty"`
	IsSmart           bool             `json:"isSmart,omitempty"`
}

// CreateOptions configures Create.
type CreateOptions struct {
	EdgeDefinitions   []EdgeDefinition
	OrphanCollections []string
	IsSmart           bool
	WaitForSync       bool
	Options           *ClusterOptions
}

// ClusterOptions are the cluster-only settings of a new graph.
type ClusterOptions struct {
	NumberOfShards      int      `json:"numberOfShards,omitempty"`
	ReplicationFactor   any      `json:"replicationFactor,omitempty"`
	WriteConcern        int      `json:"writeConcern,omitempty"`
	SmartGraphAttribute string   `json:"smartGraphAttribute,omitempty"`
	Satellites          []string `json:"satellites,omitempty"`
}

// WriteOptions configures vertex and edge writes.
type WriteOptions struct {
	WaitForSync bool
	ReturnNew   bool
	ReturnOld   bool
	KeepNull    *bool
	IfMatch     string
	Transaction string
}

func (o *WriteOptions) requestOptions() []arangorest.RequestOption {
	if o == nil {
		return nil
	}
	params := arangorest.Params{}
	if o.WaitForSync {
		params["waitForSync"] = true
	}
	if o.ReturnNew {
		params["returnNew"] = true
	}
	if o.ReturnOld {
		params["returnOld"] = true
	}
	if o.KeepNull != nil {
		params["keepNull"] = *o.KeepNull
	}
	opts := []arangorest.RequestOption{arangorest.WithParams(params)}
	if o.IfMatch != "" {
		opts = append(opts, arangorest.WithHeader("If-Match", `"`+o.IfMatch+`"`))
	}
	if o.Transaction != "" {
		opts = append(opts, arangorest.WithTransaction(o.Transaction))
	}
	return opts
}

// Result is the outcome of a vertex or edge write.
type Result struct {
	ID     string
	Key    string
	Rev    string
	OldRev string
	New    []byte
	Old    []byte
}

func graphPath(name string) string {
	return "/_api/gharial/" + arangorest.PathEscape(name)
}

func decodeGraph(resp *arangorest.Response) (*Graph, error) {
	var g Graph
	if err := resp.UnmarshalPath("graph", &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns all named graphs of the database.
func (c *Client) List(ctx context.Context) ([]Graph, error) {
	resp, err := c.client.Get(ctx, "/_api/gharial")
	if err != nil {
		return nil, err
	}
	var out []Graph
	if err := resp.UnmarshalPath("graphs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create creates a named graph.
//
// Example:
//
//	g, err := graphs.Create(ctx, "social", &graph.CreateOptions{
//	    EdgeDefinitions: []graph.EdgeDefinition{
//	        {Collection: "knows", From: []string{"people"}, To: []string{"people"}},
//	    },
//	})
func (c *Client) Create(ctx context.Context, name string, opts *CreateOptions) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", name); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &CreateOptions{}
	}

	body := struct {
		Name              string           `json:"name"`
		EdgeDefinitions   []EdgeDefinition `json:"edgeDefinitions,omitempty"`
		OrphanCollections []string         `json:"orphanCollections,omitempty"`
		IsSmart           bool             `json:"isSmart,omitempty"`
		Options           *ClusterOptions  `json:"options,omitempty"`
	}{name, opts.EdgeDefinitions, opts.OrphanCollections, opts.IsSmart, opts.Options}

	var reqOpts []arangorest.RequestOption
	if opts.WaitForSync {
		reqOpts = append(reqOpts, arangorest.WithQuery("waitForSync", true))
	}
	resp, err := c.client.Post(ctx, "/_api/gharial", body, reqOpts...)
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}

// Get returns a named graph.
func (c *Client) Get(ctx context.Context, name string) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", name); err != nil {
		return nil, err
	}
	resp, err := c.client.Get(ctx, graphPath(name))
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}

// Drop deletes a named graph, and its collections if dropCollections is
// set and no other graph uses them.
func (c *Client) Drop(ctx context.Context, name string, dropCollections bool) error {
	if err := arangorest.RequireArg("graph name", name); err != nil {
		return err
	}
	var opts []arangorest.RequestOption
	if dropCollections {
		opts = append(opts, arangorest.WithQuery("dropCollections", true))
	}
	_, err := c.client.Delete(ctx, graphPath(name), opts...)
	return err
}

func (c *Client) collectionNames(ctx context.Context, path string) ([]string, error) {
	resp, err := c.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := resp.UnmarshalPath("collections", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// VertexCollections lists the vertex collections of a graph.
func (c *Client) VertexCollections(ctx context.Context, graph string) ([]string, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	return c.collectionNames(ctx, graphPath(graph)+"/vertex")
}

// AddVertexCollection adds an orphan vertex collection to a graph.
func (c *Client) AddVertexCollection(ctx context.Context, graph, collection string) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, graphPath(graph)+"/vertex", map[string]string{"collection": collection})
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}

// RemoveVertexCollection removes an orphan vertex collection from a graph.
func (c *Client) RemoveVertexCollection(ctx context.Context, graph, collection string, dropCollection bool) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	var opts []arangorest.RequestOption
	if dropCollection {
		opts = append(opts, arangorest.WithQuery("dropCollection", true))
	}
	resp, err := c.client.Delete(ctx, graphPath(graph)+"/vertex/"+arangorest.PathEscape(collection), opts...)
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}

// EdgeDefinitions returns the edge definitions of a graph.
func (c *Client) EdgeDefinitions(ctx context.Context, graph string) ([]EdgeDefinition, error) {
	g, err := c.Get(ctx, graph)
	if err != nil {
		return nil, err
	}
	return g.EdgeDefinitions, nil
}

// EdgeCollections lists the edge collections of a graph.
func (c *Client) EdgeCollections(ctx context.Context, graph string) ([]string, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	return c.collectionNames(ctx, graphPath(graph)+"/edge")
}

// AddEdgeDefinition adds an edge definition to a graph.
func (c *Client) AddEdgeDefinition(ctx context.Context, graph string, def EdgeDefinition) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("edge collection", def.Collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, graphPath(graph)+"/edge", def)
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}

// ReplaceEdgeDefinition replaces the definition of def.Collection.
func (c *Client) ReplaceEdgeDefinition(ctx context.Context, graph string, def EdgeDefinition) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("edge collection", def.Collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, graphPath(graph)+"/edge/"+arangorest.PathEscape(def.Collection), def)
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}

// RemoveEdgeDefinition removes the edge definition of collection.
func (c *Client) RemoveEdgeDefinition(ctx context.Context, graph, collection string, dropCollection bool) (*Graph, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("edge collection", collection); err != nil {
		return nil, err
	}
	var opts []arangorest.RequestOption
	if dropCollection {
		opts = append(opts, arangorest.WithQuery("dropCollections", true))
	}
	resp, err := c.client.Delete(ctx, graphPath(graph)+"/edge/"+arangorest.PathEscape(collection), opts...)
	if err != nil {
		return nil, err
	}
	return decodeGraph(resp)
}
