package graph

import (
	"context"

	arangorest "github.com/arangorest/arangorest-go"
)

// kind is the element family of a graph path: "vertex" or "edge".
type kind string

const (
	vertexKind kind = "vertex"
	edgeKind   kind = "edge"
)

func elementPath(graph string, k kind, collection string) string {
	return graphPath(graph) + "/" + string(k) + "/" + arangorest.PathEscape(collection)
}

func requireElement(graph, collection, key string) error {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return err
	}
	return arangorest.RequireArg("key", key)
}

func decodeResult(resp *arangorest.Response, k kind) *Result {
	meta := resp.Get(string(k))
	r := &Result{
		ID:     meta.Get("_id").String(),
		Key:    meta.Get("_key").String(),
		Rev:    meta.Get("_rev").String(),
		OldRev: meta.Get("_oldRev").String(),
	}
	if n := resp.Get("new"); n.Exists() {
		r.New = []byte(n.Raw)
	}
	if o := resp.Get("old"); o.Exists() {
		r.Old = []byte(o.Raw)
	}
	return r
}

func (c *Client) createElement(ctx context.Context, graph string, k kind, collection string, doc any, opts *WriteOptions) (*Result, error) {
	if err := arangorest.RequireArg("graph name", graph); err != nil {
		return nil, err
	}
	if err := arangorest.RequireArg("collection", collection); err != nil {
		return nil, err
	}
	resp, err := c.client.Post(ctx, elementPath(graph, k, collection), doc, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	return decodeResult(resp, k), nil
}

func (c *Client) getElement(ctx context.Context, graph string, k kind, collection, key string, out any) error {
	if err := requireElement(graph, collection, key); err != nil {
		return err
	}
	resp, err := c.client.Get(ctx, elementPath(graph, k, collection)+"/"+arangorest.PathEscape(key))
	if err != nil {
		return err
	}
	return resp.UnmarshalPath(string(k), out)
}

func (c *Client) updateElement(ctx context.Context, graph string, k kind, collection, key string, patch any, opts *WriteOptions) (*Result, error) {
	if err := requireElement(graph, collection, key); err != nil {
		return nil, err
	}
	resp, err := c.client.Patch(ctx, elementPath(graph, k, collection)+"/"+arangorest.PathEscape(key), patch, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	return decodeResult(resp, k), nil
}

func (c *Client) replaceElement(ctx context.Context, graph string, k kind, collection, key string, doc any, opts *WriteOptions) (*Result, error) {
	if err := requireElement(graph, collection, key); err != nil {
		return nil, err
	}
	resp, err := c.client.Put(ctx, elementPath(graph, k, collection)+"/"+arangorest.PathEscape(key), doc, opts.requestOptions()...)
	if err != nil {
		return nil, err
	}
	return decodeResult(resp, k), nil
}

func (c *Client) removeElement(ctx context.Context, graph string, k kind, collection, key string, opts *WriteOptions) error {
	if err := requireElement(graph, collection, key); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, elementPath(graph, k, collection)+"/"+arangorest.PathEscape(key), opts.requestOptions()...)
	return err
}

// CreateVertex stores a vertex in a vertex collection of the graph.
func (c *Client) CreateVertex(ctx context.Context, graph, collection string, doc any, opts *WriteOptions) (*Result, error) {
	return c.createElement(ctx, graph, vertexKind, collection, doc, opts)
}

// GetVertex decodes a vertex into out.
func (c *Client) GetVertex(ctx context.Context, graph, collection, key string, out any) error {
	return c.getElement(ctx, graph, vertexKind, collection, key, out)
}

// UpdateVertex merges patch into a vertex.
func (c *Client) UpdateVertex(ctx context.Context, graph, collection, key string, patch any, opts *WriteOptions) (*Result, error) {
	return c.updateElement(ctx, graph, vertexKind, collection, key, patch, opts)
}

// ReplaceVertex overwrites a vertex.
func (c *Client) ReplaceVertex(ctx context.Context, graph, collection, key string, doc any, opts *WriteOptions) (*Result, error) {
	return c.replaceElement(ctx, graph, vertexKind, collection, key, doc, opts)
}

// RemoveVertex deletes a vertex and the edges connected to it.
func (c *Client) RemoveVertex(ctx context.Context, graph, collection, key string, opts *WriteOptions) error {
	return c.removeElement(ctx, graph, vertexKind, collection, key, opts)
}

// CreateEdge stores an edge. The edge must carry _from and _to.
func (c *Client) CreateEdge(ctx context.Context, graph, collection string, edge any, opts *WriteOptions) (*Result, error) {
	return c.createElement(ctx, graph, edgeKind, collection, edge, opts)
}

// GetEdge decodes an edge into out.
func (c *Client) GetEdge(ctx context.Context, graph, collection, key string, out any) error {
	return c.getElement(ctx, graph, edgeKind, collection, key, out)
}

// UpdateEdge merges patch into an edge.
func (c *Client) UpdateEdge(ctx context.Context, graph, collection, key string, patch any, opts *WriteOptions) (*Result, error) {
	return c.updateElement(ctx, graph, edgeKind, collection, key, patch, opts)
}

// ReplaceEdge overwrites an edge.
func (c *Client) ReplaceEdge(ctx context.Context, graph, collection, key string, edge any, opts *WriteOptions) (*Result, error) {
	return c.replaceElement(ctx, graph, edgeKind, collection, key, edge, opts)
}

// RemoveEdge deletes an edge.
func (c *Client) RemoveEdge(ctx context.Context, graph, collection, key string, opts *WriteOptions) error {
	return c.removeElement(ctx, graph, edgeKind, collection, key, opts)
}
