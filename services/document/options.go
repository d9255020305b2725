package document

import (
	arangorest "github.com/arangorest/arangorest-go"
)

// ReadOptions configures Read and Head.
type ReadOptions struct {
	IfMatch        string // Only return the document if its revision matches
	IfNoneMatch    string // Return ErrNotModified if the revision matches
	AllowDirtyRead bool   // Allow reads from followers in a cluster
	Transaction    string // Stream transaction id
}

func (o *ReadOptions) requestOptions() []arangorest.RequestOption {
	if o == nil {
		return nil
	}
	var opts []arangorest.RequestOption
	if o.IfMatch != "" {
		opts = append(opts, arangorest.WithHeader("If-Match", quote(o.IfMatch)))
	}
	if o.IfNoneMatch != "" {
		opts = append(opts, arangorest.WithHeader("If-None-Match", quote(o.IfNoneMatch)))
	}
	if o.AllowDirtyRead {
		opts = append(opts, arangorest.WithHeader("x-arango-allow-dirty-read", "true"))
	}
	if o.Transaction != "" {
		opts = append(opts, arangorest.WithTransaction(o.Transaction))
	}
	return opts
}

// WriteOptions configures document writes. Zero fields are not sent.
type WriteOptions struct {
	WaitForSync       bool
	ReturnNew         bool
	ReturnOld         bool
	Silent            bool
	Overwrite         bool
	OverwriteMode     string // ignore, replace, update, conflict
	KeepNull          *bool
	MergeObjects      *bool
	IgnoreRevs        *bool
	RefillIndexCaches bool
	IfMatch           string // Revision precondition for single-document writes
	Transaction       string // Stream transaction id
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
	if o.Silent {
		params["silent"] = true
	}
	if o.Overwrite {
		params["overwrite"] = true
	}
	if o.OverwriteMode != "" {
		params["overwriteMode"] = o.OverwriteMode
	}
	if o.KeepNull != nil {
		params["keepNull"] = *o.KeepNull
	}
	if o.MergeObjects != nil {
		params["mergeObjects"] = *o.MergeObjects
	}
	if o.IgnoreRevs != nil {
		params["ignoreRevs"] = *o.IgnoreRevs
	}
	if o.RefillIndexCaches {
		params["refillIndexCaches"] = true
	}

	opts := []arangorest.RequestOption{arangorest.WithParams(params)}
	if o.IfMatch != "" {
		opts = append(opts, arangorest.WithHeader("If-Match", quote(o.IfMatch)))
	}
	if o.Transaction != "" {
		opts = append(opts, arangorest.WithTransaction(o.Transaction))
	}
	return opts
}

// ImportOptions configures Import.
type ImportOptions struct {
	FromPrefix  string
	ToPrefix    string
	Overwrite   bool   // Remove all documents before importing
	OnDuplicate string // error, update, replace, ignore
	Complete    bool   // Abort the whole import on any error
	Details     bool   // Report details for failed documents
	WaitForSync bool
}

func (o *ImportOptions) params(collection string) arangorest.Params {
	params := arangorest.Params{
		"collection": collection,
		"type":       "documents",
	}
	if o == nil {
		return params
	}
	if o.FromPrefix != "" {
		params["fromPrefix"] = o.FromPrefix
	}
	if o.ToPrefix != "" {
		params["toPrefix"] = o.ToPrefix
	}
	if o.Overwrite {
		params["overwrite"] = true
	}
	if o.OnDuplicate != "" {
		params["onDuplicate"] = o.OnDuplicate
	}
	if o.Complete {
		params["complete"] = true
	}
	if o.Details {
		params["details"] = true
	}
	if o.WaitForSync {
		params["waitForSync"] = true
	}
	return params
}

func quote(rev string) string {
	if len(rev) >= 2 && rev[0] == '"' && rev[len(rev)-1] == '"' {
		return rev
	}
	return `"` + rev + `"`
}
