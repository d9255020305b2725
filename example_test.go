package arangorest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	arangorest "github.com/arangorest/arangorest-go"
)

// newExampleServer answers a version probe and a two-batch cursor.
func newExampleServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/_api/version":
			fmt.Fprint(w, `{"server":"arango","version":"3.12.0","license":"community"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/_db/shop/_api/cursor":
			fmt.Fprint(w, `{"error":false,"code":201,"id":"c1","result":["apple","pear"],"hasMore":true}`)
		case r.Method == http.MethodPut && r.URL.Path == "/_db/shop/_api/cursor/c1":
			fmt.Fprint(w, `{"error":false,"code":200,"result":["plum"],"hasMore":false}`)
		case r.URL.Path == "/_db/shop/_api/collection/missing":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":true,"code":404,"errorNum":1203,"errorMessage":"collection or view not found"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func ExampleNew() {
	server := newExampleServer()
	defer server.Close()

	client, err := arangorest.New(
		arangorest.WithEndpoint(server.URL),
		arangorest.WithBasicAuth("root", "secret"),
		arangorest.WithDatabase("shop"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	resp, err := client.Get(context.Background(), "/_api/version")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Get("version").String())
	// Output: 3.12.0
}

func ExampleClient_QueryIter() {
	server := newExampleServer()
	defer server.Close()

	client := arangorest.MustNew(
		arangorest.WithEndpoint(server.URL),
		arangorest.WithBearerToken("token"),
		arangorest.WithDatabase("shop"),
	)

	for row, err := range client.QueryIter(context.Background(), "FOR f IN fruit RETURN f.name", nil, nil) {
		if err != nil {
			log.Fatal(err)
		}
		var name string
		json.Unmarshal(row, &name)
		fmt.Println(name)
	}
	// Output:
	// apple
	// pear
	// plum
}

func ExampleIsNotFound() {
	server := newExampleServer()
	defer server.Close()

	client := arangorest.MustNew(
		arangorest.WithEndpoint(server.URL),
		arangorest.WithBasicAuth("root", ""),
		arangorest.WithDatabase("shop"),
	)

	_, err := client.Get(context.Background(), "/_api/collection/missing")
	fmt.Println(arangorest.IsNotFound(err))
	// Output: true
}
