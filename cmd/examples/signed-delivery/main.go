// Copyright (C) 2025 RAP Project
//
// This file is part of rap-go.
//
// rap-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// rap-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with rap-go.  If not, see <https://www.gnu.org/licenses/>.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/rap-project/rap-go/pkg/client"
	"github.com/rap-project/rap-go/pkg/keystore"
	"github.com/rap-project/rap-go/pkg/server"
	"github.com/rap-project/rap-go/pkg/signature"
	"github.com/rap-project/rap-go/pkg/verifier"
)

// This example delivers a signed activity to a local inbox and shows how
// tampered and unsigned deliveries are rejected
func main() {
	fmt.Println("rap-go - Signed Delivery Example")
	fmt.Println("================================")

	ctx := context.Background()
	gin.SetMode(gin.ReleaseMode)

	// Step 1: Create the key store; identities are generated on first use
	fmt.Println("\n1. Creating actor identities...")
	store := keystore.New("example.com")
	alice, err := store.GetOrCreate("alice")
	if err != nil {
		log.Fatalf("Failed to create identity: %v", err)
	}
	fmt.Printf("   Key ID: %s\n", alice.KeyID())

	// Step 2: Start a server whose inboxes only accept signed deliveries
	fmt.Println("\n2. Starting server...")
	resolver := verifier.NewDefaultKeyResolver(verifier.NewLocalKeyResolver(store), nil)
	router, err := server.NewRouter(server.Deps{
		Store:    store,
		Verifier: verifier.NewDefaultHTTPVerifier(resolver),
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}
	srv := httptest.NewServer(router)
	defer srv.Close()
	inbox := srv.URL + "/users/bob/inbox"
	fmt.Printf("   Inbox: %s\n", inbox)

	// Step 3: Deliver a signed activity
	fmt.Println("\n3. Delivering a signed Follow...")
	c := client.New(alice, srv.Client())
	if err := c.Deliver(ctx, inbox, []byte(`{"type":"Follow","actor":"https://example.com/users/alice"}`)); err != nil {
		log.Fatalf("Delivery failed: %v", err)
	}
	fmt.Println("   Accepted")

	// Step 4: Tamper with the signature
	fmt.Println("\n4. Delivering with a tampered signature...")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inbox, nil)
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set(signature.HeaderName, signature.Format(&signature.Params{
		KeyID:     alice.KeyID(),
		Headers:   []string{signature.RequestTarget, "host", "date"},
		Signature: "AAAA",
	}))
	req.Header.Set("Date", "Sun, 06 Nov 2021 08:49:37 GMT")
	printStatus(srv.Client(), req)

	// Step 5: Deliver without a signature
	fmt.Println("\n5. Delivering without a signature...")
	c = client.New(nil, srv.Client())
	if err := c.Deliver(ctx, inbox, []byte(`{"type":"Follow"}`)); err != nil {
		fmt.Printf("   Rejected: %v\n", err)
	}

	fmt.Println("\nExample completed!")
}

func printStatus(httpClient *http.Client, req *http.Request) {
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	fmt.Printf("   Status: %s\n", resp.Status)
}
