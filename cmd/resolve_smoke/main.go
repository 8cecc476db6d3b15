package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting resolution smoke test...")

	processID := fmt.Sprintf("smoke-%d", time.Now().Unix())

	// 1. Resolve a small batch
	fmt.Println("1. Resolving exchanges...")
	payload := map[string]interface{}{
		"exchanges": []map[string]interface{}{
			{
				"process_id":       processID,
				"original_flow_id": "flow-water",
				"query": map[string]interface{}{
					"name": "Water, fresh",
					"kind": "elementary",
				},
			},
			{
				"process_id":       processID,
				"original_flow_id": "flow-co2",
				"query": map[string]interface{}{
					"name":  "Carbon dioxide",
					"kind":  "elementary",
					"hints": map[string][]string{"cas": {"124-38-9"}},
				},
			},
		},
	}

	if !sendRequest("POST", "/resolve", payload) {
		fmt.Println("FAILED: Resolve batch")
		os.Exit(1)
	}
	fmt.Println("PASSED: Resolve batch")

	// 2. Audit trail
	fmt.Println("2. Listing substitutions...")
	if !sendRequest("GET", "/substitutions", nil) {
		fmt.Println("FAILED: List substitutions")
		os.Exit(1)
	}
	fmt.Println("PASSED: List substitutions")

	// 3. Identity mappings
	fmt.Println("3. Listing mappings...")
	if !sendRequest("GET", "/mappings", nil) {
		fmt.Println("FAILED: List mappings")
		os.Exit(1)
	}
	fmt.Println("PASSED: List mappings")
}

func sendRequest(method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
