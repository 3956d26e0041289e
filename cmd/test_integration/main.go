// Command test_integration smoke-tests a running `kbguard serve`.
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

type step struct {
	name     string
	method   string
	endpoint string
	payload  any
}

func main() {
	baseURL := os.Getenv("KBGUARD_SMOKE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 2 * time.Minute}

	fmt.Println("Starting smoke test against", baseURL)

	steps := []step{
		{"Health", http.MethodGet, "/healthz", nil},
		{"Extract references", http.MethodPost, "/v1/references/extract", map[string]string{
			"text": "Conformément à l'article 52 du Code pénal et à la loi n° 2016-36, abrogée par la loi n° 2020-30.",
		}},
		{"Detect abrogations", http.MethodPost, "/v1/abrogations/detect", map[string]any{
			"message": "Selon la Loi n°2005-95, le fonds de garantie couvre ce crédit.",
		}},
	}
	if doc := os.Getenv("KBGUARD_SMOKE_DOCUMENT"); doc != "" {
		steps = append(steps,
			step{"Quick duplicates", http.MethodGet, "/v1/documents/" + doc + "/duplicates", nil},
			step{"Analyze document", http.MethodPost, "/v1/documents/" + doc + "/analyze", nil},
		)
	}

	for i, s := range steps {
		fmt.Printf("%d. %s...\n", i+1, s.name)
		if !sendRequest(client, s.method, baseURL+s.endpoint, s.payload) {
			fmt.Printf("FAILED: %s\n", s.name)
			os.Exit(1)
		}
		fmt.Printf("PASSED: %s\n", s.name)
	}
}

func sendRequest(client *http.Client, method, url string, payload any) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return true
}
