package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultSourceURL is the published people sheet
const DefaultSourceURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRGV1PQS1bTbqfIMxDX25GXFSiInBajR0-X39r0aMCi4SbAv3QTXNXrkbaVigG6QRArnjCUUXY01vtT/pub?output=csv"

// Fetch performs a single GET against url and returns the body text.
// There is no retry and no caching; the context bounds the wait.
func Fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching sheet: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading sheet body: %w", err)
	}

	return string(body), nil
}

// Read returns the raw sheet text from an http(s) URL or a local file path
func Read(ctx context.Context, client *http.Client, source string) (string, error) {
	if IsRemote(source) {
		return Fetch(ctx, client, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("reading sheet file: %w", err)
	}
	return string(data), nil
}

// Load reads the sheet from source and parses it into rows
func Load(ctx context.Context, client *http.Client, source string) ([]Row, error) {
	text, err := Read(ctx, client, source)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

// IsRemote reports whether source should be fetched over HTTP
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
