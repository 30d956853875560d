package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type check struct {
	Name       string          `json:"name"`
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	Body       json.RawMessage `json:"body,omitempty"`
	WantStatus int             `json:"wantStatus"`
	Critical   bool            `json:"critical"`
}

type config struct {
	Checks []check `json:"checks"`
}

type outcome struct {
	Check    check
	Status   int
	Envelope bool
	Duration time.Duration
	Error    error
}

func main() {
	var (
		baseURL    string
		checksPath string
		timeout    time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&checksPath, "checks", filepath.Join("scripts", "smoke_check", "checks.json"), "Path to JSON checks file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	checks, err := loadChecks(checksPath)
	if err != nil {
		log.Fatalf("failed to load checks: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		outcomes []outcome
		breaking int
		warnings int
	)

	for _, c := range checks {
		out := runCheck(client, baseURL, c)
		if out.Error != nil || out.Status != c.WantStatus || !out.Envelope {
			if c.Critical {
				breaking++
			} else {
				warnings++
			}
		}
		outcomes = append(outcomes, out)
	}

	printReport(outcomes)

	fmt.Printf("Breaking failures: %d, Warnings: %d\n", breaking, warnings)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadChecks(path string) ([]check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Checks) == 0 {
		return nil, fmt.Errorf("no checks defined in %s", path)
	}
	return cfg.Checks, nil
}

func runCheck(client *http.Client, base string, c check) outcome {
	out := outcome{Check: c}

	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := c.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	var body io.Reader
	if len(c.Body) > 0 {
		body = bytes.NewReader(c.Body)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		out.Error = err
		return out
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	out.Duration = time.Since(start)
	if err != nil {
		out.Error = err
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		out.Error = fmt.Errorf("read body: %w", err)
		return out
	}
	out.Envelope = looksLikeEnvelope(resp.StatusCode, payload)
	return out
}

// looksLikeEnvelope accepts bodiless statuses and otherwise requires the
// common data/error response contract.
func looksLikeEnvelope(status int, payload []byte) bool {
	if status == http.StatusNoContent || len(bytes.TrimSpace(payload)) == 0 {
		return true
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return false
	}
	if _, ok := envelope["data"]; ok {
		return true
	}
	if _, ok := envelope["error"]; ok {
		return true
	}
	// health and metrics endpoints reply outside the envelope
	_, ok := envelope["status"]
	return ok
}

func printReport(outcomes []outcome) {
	for _, out := range outcomes {
		label := "OK"
		detail := fmt.Sprintf("status=%d envelope=%t in %s", out.Status, out.Envelope, out.Duration.Round(time.Millisecond))
		switch {
		case out.Error != nil:
			label = "ERROR"
			detail = out.Error.Error()
		case out.Status != out.Check.WantStatus:
			label = "FAIL"
			detail = fmt.Sprintf("want status %d, got %d", out.Check.WantStatus, out.Status)
		case !out.Envelope:
			label = "FAIL"
			detail = "response body does not follow the data/error contract"
		}
		fmt.Printf("[%s] %-28s %s %s: %s\n", label, out.Check.Name, out.Check.Method, out.Check.Path, detail)
	}
}
