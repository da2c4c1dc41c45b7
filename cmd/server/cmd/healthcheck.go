package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is ready",
		Long: `Performs a readiness check by calling the /readyz endpoint.

Used by the container HEALTHCHECK. Exits 0 when the server and its
database are reachable, non-zero otherwise.`,
		RunE: runHealthcheck,
	}

	healthcheckTimeout time.Duration
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "readiness URL (default: http://localhost:{PORT}/readyz)")
}

// healthResponse mirrors the body served by /readyz.
type healthResponse struct {
	Status string `json:"status"`
	Checks map[string]struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"checks,omitempty"`
}

type healthResult struct {
	Healthy   bool
	Status    string
	Code      int
	LatencyMs int64
	Err       error
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	url := healthcheckURL
	if url == "" {
		url = defaultHealthURL()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
	defer cancel()

	result := checkHealth(ctx, http.DefaultClient, url)
	if result.Err != nil {
		return fmt.Errorf("health check failed: %w", result.Err)
	}
	if !result.Healthy {
		return fmt.Errorf("unhealthy: status=%s code=%d", result.Status, result.Code)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "healthy (%dms)\n", result.LatencyMs)
	return nil
}

func defaultHealthURL() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = os.Getenv("SERVER_PORT")
	}
	if port == "" {
		port = "5000"
	}
	return fmt.Sprintf("http://localhost:%s/readyz", port)
}

func checkHealth(ctx context.Context, client *http.Client, url string) healthResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return healthResult{Err: err}
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return healthResult{Err: err, LatencyMs: latency}
	}
	defer func() { _ = resp.Body.Close() }()

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return healthResult{Code: resp.StatusCode, LatencyMs: latency, Err: fmt.Errorf("decode response: %w", err)}
	}

	return healthResult{
		Healthy:   resp.StatusCode == http.StatusOK && body.Status == "ok",
		Status:    body.Status,
		Code:      resp.StatusCode,
		LatencyMs: latency,
	}
}
