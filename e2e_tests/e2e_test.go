//go:build e2e

package e2etests

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBaseURL = "http://localhost:8080"
	timeout        = 5 * time.Second
	waitReady      = 20 * time.Second
)

var httpClient = &http.Client{Timeout: timeout}

type account struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

type runResponse struct {
	RunID    string    `json:"runId"`
	Accounts []account `json:"accounts"`
	Error    string    `json:"error"`
}

func baseURL() string {
	u := os.Getenv("E2E_BASE_URL")
	if u == "" {
		return defaultBaseURL
	}

	return strings.TrimRight(u, "/")
}

func TestE2E_RunLifecycle(t *testing.T) {
	waitUntilReady(t)

	input := csvInput(
		"deposit,1,1,10.0",
		"deposit,2,2,5.0",
		"withdrawal,1,3,2.5",
		"dispute,2,2,",
		"chargeback,2,2,",
		"deposit,3,4,1.23456",
	)

	code, resp := postRun(t, input)
	require.Equal(t, http.StatusOK, code, resp.Error)
	require.NotEmpty(t, resp.RunID)

	assert.Equal(t, []account{
		{Client: 1, Available: "7.5000", Held: "0.0000", Total: "7.5000"},
		{Client: 2, Available: "0.0000", Held: "0.0000", Total: "0.0000", Locked: true},
		{Client: 3, Available: "1.2346", Held: "0.0000", Total: "1.2346"},
	}, resp.Accounts)

	t.Run("runs_are_independent", func(t *testing.T) {
		code, again := postRun(t, input)
		require.Equal(t, http.StatusOK, code)
		assert.NotEqual(t, resp.RunID, again.RunID)
		assert.Equal(t, resp.Accounts, again.Accounts)
	})

	t.Run("exported_run_is_readable", func(t *testing.T) {
		code, got := getRun(t, resp.RunID)
		if code == http.StatusNotFound {
			t.Skip("summary export not configured")
		}

		require.Equal(t, http.StatusOK, code, got.Error)
		assert.Equal(t, resp.Accounts, got.Accounts)
	})
}

func TestE2E_RejectedRuns(t *testing.T) {
	waitUntilReady(t)

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"duplicate_transaction", csvInput("deposit,1,1,1.0", "deposit,1,1,1.0"), http.StatusUnprocessableEntity},
		{"insufficient_funds", csvInput("withdrawal,1,1,1.0"), http.StatusUnprocessableEntity},
		{"unknown_type", csvInput("transfer,1,1,1.0"), http.StatusUnprocessableEntity},
		{"malformed_row", csvInput("deposit,one,1,1.0"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := postRun(t, tt.input)
			assert.Equal(t, tt.want, code)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, resp.Accounts)
		})
	}
}

func csvInput(rows ...string) string {
	return "type,client,tx,amount\n" + strings.Join(rows, "\n") + "\n"
}

func postRun(t *testing.T, body string) (int, runResponse) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL()+"/v1/runs", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")

	return doJSON(t, req)
}

func getRun(t *testing.T, runID string) (int, runResponse) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL()+"/v1/runs/"+runID, nil)
	require.NoError(t, err)

	return doJSON(t, req)
}

func doJSON(t *testing.T, req *http.Request) (int, runResponse) {
	t.Helper()

	resp, err := httpClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out runResponse

	require.NoError(t, json.Unmarshal(b, &out), string(b))

	return resp.StatusCode, out
}

// waitUntilReady waits until GET /healthz responds 200 or times out.
func waitUntilReady(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	u := baseURL() + "/healthz"

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", u, waitReady)
		case <-tick.C:
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

			resp, err := httpClient.Do(req)
			if err != nil {
				// Not listening yet.
				continue
			}

			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}
