// Command benchmark measures /api/v1/collect latency and yield per fetch
// mode against a running server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

var (
	apiURL = flag.String("api-url", "http://localhost:8080", "API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per query and mode")
	scroll = flag.Int("scroll", 5, "Feed scroll rounds per collection")
	modes  = flag.String("modes", "auto,browser", "Comma-separated fetch modes to compare")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

var queries = []string{
	"pizzeria napoli",
	"coffee shop berlin mitte",
	"hardware store austin tx",
}

type collectRequest struct {
	Query     string `json:"query"`
	FetchMode string `json:"fetch_mode"`
	Scroll    int    `json:"scroll"`
	Timeout   int    `json:"timeout"`
}

type collectResponse struct {
	Success    bool   `json:"success"`
	Total      int    `json:"total"`
	EngineUsed string `json:"engine_used"`
	Timing     struct {
		TotalMs      int64 `json:"total_ms"`
		NavigationMs int64 `json:"navigation_ms"`
		ExtractionMs int64 `json:"extraction_ms"`
	} `json:"timing"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type runResult struct {
	Run          int    `json:"run"`
	WallMs       int64  `json:"wall_ms"`
	TotalMs      int64  `json:"total_ms"`
	NavigationMs int64  `json:"navigation_ms"`
	ExtractionMs int64  `json:"extraction_ms"`
	Listings     int    `json:"listings"`
	Engine       string `json:"engine"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type averages struct {
	TotalMs      float64 `json:"total_ms"`
	NavigationMs float64 `json:"navigation_ms"`
	ExtractionMs float64 `json:"extraction_ms"`
	Listings     float64 `json:"listings"`
}

type caseResult struct {
	Query    string      `json:"query"`
	Mode     string      `json:"mode"`
	Runs     []runResult `json:"runs"`
	Averages *averages   `json:"averages,omitempty"`
}

type report struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerCase int          `json:"runs_per_case"`
	Results     []caseResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Collect Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Modes:     %s\n", *modes)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	rep := report{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerCase: *runs,
	}

	for _, q := range queries {
		for _, mode := range strings.Split(*modes, ",") {
			mode = strings.TrimSpace(mode)
			fmt.Printf("[%s] %q ...\n", mode, q)
			cr := caseResult{Query: q, Mode: mode}
			for i := 1; i <= *runs; i++ {
				rr := collect(q, mode, i)
				if rr.Success {
					fmt.Printf("  run %d: %d listings via %s in %dms\n", i, rr.Listings, rr.Engine, rr.TotalMs)
				} else {
					fmt.Printf("  run %d: FAILED %s\n", i, rr.Error)
				}
				cr.Runs = append(cr.Runs, rr)
			}
			cr.Averages = average(cr.Runs)
			rep.Results = append(rep.Results, cr)
		}
	}

	fmt.Println()
	printTable(rep.Results)

	if err := writeJSON(*output, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func collect(query, mode string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(collectRequest{Query: query, FetchMode: mode, Scroll: *scroll, Timeout: 90})
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/collect", bytes.NewReader(body))
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	start := time.Now()
	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	rr.WallMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var cr collectResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = cr.Success
	rr.TotalMs = cr.Timing.TotalMs
	rr.NavigationMs = cr.Timing.NavigationMs
	rr.ExtractionMs = cr.Timing.ExtractionMs
	rr.Listings = cr.Total
	rr.Engine = cr.EngineUsed
	if cr.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", cr.Error.Code, cr.Error.Message)
	}
	return rr
}

func average(rs []runResult) *averages {
	var n float64
	var avg averages
	for _, r := range rs {
		if !r.Success {
			continue
		}
		n++
		avg.TotalMs += float64(r.TotalMs)
		avg.NavigationMs += float64(r.NavigationMs)
		avg.ExtractionMs += float64(r.ExtractionMs)
		avg.Listings += float64(r.Listings)
	}
	if n == 0 {
		return nil
	}
	avg.TotalMs /= n
	avg.NavigationMs /= n
	avg.ExtractionMs /= n
	avg.Listings /= n
	return &avg
}

func printTable(results []caseResult) {
	fmt.Println(strings.Repeat("─", 90))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Query\tMode\tAvg Total\tAvg Nav\tAvg Extract\tListings\tEngines\n")
	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%s\tFAILED\t-\t-\t-\t-\n", r.Query, r.Mode)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%dms\t%dms\t%dms\t%.1f\t%s\n",
			r.Query, r.Mode,
			int64(r.Averages.TotalMs),
			int64(r.Averages.NavigationMs),
			int64(r.Averages.ExtractionMs),
			r.Averages.Listings,
			engines(r.Runs),
		)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 90))
}

// engines lists the distinct engines that served successful runs.
func engines(rs []runResult) string {
	seen := map[string]bool{}
	var names []string
	for _, r := range rs {
		if r.Success && r.Engine != "" && !seen[r.Engine] {
			seen[r.Engine] = true
			names = append(names, r.Engine)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func writeJSON(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
