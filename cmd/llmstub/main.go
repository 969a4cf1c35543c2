package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys := ""
		if len(req.Messages) > 0 {
			sys = strings.TrimSpace(req.Messages[0].Content)
		}
		user := ""
		if len(req.Messages) >= 2 {
			user = req.Messages[1].Content
		}

		var content string
		switch {
		case strings.Contains(sys, "Talmudic research strategist"):
			content = understandResponse(user)
		case strings.Contains(sys, "validating candidate Talmudic source references"):
			content = validateResponse(user)
		default:
			http.Error(w, "unexpected system prompt", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})

	log.Printf("llmstub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// understandResponse fabricates a plausible Strategy for the UNDERSTAND
// stage: direct-ref when the user prompt lists exactly one ref, broad-scan
// with a clarification prompt when it lists none, trickle-up otherwise.
func understandResponse(user string) string {
	refs := extractTopRefs(user)
	strategy := map[string]any{
		"query_type":       "concept",
		"primary_sources":  refs,
		"target_authors":   []string{},
		"comparison_terms": []string{},
		"fetch_strategy":   "trickle-up",
		"depth":            "standard",
		"confidence":       "medium",
		"reasoning":        "stub strategist: trickling up from top corpus refs",
	}
	if len(refs) == 1 {
		strategy["fetch_strategy"] = "direct-ref"
		strategy["confidence"] = "high"
	}
	if len(refs) == 0 {
		strategy["fetch_strategy"] = "broad-scan"
		strategy["depth"] = "basic"
		strategy["confidence"] = "low"
		strategy["clarification_prompt"] = "No sources found. Could you rephrase?"
		strategy["needs_clarification"] = true
	}
	b, _ := json.Marshal(strategy)
	return string(b)
}

// validateResponse echoes back every candidate ref mentioned in the user
// prompt's "Candidate refs:" line, the stub equivalent of a real model agreeing
// every proposed source is relevant.
func validateResponse(user string) string {
	res := map[string]any{"relevant_refs": extractTopRefs(user)}
	b, _ := json.Marshal(res)
	return string(b)
}

// extractTopRefs pulls ref strings out of a "Top refs: a; b; c" or
// "Candidate refs: a; b; c" line in the user prompt.
func extractTopRefs(user string) []string {
	var refs []string
	for _, line := range strings.Split(user, "\n") {
		line = strings.TrimSpace(line)
		var list string
		switch {
		case strings.HasPrefix(line, "Top refs:"):
			list = strings.TrimPrefix(line, "Top refs:")
		case strings.HasPrefix(line, "Candidate refs:"):
			list = strings.TrimPrefix(line, "Candidate refs:")
		default:
			continue
		}
		for _, part := range strings.Split(list, ";") {
			part = strings.TrimSpace(part)
			if part != "" {
				refs = append(refs, part)
			}
		}
	}
	return refs
}
