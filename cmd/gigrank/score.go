package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/gigrank/internal/domain/scoring"
)

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <input.yaml|->",
		Short: "Score one candidate against one posting",
		Long: `Reads a relevance input from a YAML file (or stdin with "-") and prints the
score with its components as JSON. A missing "now" uses the current time.

Example input:

  candidate_skills: [go, sql]
  posting_skills: [go, kubernetes]
  posting_category: Backend
  completed_categories: [Backend]
  posted_at: 2026-05-01T00:00:00Z
  counterpart_rating: 4.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if in.Now.IsZero() {
				in.Now = time.Now()
			}
			res, err := scoring.NewEngine().Score(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func readInput(stdin io.Reader, path string) (scoring.Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return scoring.Input{}, fmt.Errorf("read input: %w", err)
	}

	var in scoring.Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return scoring.Input{}, fmt.Errorf("parse input %s: %w", path, err)
	}
	if in.PostedAt.IsZero() {
		return scoring.Input{}, fmt.Errorf("parse input %s: posted_at is required", path)
	}
	return in, nil
}
