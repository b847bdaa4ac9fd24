package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"oracle/internal/core/matter"
	"oracle/internal/core/patterns"
	"oracle/internal/core/risk"

	"github.com/spf13/cobra"
)

type detectOutput struct {
	MatterID  string             `json:"matterId"`
	Patterns  []patterns.Pattern `json:"patterns"`
	RiskScore risk.Score         `json:"riskScore"`
	Factors   risk.Factors       `json:"factors"`
}

func newDetectCmd() *cobra.Command {
	var rules string
	cmd := &cobra.Command{
		Use:   "detect <snapshot.json|->",
		Short: "Run the pattern detector and scorer over a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			pack, err := patterns.LoadFile(rules)
			if err != nil {
				return err
			}
			snap, err := readSnapshot(c.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			found := patterns.New(pack).Detect(snap)
			f := risk.Derive(snap, found)
			enc := json.NewEncoder(c.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(detectOutput{
				MatterID:  snap.MatterID,
				Patterns:  found,
				RiskScore: risk.Compute(f),
				Factors:   f,
			})
		},
	}
	cmd.Flags().StringVar(&rules, "rules", "", "rule pack yaml (default embedded)")
	return cmd
}

func readSnapshot(stdin io.Reader, path string) (matter.Snapshot, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return matter.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var s matter.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return matter.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.MatterID == "" {
		return matter.Snapshot{}, fmt.Errorf("snapshot has no matter_id")
	}
	return s, nil
}
