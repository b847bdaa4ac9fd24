package main

import (
	"encoding/json"

	"oracle/internal/core/risk"

	"github.com/spf13/cobra"
)

type scoreOutput struct {
	RiskScore risk.Score   `json:"riskScore"`
	Factors   risk.Factors `json:"factors"`
}

func newScoreCmd() *cobra.Command {
	var f risk.Factors
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a set of risk factors (each in [0,1]; out of range values are clamped)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cl := f.Clamped()
			enc := json.NewEncoder(c.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scoreOutput{RiskScore: risk.Compute(cl), Factors: cl})
		},
	}
	fl := cmd.Flags()
	fl.Float64Var(&f.DeadlinePressure, "deadline-pressure", 0, "deadline pressure factor")
	fl.Float64Var(&f.BillingStall, "billing-stall", 0, "billing stall factor")
	fl.Float64Var(&f.DocumentVolumeSpike, "document-spike", 0, "document volume spike factor")
	fl.Float64Var(&f.PartnerInvolvement, "partner-involvement", 0, "partner involvement factor")
	fl.Float64Var(&f.HistorySimilarityScore, "history-similarity", 0, "adverse history similarity factor")
	fl.Float64Var(&f.ComplexityScore, "complexity", 0, "complexity factor")
	fl.Float64Var(&f.ClientRelationshipHealth, "client-health", 0, "client relationship strain factor")
	fl.Float64Var(&f.ComplianceRisk, "compliance", 0, "compliance risk factor")
	return cmd
}
