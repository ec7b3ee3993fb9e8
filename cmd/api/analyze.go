package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"financial_insights/pkg/core/insight"
	"financial_insights/pkg/core/prompt"
	"financial_insights/pkg/models"

	"github.com/spf13/cobra"
)

type analyzeCmd struct {
	documentID  int64
	kind        string
	industry    string
	question    string
	recordsPath string
}

func newAnalyzeCmd() *cobra.Command {
	ac := &analyzeCmd{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the result as JSON",
		RunE:  ac.run,
	}

	cmd.Flags().Int64Var(&ac.documentID, "document", 0, "Document ID")
	cmd.Flags().StringVar(&ac.kind, "kind", "", "Analysis kind (health, risk, optimization, growth, benchmark, investment, cashflow, summary, trend, anomaly, ratio, comparison, forecast, custom)")
	cmd.Flags().StringVar(&ac.industry, "industry", "", "Industry for benchmarking")
	cmd.Flags().StringVar(&ac.question, "question", "", "Question for the custom kind")
	cmd.Flags().StringVar(&ac.recordsPath, "records", "", "JSON file of financial records, used instead of the database")

	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func (ac *analyzeCmd) run(cmd *cobra.Command, _ []string) error {
	kind, ok := prompt.ParseKind(ac.kind)
	if !ok {
		return fmt.Errorf("unknown kind %q", ac.kind)
	}

	var docs insight.DocumentProvider
	if ac.recordsPath != "" {
		records, err := readRecords(ac.recordsPath)
		if err != nil {
			return err
		}
		if ac.documentID == 0 {
			ac.documentID = 1
		}
		docs = fileDocuments{id: ac.documentID, records: records}
	} else if ac.documentID <= 0 {
		return fmt.Errorf("--document is required without --records")
	}

	a, err := newApp(cmd.Context(), docs)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Run(cmd.Context(), ac.documentID, kind, insight.Request{
		Question: ac.question,
		Industry: ac.industry,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// fileDocuments serves one document read from a local file.
type fileDocuments struct {
	id      int64
	records []models.FinancialRecord
}

func (f fileDocuments) RecordsForDocument(_ context.Context, documentID int64) ([]models.FinancialRecord, bool, error) {
	if documentID != f.id {
		return nil, false, nil
	}
	return f.records, true, nil
}

func readRecords(path string) ([]models.FinancialRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	var records []models.FinancialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
