package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"financial_insights/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecordsAndFileDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"account_name":"Sales","category":"Revenue","period":"2024-01","amount":"100000","currency":"USD"},
		{"account_name":"Payroll","category":"Expense","period":"2024-01","amount":70000,"currency":"USD"}
	]`), 0o644))

	records, err := readRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.CategoryExpense, records[1].Category)
	assert.Equal(t, "70000", records[1].Amount.String())

	docs := fileDocuments{id: 4, records: records}
	got, found, err := docs.RecordsForDocument(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, got, 2)

	_, found, _ = docs.RecordsForDocument(context.Background(), 5)
	assert.False(t, found)
}

func TestReadRecords_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))

	_, err := readRecords(path)
	assert.Error(t, err)

	_, err = readRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAnalyzeCommand_StdoutIsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"STRENGTHS (EXACTLY 3):\n1. Healthy 30% margin\nSUMMARY: Sound.","done":true}`))
	}))
	defer srv.Close()

	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", srv.URL)
	t.Setenv("DATABASE_URL", "")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("max_retries: 1\n"), 0o644))
	recordsFile := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(recordsFile, []byte(`[
		{"account_name":"Sales","category":"Revenue","period":"2024-01","amount":"100000"},
		{"account_name":"Payroll","category":"Expense","period":"2024-01","amount":"70000"}
	]`), 0o644))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"analyze", "-c", cfgFile, "--kind", "health", "--records", recordsFile})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	dec := json.NewDecoder(&stdout)
	var got models.FinancialHealth
	require.NoError(t, dec.Decode(&got), stdout.String())
	assert.ErrorIs(t, dec.Decode(&struct{}{}), io.EOF)
	assert.Equal(t, 100, got.HealthScore)
	assert.Equal(t, []string{"Healthy 30% margin"}, got.Strengths)

	assert.Contains(t, stderr.String(), "insight service ready")
}
