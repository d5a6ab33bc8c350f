package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/xbrlgraph/internal/config"
	"github.com/joss/xbrlgraph/internal/store"
	"github.com/joss/xbrlgraph/internal/taxonomy"
	"github.com/joss/xbrlgraph/internal/testutil"
)

const filing = `
document_uri: https://example.com/acme-20241231.htm
cik: "0000320193"
report_id: acme-2024
namespaces:
  us-gaap: http://fasb.org/us-gaap/2024
  acme: http://acme.example/20241231
roles:
  - {uri: http://acme.example/role/Income, definition: 100000 - Statement - Income}
elements:
  - {qname: us-gaap:IncomeAbstract, substitution_group: xbrli:item, abstract: true}
  - {qname: us-gaap:Revenues, substitution_group: xbrli:item, period_type: duration, type: monetaryItemType, balance: credit}
  - {qname: acme:ProductRevenue, substitution_group: xbrli:item, period_type: duration, type: monetaryItemType, balance: credit}
  - {qname: acme:ServiceRevenue, substitution_group: xbrli:item, period_type: duration, type: monetaryItemType, balance: credit}
arcs:
  - {arcrole: parent-child, role: http://acme.example/role/Income, from: us-gaap:IncomeAbstract, to: us-gaap:Revenues, order: 1}
  - {arcrole: parent-child, role: http://acme.example/role/Income, from: us-gaap:Revenues, to: acme:ProductRevenue, order: 1}
  - {arcrole: parent-child, role: http://acme.example/role/Income, from: us-gaap:Revenues, to: acme:ServiceRevenue, order: 2}
  - {arcrole: summation-item, role: http://acme.example/role/Income, from: us-gaap:Revenues, to: acme:ProductRevenue, order: 1}
  - {arcrole: summation-item, role: http://acme.example/role/Income, from: us-gaap:Revenues, to: acme:ServiceRevenue, order: 2}
contexts:
  - {id: FY2024, entity: {scheme: http://www.sec.gov/CIK, id: "0000320193"}, period: {start: "2024-01-01", end: "2024-12-31"}}
units:
  - {id: usd, measure: "iso4217:USD"}
facts:
  - {id: f-rev, concept: us-gaap:Revenues, context: FY2024, unit: usd, value: "300", decimals: "-6"}
  - {id: f-prod, concept: acme:ProductRevenue, context: FY2024, unit: usd, value: "200", decimals: "-6"}
  - {id: f-serv, concept: acme:ServiceRevenue, context: FY2024, unit: usd, value: "100", decimals: "-6"}
`

// run executes the CLI with an isolated home and history database.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	testutil.SetEnv(t, "XBRL_HOME", home)
	if _, ok := historyPaths[t.Name()]; !ok {
		historyPaths[t.Name()] = filepath.Join(home, "history.db")
	}
	testutil.SetEnv(t, "XBRL_HISTORY_PATH", historyPaths[t.Name()])
	config.ResetEnv()

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var historyPaths = map[string]string{}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "xbrlgraph "+version+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "acme.yaml", filing)

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "cik=0000320193 report=acme-2024")
	assert.Contains(t, out, "valid 3/3")
	assert.Contains(t, out, "matched=1 mismatched=0")
	assert.Contains(t, out, "no rejections")
}

func TestValidateCommandJSON(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "acme.yaml", filing)

	out, err := run(t, "validate", "--json", "--cik", "0000789019", path)
	require.NoError(t, err)

	var sum map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, "0000789019", sum["cik"])
	assert.Equal(t, "acme-2024", sum["report_id"])
}

func TestClassifyCommand(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "acme.yaml", filing)

	out, err := run(t, "classify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Concept      3")
	assert.Contains(t, out, "Abstract     1")
}

func TestIngestDryRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.yaml", filing)
	testutil.WriteFile(t, filepath.Join(dir, "nested"), "b.yml", filing)

	out, err := run(t, "ingest", "--dry-run", "--parallel", "2", filepath.Join(dir, "**", "*.y*ml"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 ok, 0 failed")

	out, err = run(t, "history", "--json", "--limit", "5")
	require.NoError(t, err)
	var runs []*store.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, store.RunOK, runs[0].Status)
	assert.Equal(t, runs[0].RunID, runs[1].RunID)

	out, err = run(t, "history", "show", runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "NETWORKS:")
}

func TestIngestReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "a.yaml", filing)
	bad := testutil.WriteFile(t, dir, "b.yaml", "document_uri: [")

	out, err := run(t, "ingest", "--dry-run", good, bad)
	assert.Error(t, err)
	assert.Contains(t, out, "1 ok, 1 failed")
}

func TestIngestRejectsBadTolerance(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "a.yaml", filing)
	_, err := run(t, "ingest", "--dry-run", "--tolerance", "lots", path)
	assert.ErrorContains(t, err, "--tolerance")
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.yaml", "x")
	b := testutil.WriteFile(t, filepath.Join(dir, "sub"), "b.yaml", "x")
	testutil.WriteFile(t, dir, "c.txt", "x")

	got, err := expandInputs([]string{filepath.Join(dir, "**", "*.yaml"), a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)

	got, err = expandInputs([]string{filepath.Join(dir, "missing.yaml")})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = expandInputs([]string{filepath.Join(dir, "*.json")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifyElements(t *testing.T) {
	counts := classifyElements([]taxonomy.Element{
		testutil.Item(testutil.GAAP("Revenues")),
		testutil.Abstract(testutil.GAAP("IncomeAbstract")),
		testutil.Axis(testutil.Acme("SegmentAxis")),
	})
	assert.Equal(t, 1, counts[taxonomy.CategoryConcept])
	assert.Equal(t, 1, counts[taxonomy.CategoryAbstract])
	assert.Equal(t, 1, counts[taxonomy.CategoryDimension])
}
