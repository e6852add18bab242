// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
defaults:
  - {name: RA, type: polynomial, shape: [1, 1], coeff: [6.12]}
  - {name: DEC, type: polynomial, shape: [1, 1], coeff: [1.03]}
  - {name: I, type: polynomial, shape: [1, 1], coeff: [3]}
  - {name: Gain, type: polynomial, shape: [1, 1], coeff: [1]}
parms:
  - name: Gain:CS001
    type: polynomial
    shape: [1, 1]
    coeff: [2]
    domain: {start_freq: 1.2e8, end_freq: 1.22e8, start_time: 4.9e9, end_time: 4.90000018e9}
`

const testConfig = `
grid: {start_freq: 1.2e8, freq_width: 1.0e6, n_freq: 2, start_time: 4.9e9, time_width: 60, n_time: 3}
stations:
  - name: CS001
    position: [3826577.1, 461022.9, 5064892.7]
    p_axis: [-0.119, 0.993, 0.0]
    q_axis: [-0.791, -0.095, 0.604]
  - name: CS002
    position: [3826923.9, 460915.1, 5064643.3]
    p_axis: [-0.119, 0.993, 0.0]
    q_axis: [-0.791, -0.095, 0.604]
sources:
  - name: CasA
solvable: ["Gain:*"]
log: {level: error, format: text}
parmdb: {in_memory: true, catalog: %CATALOG%}
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cat := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(cat, []byte(testCatalog), 0o600))
	cfg := filepath.Join(dir, "run.yaml")
	body := strings.ReplaceAll(testConfig, "%CATALOG%", cat)
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPredictJSON(t *testing.T) {
	cfg := setup(t)
	out, err := run(t, "--config", cfg, "predict", "--json")
	require.NoError(t, err)

	var preds []predictionOut
	require.NoError(t, json.Unmarshal([]byte(out), &preds))
	require.Len(t, preds, 1)
	assert.Equal(t, "CS001-CS002", preds[0].Instance)
	require.Len(t, preds[0].Correlations, 4)
	xx := preds[0].Correlations["XX"]
	assert.Equal(t, 2, xx.NFreq)
	assert.Equal(t, 3, xx.NTime)
	assert.Len(t, xx.Re, 6)
}

func TestPredictTable(t *testing.T) {
	out, err := run(t, "--config", setup(t), "predict")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header plus four correlations over six cells.
	assert.Len(t, lines, 1+4*6)
	assert.True(t, strings.HasPrefix(lines[0], "BASELINE"))
}

func TestDerivatives(t *testing.T) {
	out, err := run(t, "--config", setup(t), "derivatives")
	require.NoError(t, err)

	var eqs []equationOut
	require.NoError(t, json.Unmarshal([]byte(out), &eqs))
	require.Len(t, eqs, 4)
	for _, eq := range eqs {
		require.Len(t, eq.Derivatives, 2)
		assert.Equal(t, "Gain:CS001[0]", eq.Derivatives[0].Parameter)
		assert.Equal(t, "Gain:CS002[0]", eq.Derivatives[1].Parameter)
		// Linear in the gain of CS001, which is 2.
		for i := range eq.Value.Re {
			assert.InDelta(t, eq.Value.Re[i], 2*eq.Derivatives[0].Value.Re[i], 1e-5)
		}
	}

	_, err = run(t, "--config", setup(t), "derivatives", "--solvable", "Phase:*")
	assert.Error(t, err)
}

func TestParmsListAndShow(t *testing.T) {
	cfg := setup(t)
	out, err := run(t, "--config", cfg, "parms", "list")
	require.NoError(t, err)
	assert.Equal(t, "Gain:CS001\n", out)

	out, err = run(t, "--config", cfg, "parms", "show", "Gain:CS002")
	require.NoError(t, err)
	assert.Contains(t, out, "Gain:CS002")
	assert.Contains(t, out, "coeff:")
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "predict")
	assert.Error(t, err)
}
