// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wabbit/wabbit/pkg/errutil"
)

func runSchema(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"schema"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaCommand_JSON(t *testing.T) {
	out, err := runSchema(t)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "changePassword")
}

func TestSchemaCommand_YAML(t *testing.T) {
	out, err := runSchema(t, "--format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "\ntitle: Wabbit API operations\n")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "register")
	assert.Equal(t, "Wabbit API operations", doc["title"])
}

func TestSchemaCommand_UnknownFormat(t *testing.T) {
	_, err := runSchema(t, "--format", "toml")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_FORMAT")
}
