// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package mail_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wabbit/wabbit/internal/mail"
	"github.com/wabbit/wabbit/pkg/errutil"
)

func TestLog_Send(t *testing.T) {
	var buf bytes.Buffer
	m := mail.NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, m.Send(context.Background(), "bunny@example.com", "Reset your password", "<a>reset</a>"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "bunny@example.com", entry["to"])
	assert.Equal(t, "<a>reset</a>", entry["body"])
}

func TestNew(t *testing.T) {
	t.Run("log driver", func(t *testing.T) {
		m, err := mail.New(mail.Config{Driver: mail.DriverLog}, nil)
		require.NoError(t, err)
		assert.IsType(t, &mail.Log{}, m)
	})

	t.Run("empty driver defaults to log", func(t *testing.T) {
		m, err := mail.New(mail.Config{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &mail.Log{}, m)
	})

	t.Run("postmark driver", func(t *testing.T) {
		m, err := mail.New(mail.Config{Driver: mail.DriverPostmark, From: "a@b.c", PostmarkToken: "tok"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &mail.Postmark{}, m)
	})

	t.Run("postmark without token", func(t *testing.T) {
		m, err := mail.New(mail.Config{Driver: mail.DriverPostmark, From: "a@b.c"}, nil)
		require.Error(t, err)
		assert.Nil(t, m)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := mail.New(mail.Config{Driver: "carrier-pigeon"}, nil)
		errutil.AssertErrorCode(t, err, "MAIL_CONFIG_INVALID")
	})
}
