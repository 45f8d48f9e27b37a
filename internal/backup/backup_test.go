package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactform/backend/internal/domain"
)

func testSubmission() *domain.Submission {
	return &domain.Submission{
		ID:         "sub-001",
		Name:       "Jane Doe",
		Company:    "Acme",
		Email:      "jane@acme.example",
		Product:    "Widgets",
		Message:    "Please send a quote",
		SourceIP:   "203.0.113.7",
		ReceivedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriterAppend(t *testing.T) {
	t.Run("entry carries submission content verbatim", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "form_submissions.txt")
		w := NewWriter(path)

		require.NoError(t, w.Append(testSubmission()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)

		assert.Contains(t, content, "=== SUBMISSION ===")
		assert.Contains(t, content, "ID: sub-001")
		assert.Contains(t, content, "Date: 2026-08-30 12:00:00")
		assert.Contains(t, content, "Name: Jane Doe")
		assert.Contains(t, content, "Company: Acme")
		assert.Contains(t, content, "Email: jane@acme.example")
		assert.Contains(t, content, "Product: Widgets")
		assert.Contains(t, content, "Message: Please send a quote")
	})

	t.Run("entries accumulate append-only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "form_submissions.txt")
		w := NewWriter(path)

		first := testSubmission()
		second := testSubmission()
		second.ID = "sub-002"
		second.Name = "John Roe"

		require.NoError(t, w.Append(first))
		require.NoError(t, w.Append(second))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)

		assert.Equal(t, 2, strings.Count(content, "=== SUBMISSION ==="))
		assert.Contains(t, content, "Jane Doe")
		assert.Contains(t, content, "John Roe")
		assert.Less(t, strings.Index(content, "Jane Doe"), strings.Index(content, "John Roe"))
	})

	t.Run("creates missing parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "form_submissions.txt")
		w := NewWriter(path)

		require.NoError(t, w.Append(testSubmission()))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}
