package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_NegativeValidation(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})

	t.Run("malformed json body", func(t *testing.T) {
		rr, _ := doJSON(t, h, "POST", "/api/search", `{"keyword":`, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("keyword too long", func(t *testing.T) {
		long := strings.Repeat("k", 51)
		rr, body := doJSON(t, h, "POST", "/api/search", `{"keyword":"`+long+`"}`, "")
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, body["error"], "50")
	})

	t.Run("keyword with disallowed characters", func(t *testing.T) {
		rr, _ := doJSON(t, h, "POST", "/api/search", `{"keyword":"<script>alert(1)</script>"}`, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("whitespace-only keyword", func(t *testing.T) {
		rr, _ := doJSON(t, h, "POST", "/api/search", `{"keyword":"   "}`, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown query id", func(t *testing.T) {
		rr, _ := doJSON(t, h, "GET", "/api/queries/nonexistent", "", "someone@example.com")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("search requires POST", func(t *testing.T) {
		rr, _ := doJSON(t, h, "PUT", "/api/search", `{"keyword":"kw"}`, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}
