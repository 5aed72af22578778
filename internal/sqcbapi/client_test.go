package sqcbapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		records, err := DecodeRecords([]byte(`[{"sqcb_id": 1, "disposition": "FEEDBACK"}]`))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "1", records[0].SQCBID)
	})
	t.Run("data envelope", func(t *testing.T) {
		records, err := DecodeRecords([]byte(` {"data": [{"sqcb_id": "A"}, {"sqcb_id": "B"}]}`))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
	t.Run("object without data", func(t *testing.T) {
		records, err := DecodeRecords([]byte(`{"message": "ok"}`))
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
	t.Run("empty array is not nil", func(t *testing.T) {
		records, err := DecodeRecords([]byte(`[]`))
		require.NoError(t, err)
		assert.NotNil(t, records)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeRecords([]byte(`<html>`))
		assert.Error(t, err)
		_, err = DecodeRecords(nil)
		assert.Error(t, err)
	})
}

func TestClientListRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sqcb" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"sqcb_id": 10, "plant_id": 1001, "rma_no": null}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second)
	records, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10", records[0].SQCBID)
	assert.Equal(t, "1001", records[0].PlantID)
	assert.Equal(t, "", records[0].RMANo)
}

func TestClientListRecords_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).ListRecords(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClientListRecords_RequiresBaseURL(t *testing.T) {
	_, err := (&Client{}).ListRecords(context.Background())
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqcb.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":[{"sqcb_id":"X1"}]}`), 0o600))

	records, err := FileSource{Path: path}.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X1", records[0].SQCBID)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.ListRecords(context.Background())
	assert.Error(t, err)
}
