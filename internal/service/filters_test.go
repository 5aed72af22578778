package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqcb_dashboard/backend/internal/models"
)

func plantRecords() []models.Record {
	return []models.Record{
		{SQCBID: "1", PlantID: "3047", SupplierName: "Siam Castings"},
		{SQCBID: "2", PlantID: "1001", SupplierName: "York Metals", Comments: "Crack on flange"},
		{SQCBID: "3", PlantID: "1003", SupplierName: "Tomahawk Plastics"},
		{SQCBID: "4", PlantID: "3049", HDIncharge: "Ann Lee"},
		{SQCBID: "5", PlantID: ""},
	}
}

func ids(records []models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.SQCBID)
	}
	return out
}

func TestFilterByPlant(t *testing.T) {
	records := plantRecords()

	assert.Equal(t, []string{"2"}, ids(FilterByPlant(records, "York")))
	assert.Equal(t, []string{"1", "4"}, ids(FilterByPlant(records, "Thailand")))
	assert.Equal(t, []string{"3"}, ids(FilterByPlant(records, "Tomahawk")))
	assert.Equal(t, ids(records), ids(FilterByPlant(records, SiteAll)))
	assert.Equal(t, ids(records), ids(FilterByPlant(records, "")))
	assert.Empty(t, FilterByPlant(records, "Mars"))
}

func TestFilterByPlant_NumericPlantFromJSON(t *testing.T) {
	var records []models.Record
	require.NoError(t, json.Unmarshal([]byte(`[{"sqcb_id":1,"plant_id":1001},{"sqcb_id":2,"plant_id":"3048"}]`), &records))

	assert.Equal(t, []string{"1"}, ids(FilterByPlant(records, "York")))
	assert.Equal(t, []string{"2"}, ids(FilterByPlant(records, "Thailand")))
}

func TestFilterBySearch(t *testing.T) {
	records := plantRecords()

	assert.Equal(t, []string{"2"}, ids(FilterBySearch(records, "CRACK")))
	assert.Equal(t, []string{"4"}, ids(FilterBySearch(records, "ann")))
	assert.Equal(t, []string{"1", "4"}, ids(FilterBySearch(records, "304")))
	assert.Equal(t, ids(records), ids(FilterBySearch(records, "   ")))
	assert.Empty(t, FilterBySearch(records, "zzz"))
}

func TestFilterApply_PlantBeforeSearch(t *testing.T) {
	records := plantRecords()
	got := Filter{Plant: "Thailand", Search: "siam"}.Apply(records)
	assert.Equal(t, []string{"1"}, ids(got))

	got = Filter{Plant: "York", Search: "siam"}.Apply(records)
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := plantRecords()
	_ = Filter{Plant: "York", Search: "metal"}.Apply(records)
	assert.Equal(t, plantRecords(), records)
}

func TestSiteNames(t *testing.T) {
	assert.Equal(t, []string{"Thailand", "Tomahawk", "York"}, SiteNames())
}
