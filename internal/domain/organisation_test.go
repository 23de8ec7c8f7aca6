package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryFixture = `{
  "data": [
    {
      "organisation_name": " Acme IoT ",
      "address": {"address_line_1": "1 University Road", "town": "Southampton", "postcode": "SO17 1BJ"}
    },
    {
      "organisation_name": "Sensors Ltd",
      "address": {"address_line_1": "5 Dock St", "town": "Southampton", "postcode": "SO14 2AA"},
      "website": "https://example.org"
    }
  ]
}`

func TestDirectoryResponse_AddressRecords(t *testing.T) {
	var resp DirectoryResponse
	require.NoError(t, json.Unmarshal([]byte(directoryFixture), &resp))

	records := resp.AddressRecords()
	require.Len(t, records, 2)
	assert.Equal(t, AddressRecord{
		OrganisationName: "Acme IoT",
		AddressLine1:     "1 University Road",
		Town:             "Southampton",
		Postcode:         "SO17 1BJ",
	}, records[0])
	assert.Equal(t, "Sensors Ltd", records[1].OrganisationName)
}

func TestDirectoryResponse_Empty(t *testing.T) {
	var resp DirectoryResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data": []}`), &resp))
	assert.Empty(t, resp.AddressRecords())
}

func TestCredentials_AuthorizationHeader(t *testing.T) {
	assert.Equal(t, "", Credentials{}.AuthorizationHeader())
	assert.Equal(t, "", Credentials{Token: "  "}.AuthorizationHeader())
	assert.Equal(t, "Token abc123", Credentials{Token: " abc123 "}.AuthorizationHeader())
	assert.True(t, Credentials{Token: "x"}.HasToken())
}

func TestResolution_Counts(t *testing.T) {
	r := Resolution{
		Markers: []Marker{{Lat: 1, Lng: 2}},
		Failed:  []FailedLookup{{Postcode: "BAD", Kind: FailureTransport}},
	}
	assert.Equal(t, 2, r.Settled())
	assert.Equal(t, []string{"BAD"}, r.FailedPostcodes())
}
