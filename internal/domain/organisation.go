package domain

import "strings"

// AddressRecord is one organisation from the directory, reduced to the
// fields needed to place it on a map.
type AddressRecord struct {
	OrganisationName string
	AddressLine1     string
	Town             string
	Postcode         string
}

// OrganisationRecord is the directory wire format for a single organisation.
type OrganisationRecord struct {
	OrganisationName string         `json:"organisation_name"`
	Address          AddressPayload `json:"address"`
}

// AddressPayload is the nested postal address of an OrganisationRecord.
type AddressPayload struct {
	AddressLine1 string `json:"address_line_1"`
	Town         string `json:"town"`
	Postcode     string `json:"postcode"`
}

// DirectoryResponse is the envelope returned by the directory endpoint.
type DirectoryResponse struct {
	Data []OrganisationRecord `json:"data"`
}

// AddressRecord flattens the wire record. Surrounding whitespace is trimmed.
func (o OrganisationRecord) AddressRecord() AddressRecord {
	return AddressRecord{
		OrganisationName: strings.TrimSpace(o.OrganisationName),
		AddressLine1:     strings.TrimSpace(o.Address.AddressLine1),
		Town:             strings.TrimSpace(o.Address.Town),
		Postcode:         strings.TrimSpace(o.Address.Postcode),
	}
}

// AddressRecords flattens every organisation in the response, preserving order.
func (r DirectoryResponse) AddressRecords() []AddressRecord {
	records := make([]AddressRecord, 0, len(r.Data))
	for _, o := range r.Data {
		records = append(records, o.AddressRecord())
	}
	return records
}

// Credentials carries the optional API key forwarded to the data portal.
// The zero value means unauthenticated.
type Credentials struct {
	Token string
}

// HasToken reports whether a non-blank token was supplied.
func (c Credentials) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

// AuthorizationHeader returns the header value for the portal, or "" when
// no token was supplied.
func (c Credentials) AuthorizationHeader() string {
	if !c.HasToken() {
		return ""
	}
	return "Token " + strings.TrimSpace(c.Token)
}
