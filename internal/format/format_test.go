package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

func TestCleanAddress(t *testing.T) {
	cases := map[string]string{
		"!!12 MG Road!Bengaluru!!":   "12 MG Road, Bengaluru",
		"  4 Park St!!Kolkata  ":     "4 Park St, Kolkata",
		"a,,  ,b":                    "a, b",
		", , leading and trailing, ": "leading and trailing",
		"plain text":                 "plain text",
		"":                           NotAvailable,
		"!!!":                        NotAvailable,
		"tab\t\tseparated":           "tab, separated",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanAddress(in), "input %q", in)
	}
}

func TestCleanAddress_Idempotent(t *testing.T) {
	inputs := []string{
		"!!12 MG Road!Bengaluru!!",
		"a , b ,, c",
		"x!y!!z , ,",
		" ,!, ",
		"a,b",
		"N/A",
		"already, clean",
	}
	for _, in := range inputs {
		once := CleanAddress(in)
		assert.Equal(t, once, CleanAddress(once), "input %q", in)
	}
}

func TestBuild_SharedPhoneScenario(t *testing.T) {
	recs := []model.Record{
		{Phone: "9876543210", Name: "Ravi", Email: "a@example.com", Address: "X!Y", Region: "KA"},
		{Phone: "9876543210", Name: "Ravi", Email: "b@example.com", Address: "X, Y", Region: "KA"},
		{Phone: "9876543210", Name: "Ravi K", Email: "a@example.com", Address: "None", Region: "KA"},
	}
	q := model.SearchQuery{Raw: "+91 98765-43210", Normalized: "9876543210", Kind: model.KindIdentifier}

	res := Build(recs, q, 1234*time.Microsecond)

	assert.True(t, res.Found)
	assert.Equal(t, 3, res.TotalRecords)
	assert.Equal(t, []string{"9876543210"}, res.Phones)
	assert.Equal(t, 1, res.TotalPhones)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, res.Emails)
	assert.Equal(t, []string{"Ravi", "Ravi K"}, res.Names)
	assert.Equal(t, []string{"X, Y"}, res.Addresses)
	assert.Equal(t, []string{"KA"}, res.Regions)
	assert.Equal(t, "9876543210", res.Query)
	assert.Equal(t, 1.23, res.ResponseTimeMS)
}

func TestBuild_AltPhonesAndPlaceholders(t *testing.T) {
	recs := []model.Record{
		{Phone: "9123456780", AltPhone: "9988776655", FatherName: "N/A", Email: "None"},
		{Phone: "9988776655", AltPhone: "", FatherName: "Mohan"},
	}
	res := Build(recs, model.SearchQuery{Raw: "9123456780"}, 0)

	assert.Equal(t, []string{"9123456780", "9988776655"}, res.Phones)
	assert.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, 2, res.TotalPhones)
	assert.Equal(t, []string{"Mohan"}, res.FatherNames)
	assert.Empty(t, res.Emails)
	assert.NotNil(t, res.Emails)
	assert.Equal(t, "9123456780", res.Query)
}

func TestBuild_EmptyAndIdempotent(t *testing.T) {
	res := Build(nil, model.SearchQuery{Normalized: "9876543210"}, 0)
	assert.False(t, res.Found)
	assert.Zero(t, res.TotalRecords)
	assert.NotNil(t, res.Phones)

	recs := []model.Record{{Phone: "1", Name: "a"}, {Phone: "1", Name: "b"}, {Phone: "2", Name: "a"}}
	q := model.SearchQuery{Normalized: "a"}
	assert.Equal(t, Build(recs, q, time.Millisecond), Build(recs, q, time.Millisecond))
}

func TestUptime(t *testing.T) {
	assert.Equal(t, "0s", Uptime(0))
	assert.Equal(t, "4s", Uptime(4*time.Second))
	assert.Equal(t, "3m 4s", Uptime(3*time.Minute+4*time.Second))
	assert.Equal(t, "2h 0m 5s", Uptime(2*time.Hour+5*time.Second))
	assert.Equal(t, "1d 2h 3m 4s", Uptime(26*time.Hour+3*time.Minute+4*time.Second))
}
