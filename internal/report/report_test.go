package report

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleListings() []types.ScoredListing {
	return []types.ScoredListing{
		{
			Listing: types.Listing{
				Title: "IAM <Lead>", Company: "Acme & Co", Location: "London (GB)",
				Description: "Own identity", URL: "https://jobs.example/1", Source: "Adzuna", SalaryRaw: "65000",
			},
			MatchScore: 91, SalaryEstimate: "£80k", Rationale: "Strong fit",
		},
		{
			Listing: types.Listing{
				Title: "Okta Admin", Company: "bedroc.com", Location: "USA",
				Description: "Run Okta", URL: "https://jobs.example/2", Source: "Tier 1 Direct", SalaryRaw: "Check Site",
			},
			MatchScore: 64, SalaryEstimate: "$120k", Rationale: "Good overlap",
		},
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleListings())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<h3>Job Report</h3>"))
	assert.Contains(t, html, "<th>Match %</th><th>Title</th><th>Company</th><th>Source</th><th>Location</th>")
	assert.Contains(t, html, "IAM &lt;Lead&gt;")
	assert.Contains(t, html, "Acme &amp; Co")
	assert.Contains(t, html, `<a href="https://jobs.example/1">`)
	assert.Equal(t, 2, strings.Count(html, "<tr><td>"))
}

func TestRenderHTMLEmpty(t *testing.T) {
	html, err := RenderHTML(nil)
	require.NoError(t, err)
	assert.Contains(t, html, "<tbody>")
	assert.NotContains(t, html, "<tr><td>")
}

func TestBuildWorkbook(t *testing.T) {
	data, err := BuildWorkbook(sampleListings())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Title", "Company", "Location", "Source", "Match %",
		"Salary Est.", "Salary", "Reason", "URL", "Description",
	}, rows[0])
	assert.Equal(t, "IAM <Lead>", rows[1][0])
	assert.Equal(t, "91", rows[1][4])
	assert.Equal(t, "https://jobs.example/2", rows[2][8])
	assert.Equal(t, "Check Site", rows[2][6])
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Job Results: 2 Matches", Subject(2))
	assert.Equal(t, "Job Results: 0 Matches", Subject(0))
}

func testDelivery() config.DeliveryConfig {
	return config.DeliveryConfig{
		AttachmentName: "Jobs.xlsx",
		SMTP: config.SMTPConfig{
			Enabled:  true,
			Host:     "127.0.0.1",
			Port:     465,
			Username: "hunter@example.com",
			Password: "app-password",
			Timeout:  2 * time.Second,
		},
	}
}

func TestBuildMessage(t *testing.T) {
	m := NewMailer(testDelivery(), nil)

	msg, err := m.buildMessage("me@example.com", sampleListings())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: Job Results: 2 Matches")
	assert.Contains(t, raw, "me@example.com")
	assert.Contains(t, raw, "hunter@example.com")
	assert.Contains(t, raw, `filename="Jobs.xlsx"`)
	assert.Contains(t, raw, "text/html")
}

func TestSendRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.DeliveryConfig)
		to       string
		expected errors.ErrorType
	}{
		{"empty destination", func(*config.DeliveryConfig) {}, "  ", errors.ErrorTypeValidation},
		{"disabled", func(c *config.DeliveryConfig) { c.SMTP.Enabled = false }, "me@example.com", errors.ErrorTypeDelivery},
		{"no password", func(c *config.DeliveryConfig) { c.SMTP.Password = "" }, "me@example.com", errors.ErrorTypeDelivery},
		{"bad destination", func(*config.DeliveryConfig) {}, "not an address", errors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testDelivery()
			tt.mutate(&cfg)

			err := NewMailer(cfg, nil).Send(context.Background(), tt.to, sampleListings())
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.TypeOf(err))
		})
	}
}

func TestSendUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testDelivery()
	cfg.SMTP.Port = port

	err = NewMailer(cfg, nil).Send(context.Background(), "me@example.com", sampleListings())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDelivery))
}
