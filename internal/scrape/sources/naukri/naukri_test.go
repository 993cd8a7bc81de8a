package naukri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internlee-engine/internal/domain"
)

const fixture = `<html><body>
<div class="styles_jlc__main__VdwtF">
  <div class="srp-jobtuple-wrapper">
    <div class="cust-job-tuple layout-wrapper">
      <a class="title" href="https://www.naukri.com/job-listings-go-intern-acme-chennai-0-1-years-123?src=jobsearchDesk&utm_source=x">Go Intern</a>
      <span class="comp-dtls-wrap"><a class="comp-name">Acme Systems</a></span>
      <span class="exp-wrap"><span title="0-1 Yrs">0-1 Yrs</span></span>
      <span class="sal-wrap"><span title="Not disclosed">Not disclosed</span></span>
      <span class="loc-wrap"><span title="Chennai">Chennai</span></span>
      <div class="row4"><ul><li>Graduate degree</li><li>Good communication</li></ul></div>
      <div class="tuple-tags-container"><ul class="tags-gt"><li>golang</li><li>docker</li></ul></div>
      <span class="job-post-day">3 Days Ago</span>
    </div>
  </div>
  <div class="srp-jobtuple-wrapper">
    <div class="cust-job-tuple layout-wrapper">
      <a class="title" href="/job-listings-data-intern-456">Data Intern</a>
      <div class="row5"><ul><li>sql</li><li>excel</li></ul></div>
    </div>
  </div>
  <div class="srp-jobtuple-wrapper"><div class="promo-banner">Upgrade</div></div>
  <div class="srp-jobtuple-wrapper">
    <div class="cust-job-tuple layout-wrapper"><a class="title" href="">No link</a></div>
  </div>
</div>
</body></html>`

func TestParse(t *testing.T) {
	got, err := Parse(fixture)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.Listing{
		Company:        "Acme Systems",
		Title:          "Go Intern",
		RedirectLink:   "https://www.naukri.com/job-listings-go-intern-acme-chennai-0-1-years-123?src=jobsearchDesk",
		Qualifications: []string{"golang", "docker"},
		Location:       "Chennai",
		Duration:       "0-1 Yrs",
		BasedJob:       "3 Days Ago",
		Experience:     "Graduate degree | Good communication",
		Stipend:        "Not disclosed",
	}, got[0])
}

func TestParseDefaults(t *testing.T) {
	got, err := Parse(fixture)
	require.NoError(t, err)
	require.Len(t, got, 2)

	l := got[1]
	assert.Equal(t, "https://www.naukri.com/job-listings-data-intern-456", l.RedirectLink)
	assert.Equal(t, []string{"sql", "excel"}, l.Qualifications)
	assert.Equal(t, domain.NotSpecified, l.Company)
	assert.Equal(t, domain.NotSpecified, l.Stipend)
	assert.Equal(t, "Schedule not listed", l.BasedJob)
	assert.Equal(t, domain.NotSpecified, l.Experience)
}

func TestParseLayoutChange(t *testing.T) {
	_, err := Parse(`<html><body><div class="jobs"></div></body></html>`)
	assert.ErrorIs(t, err, domain.ErrLayout)
}
