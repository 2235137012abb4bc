package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilePage = `<!DOCTYPE html>
<html>
<head><title>Mira Chen, Software Engineer</title></head>
<body>
<script>analytics()</script>
<h1>Mira Chen</h1>
<h2>Experience</h2>
<div>Senior Engineer @ Acme Corp</div>
<div>Jan 2021 - Present</div>
<div>Backend Engineer @ Initech</div>
<div>2018 - 2020</div>
<h2>Skills</h2>
<p>Core skills: Go, PostgreSQL, distributed systems and event streaming platforms.</p>
<h2>Education</h2>
<p>BSc Computer Science, State University, bachelor degree earned 2017.</p>
<h2>Contact</h2>
<p>Reach me at mira@example.com or +1 (555) 010-4477.</p>
<a href="https://linkedin.com/in/mirachen">LinkedIn</a>
<a href="https://github.com/mirachen">GitHub</a>
</body>
</html>`

func TestSummarize_ProfilePage(t *testing.T) {
	summary := Summarize("https://example.com", profilePage)

	assert.Equal(t, "Mira Chen, Software Engineer", summary.Title)

	require.Len(t, summary.Jobs, 2)
	current := summary.Jobs[0]
	assert.True(t, current.Current)
	assert.Equal(t, "Senior Engineer", current.Title)
	assert.Equal(t, "Acme Corp", current.Company)
	assert.Contains(t, current.DateRange, "2021")

	past := summary.Jobs[1]
	assert.False(t, past.Current)
	assert.Equal(t, "Backend Engineer", past.Title)
	assert.Equal(t, "Initech", past.Company)
	assert.Equal(t, "2018 - 2020", past.DateRange)

	require.NotEmpty(t, summary.Skills)
	assert.Contains(t, summary.Skills[0], "Go, PostgreSQL")

	require.NotEmpty(t, summary.Education)
	assert.Contains(t, summary.Education[0], "State University")

	assert.Equal(t, "mira@example.com", summary.Contact.Email)
	assert.Contains(t, summary.Contact.Phone, "555")
	assert.Equal(t, "https://linkedin.com/in/mirachen", summary.Contact.LinkedIn)
	assert.Equal(t, "https://github.com/mirachen", summary.Contact.GitHub)

	assert.NotContains(t, summary.Excerpt, "analytics()")
}

func TestSummarize_DuplicateRolesCollapse(t *testing.T) {
	page := `<body>
<p>Engineer @ Acme</p><p>2019 - 2021</p>
<p>Engineer @ Acme</p><p>2019 - 2021</p>
</body>`
	summary := Summarize("https://example.com", page)
	assert.Len(t, summary.Jobs, 1)
}

func TestSummarize_PlainPageFallsBackToExcerpt(t *testing.T) {
	page := "<body><p>A short landing page with nothing structured on it.</p></body>"
	summary := Summarize("https://example.com", page)

	assert.Empty(t, summary.Jobs)
	assert.Empty(t, summary.Skills)
	assert.Empty(t, summary.Education)
	assert.Contains(t, summary.Excerpt, "nothing structured")
}

func TestSummarize_TopicEntriesAreCapped(t *testing.T) {
	var b []byte
	for i := 0; i < 10; i++ {
		b = append(b, []byte(`<p>Project entry describing a different build each time, number `)...)
		b = append(b, byte('0'+i))
		b = append(b, []byte(`.</p>`)...)
	}
	summary := Summarize("https://example.com", "<body>"+string(b)+"</body>")
	assert.LessOrEqual(t, len(summary.Projects), topicEntryCap)
}

func TestPageExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, browserUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(profilePage))
	}))
	defer srv.Close()

	extractor := NewPageExtractor(nil)
	summary, err := extractor.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "mira@example.com", summary.Contact.Email)
}

func TestPageExtractor_ExtractErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	extractor := NewPageExtractor(nil)
	_, err := extractor.Extract(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "404")
}
