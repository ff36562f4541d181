package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/offertrack/modules/funnel/model"
)

func TestRender_ProducesNonEmptyPNG(t *testing.T) {
	r := New()
	summary := model.Summary{
		Applications:               40,
		Interviews:                 10,
		NoResponse:                 20,
		Offers:                     2,
		RejectionsTotal:            10,
		RejectionsWithInterview:    4,
		RejectionsWithoutInterview: 6,
	}
	data, err := r.Render(summary, "Job Search Funnel", "Generated by offertrack")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestRender_ZeroApplicationsDoesNotPanic(t *testing.T) {
	r := New()
	_, err := r.Render(model.Summary{}, "Empty", "")
	assert.NoError(t, err)
}
