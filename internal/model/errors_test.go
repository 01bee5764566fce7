package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsResolution(t *testing.T) {
	err := &ResolutionError{USRN: "123"}
	assert.True(t, IsResolution(err))
	assert.True(t, IsResolution(eris.Wrap(err, "resolver: bbox")))
	assert.False(t, IsResolution(eris.New("something else")))
	assert.False(t, IsResolution(nil))
}

func TestIsUpstream(t *testing.T) {
	err := &UpstreamError{Collection: "lus-fts-site-1", StatusCode: 503, Err: eris.New("boom")}
	assert.True(t, IsUpstream(err))
	assert.True(t, IsUpstream(eris.Wrap(err, "fetch")))
	assert.Contains(t, err.Error(), "lus-fts-site-1")
	assert.Contains(t, err.Error(), "503")
	assert.False(t, IsUpstream(eris.New("other")))
}
