package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel(""))
}

func TestGetLoggerCachesInContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	assert.NotEqual(t, "no-request-id", RequestID(ctx))

	l1, ctx := GetLogger(ctx)
	l2, _ := GetLogger(ctx)
	assert.Same(t, l1, l2)
}
