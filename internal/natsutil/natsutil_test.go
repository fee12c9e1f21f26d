package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	c := (*natsHeaderCarrier)(msg)

	assert.Equal(t, "", c.Get("missing"))
	assert.Nil(t, c.Keys())

	c.Set("traceparent", "00-abc-def-01")
	c.Set("traceparent", "00-abc-def-02")
	c.Set("tracestate", "x=1")
	assert.Equal(t, "00-abc-def-02", c.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "tracestate"}, c.Keys())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "jobagent.progress", Subject("jobagent", SubjectProgress))
	assert.Equal(t, "runs", Subject("", SubjectRuns))
}
