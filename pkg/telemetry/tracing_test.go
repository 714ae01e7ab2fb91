// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package telemetry

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// The tracer provider is process global, so these tests are not parallel.

func TestSetup_WithoutExporterStillTraces(t *testing.T) {
	shutdown, err := Setup("octanescore-test", "")
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().HasTraceID())
	assert.True(t, span.SpanContext().IsSampled())
}

func TestSetup_ExtractsB3Headers(t *testing.T) {
	shutdown, err := Setup("octanescore-test", "")
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	header := http.Header{}
	header.Set("X-B3-TraceId", "463ac35c9f6413ad48485a3953bb6124")
	header.Set("X-B3-SpanId", "a2fb4a1d1a96d312")
	header.Set("X-B3-Sampled", "1")

	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(header))
	remote := oteltrace.SpanContextFromContext(ctx)
	assert.Equal(t, "463ac35c9f6413ad48485a3953bb6124", remote.TraceID().String())
}

func TestSetup_RejectsBadEndpoint(t *testing.T) {
	_, err := Setup("octanescore-test", "://not a url")
	assert.Error(t, err)
}
