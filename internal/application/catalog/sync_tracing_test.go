package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/integration"
	"github.com/vitaguide/backend/internal/infrastructure/telemetry"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestSyncProductsToDatabase_Spans(t *testing.T) {
	sr := recordSpans(t)
	client := new(MockCatalogClient)
	repo := new(MockSupplementRepository)

	client.On("FetchAllProducts", mock.Anything).Return([]integration.VendorProduct{
		{ID: 1, Name: "Good"}, {ID: 2, Name: "Missing"}, {ID: 3, Name: "Storage fails"},
	}, nil)
	client.On("FetchProductCard", mock.Anything, "1").Return(vendorCard(1, "Good", "Acme"))
	client.On("FetchProductCard", mock.Anything, "2").Return(nil)
	client.On("FetchProductCard", mock.Anything, "3").Return(vendorCard(3, "Storage fails", "Acme"))
	repo.On("Upsert", mock.Anything, bySourceID("3")).Return(nil, errors.New("connection reset"))
	repo.On("Upsert", mock.Anything, mock.Anything).
		Return(func(_ context.Context, s *catalog.Supplement) *catalog.Supplement { return s }, nil)

	svc := NewSyncService(client, repo, WithSyncConcurrency(1))
	_, err := svc.SyncProductsToDatabase(context.Background())
	require.NoError(t, err)

	var run sdktrace.ReadOnlySpan
	items := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range sr.Ended() {
		switch span.Name() {
		case SpanSyncRun:
			run = span
		case SpanSyncItem:
			items[spanAttrs(span)[telemetry.AttrSourceID].AsString()] = span
		}
	}
	require.NotNil(t, run)
	require.Len(t, items, 3)

	runAttrs := spanAttrs(run)
	assert.Equal(t, integration.SourceVademecum, runAttrs[telemetry.AttrSyncSource].AsString())
	assert.Equal(t, int64(3), runAttrs[telemetry.AttrSyncTotal].AsInt64())
	assert.Equal(t, int64(1), runAttrs[telemetry.AttrSyncSynced].AsInt64())
	assert.Equal(t, int64(1), runAttrs[telemetry.AttrSyncFailed].AsInt64())
	assert.Equal(t, int64(1), runAttrs[telemetry.AttrSyncSkipped].AsInt64())
	assert.Equal(t, codes.Error, run.Status().Code)

	for id, item := range items {
		assert.Equal(t, run.SpanContext().SpanID(), item.Parent().SpanID(), "item %s parent", id)
	}

	assert.Equal(t, "synced", spanAttrs(items["1"])[telemetry.AttrItemOutcome].AsString())
	assert.Equal(t, codes.Ok, items["1"].Status().Code)

	assert.Equal(t, "skipped", spanAttrs(items["2"])[telemetry.AttrItemOutcome].AsString())

	failed := spanAttrs(items["3"])
	assert.Equal(t, "failed", failed[telemetry.AttrItemOutcome].AsString())
	assert.Equal(t, "upsert", failed[telemetry.AttrItemStage].AsString())
	assert.Equal(t, codes.Error, items["3"].Status().Code)
	assert.Equal(t, "connection reset", items["3"].Status().Description)
}

func TestSyncProductsToDatabase_ListingFailureSpan(t *testing.T) {
	sr := recordSpans(t)
	client := new(MockCatalogClient)
	repo := new(MockSupplementRepository)
	client.On("FetchAllProducts", mock.Anything).Return(nil, integration.ErrFetchProducts)

	_, err := NewSyncService(client, repo).SyncProductsToDatabase(context.Background())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanSyncRun, spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
