package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/logging"
)

func TestInstrumentedStore(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := instrumentation.NewMetrics(meterProvider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	store := Instrument(NewMemoryStore(), BackendMemory, metrics, logging.Discard())

	require.NoError(t, store.SetSecret(ctx, &Secret{Name: "s", Values: map[string]any{}}))
	_, err = store.GetSecret(ctx, "s")
	require.NoError(t, err)
	_, err = store.GetSecret(ctx, "missing")
	require.ErrorIs(t, err, ErrSecretNotFound)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "secret_store_operations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value("operation")
				status, _ := dp.Attributes.Value("status")
				counts[op.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{
		"set/success": 1,
		"get/success": 1,
		"get/error":   1,
	}, counts)
}

func TestInstrumentedStore_NilMetrics(t *testing.T) {
	store := Instrument(NewMemoryStore(), BackendMemory, nil, nil)
	require.NoError(t, store.SetSecret(context.Background(), &Secret{Name: "s"}))
	_, err := store.GetSecret(context.Background(), "s")
	assert.NoError(t, err)
}

func TestInstrumentedStore_Contract(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		return Instrument(NewMemoryStore(), BackendMemory, nil, logging.Discard())
	})
}
