package exporter

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// createOTELResource describes the collector process. Configured attributes
// override OTEL_RESOURCE_ATTRIBUTES.
func createOTELResource(resourceAttrs map[string]string) (*resource.Resource, error) {
	attrs := make([]attribute.KeyValue, 0, len(resourceAttrs))
	for _, k := range slices.Sorted(maps.Keys(resourceAttrs)) {
		attrs = append(attrs, attribute.String(k, resourceAttrs[k]))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}
