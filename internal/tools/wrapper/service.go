package wrapper

import "github.com/haasonsaas/agentgateway/internal/registry"

// RegisterAll registers every API-wrapper service with reg. Each wrapper
// is its own registry.Service — unlike the built-in tool family, there
// is no single shared class, since each wraps a distinct third-party API
// with its own credential schema.
func RegisterAll(reg *registry.Registry) error {
	services := []registry.Service{
		NewWeatherService(),
		NewIPInfoService(),
		NewExchangeRateService(),
		NewWebSearchService(),
		NewSlackService(),
		NewNotionService(),
		NewGoogleCalendarService(),
	}

	for _, svc := range services {
		if err := reg.Register(svc); err != nil {
			return err
		}
	}
	return nil
}
