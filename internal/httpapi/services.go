package httpapi

import (
	"net/http"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
	"github.com/haasonsaas/agentgateway/pkg/models"
)

// handleListServices implements GET /services: metadata for every
// registered service class.
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	descs := s.registry.ListServices()
	out := make([]models.ServiceSummary, 0, len(descs))
	for _, d := range descs {
		tools, _ := s.registry.ListTools(d.Class)
		out = append(out, models.ServiceSummary{
			Class:       d.Class,
			DisplayName: d.DisplayName,
			Kind:        string(d.Kind),
			CredSchema:  d.CredentialSchema,
			ToolCount:   len(tools),
		})
	}
	writeJSON(w, struct {
		Services []models.ServiceSummary `json:"services"`
	}{Services: out})
}

// handleServiceTools implements GET /services/{class}/tools.
func (s *Server) handleServiceTools(w http.ResponseWriter, r *http.Request) {
	class := r.PathValue("class")
	tools, err := s.registry.ListTools(class)
	if err != nil {
		writeError(w, r, engine.NewGatewayError(engine.CodeNotFound, err.Error()))
		return
	}

	out := make([]models.ToolSummary, 0, len(tools))
	for _, t := range tools {
		out = append(out, models.ToolSummary{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.Schema,
			Category:    t.Category,
			Tags:        t.Tags,
			Service:     class,
		})
	}
	writeJSON(w, struct {
		Tools []models.ToolSummary `json:"tools"`
	}{Tools: out})
}

// handleServiceExecute implements POST /services/{class}/execute:
// direct tool execution outside of the agent loop, binding exactly one
// service with the request's own credentials/config.
func (s *Server) handleServiceExecute(w http.ResponseWriter, r *http.Request) {
	class := r.PathValue("class")

	var body executeToolRequest
	if gerr := decodeJSON(r, &body); gerr != nil {
		writeError(w, r, gerr)
		return
	}
	if body.ToolName == "" {
		writeError(w, r, engine.NewGatewayError(engine.CodeValidation, "tool_name is required"))
		return
	}

	svc, ok := s.registry.Get(class)
	if !ok {
		writeError(w, r, engine.NewGatewayError(engine.CodeNotFound, "unknown service class "+class))
		return
	}

	binding := registry.ServiceBinding{
		Class:         class,
		SelectionMode: registry.SelectionSelected,
		SelectedTools: []string{body.ToolName},
		Credentials:   body.Auth,
		Config:        body.Config,
	}

	instance, err := svc.Instantiate(r.Context(), binding)
	if err != nil {
		writeError(w, r, engine.NewGatewayError(engine.CodeUpstreamUnavailable, err.Error()))
		return
	}

	var tool engine.Tool
	for _, t := range instance.Tools() {
		if t.Name() == body.ToolName {
			tool = t
			break
		}
	}
	if tool == nil {
		writeError(w, r, engine.NewGatewayError(engine.CodeNotFound, "unknown tool "+body.ToolName+" in service "+class))
		return
	}
	if err := registry.ValidateArguments(tool, body.Arguments); err != nil {
		writeError(w, r, engine.NewGatewayError(engine.CodeValidation, err.Error()))
		return
	}

	result, err := tool.Execute(r.Context(), body.Arguments)
	if err != nil {
		writeJSON(w, executeToolResponse{Success: false, Error: err.Error()})
		return
	}
	if result.IsError {
		writeJSON(w, executeToolResponse{Success: false, Error: result.Content})
		return
	}
	writeJSON(w, executeToolResponse{Success: true, Result: result.Content})
}
