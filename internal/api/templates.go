package api

import (
	"context"
	"maps"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
)

// registerTemplateRoutes wires the read-only role template catalog onto the
// huma API. The catalog is global and identical for every organization.
//
//	GET /role-templates: all ten slot templates
//	GET /role-templates/{slot}: one slot's template
func registerTemplateRoutes(api huma.API, c *permission.Catalog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-role-templates",
		Method:      http.MethodGet,
		Path:        "/role-templates",
		Summary:     "List role templates",
		Description: "Returns the default grant set of every role slot.",
		Tags:        []string{"Roles"},
	}, listTemplatesHandler(c))

	huma.Register(api, huma.Operation{
		OperationID: "get-role-template",
		Method:      http.MethodGet,
		Path:        "/role-templates/{slot}",
		Summary:     "Get role template",
		Description: "Returns the default grant set of one role slot.",
		Tags:        []string{"Roles"},
	}, getTemplateHandler(c))
}

// ── Response types ────────────────────────────────────────────────────────────

// TemplateResponse is the API representation of one slot template.
type TemplateResponse struct {
	Slot  int      `json:"slot"`
	Name  string   `json:"name"`
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

func toTemplateResponse(t permission.Template) TemplateResponse {
	out := TemplateResponse{Slot: int(t.Slot), Name: t.Name, Allow: []string{}, Deny: []string{}}
	for _, c := range slices.Sorted(maps.Keys(t.Grants)) {
		if t.Grants[c] {
			out.Allow = append(out.Allow, string(c))
		} else {
			out.Deny = append(out.Deny, string(c))
		}
	}
	return out
}

// ── GET /role-templates ───────────────────────────────────────────────────────

// ListTemplatesOutput is the response for GET /role-templates.
type ListTemplatesOutput struct {
	Body struct {
		Templates []TemplateResponse `json:"templates"`
	}
}

func listTemplatesHandler(c *permission.Catalog) func(context.Context, *struct{}) (*ListTemplatesOutput, error) {
	return func(_ context.Context, _ *struct{}) (*ListTemplatesOutput, error) {
		out := &ListTemplatesOutput{}
		for _, t := range c.Templates() {
			out.Body.Templates = append(out.Body.Templates, toTemplateResponse(t))
		}
		return out, nil
	}
}

// ── GET /role-templates/{slot} ────────────────────────────────────────────────

// GetTemplateInput defines path parameters for the single-template endpoint.
type GetTemplateInput struct {
	Slot int `path:"slot" minimum:"1" maximum:"10" doc:"Role slot (1-10)"`
}

// GetTemplateOutput is the response for GET /role-templates/{slot}.
type GetTemplateOutput struct {
	Body *TemplateResponse
}

func getTemplateHandler(c *permission.Catalog) func(context.Context, *GetTemplateInput) (*GetTemplateOutput, error) {
	return func(_ context.Context, input *GetTemplateInput) (*GetTemplateOutput, error) {
		slot, err := permission.ParseSlot(input.Slot)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		t, ok := c.Template(slot)
		if !ok {
			return nil, huma.Error404NotFound("template not found", nil)
		}
		resp := toTemplateResponse(t)
		return &GetTemplateOutput{Body: &resp}, nil
	}
}
