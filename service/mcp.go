package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/anchorage/kit"
)

// RegisterMCP registers the anchorage tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "anchor_create_target",
		Description: "Create an annotation target from a viewer interaction (image, pdf, video or website).",
		InputSchema: kit.InputSchema(map[string]any{
			"contentType": map[string]any{"type": "string", "enum": []string{"image", "pdf", "video", "website"}},
			"kind":        map[string]any{"type": "string", "enum": []string{"pin", "box", "highlight", "timestamp"}},
			"interaction": map[string]any{"type": "object", "description": "Points and rects in screen space (image, pdf), page space (website), or a timestamp (video)"},
			"fileId":      map[string]any{"type": "string"},
			"viewport":    map[string]any{"type": "object", "description": "Viewer state: zoom, scroll, viewport and design sizes"},
			"viewportTag": map[string]any{"type": "string"},
		}, []string{"contentType", "kind", "interaction"}),
	}, s.endpoint("anchor_create_target", s.createEndpoint), kit.DecodeJSON[CreateRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "anchor_get",
		Description: "Get the latest target revision of an annotation and its last resolution outcome.",
		InputSchema: kit.InputSchema(map[string]any{
			"annotationId": map[string]any{"type": "string"},
		}, []string{"annotationId"}),
	}, s.endpoint("anchor_get", s.getEndpoint), kit.DecodeJSON[idRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "anchor_resolve",
		Description: "Resolve an annotation against an HTML snapshot or a live URL and return its anchor, position and excerpt.",
		InputSchema: kit.InputSchema(map[string]any{
			"annotationId": map[string]any{"type": "string"},
			"html":         map[string]any{"type": "string", "description": "HTML snapshot"},
			"url":          map[string]any{"type": "string", "description": "Live page URL"},
			"noRepair":     map[string]any{"type": "boolean"},
		}, []string{"annotationId"}),
	}, s.endpoint("anchor_resolve", s.resolveEndpoint), kit.DecodeJSON[ResolveRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "anchor_list",
		Description: "List the annotations of a file at their latest revision.",
		InputSchema: kit.InputSchema(map[string]any{
			"fileId": map[string]any{"type": "string"},
		}, []string{"fileId"}),
	}, s.endpoint("anchor_list", s.listEndpoint), kit.DecodeJSON[fileRequest]())
}
