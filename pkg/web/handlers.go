// Package web provides HTTP handlers and REST API endpoints for the workflow editor.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/registry"
	"github.com/dukex/botflow/pkg/services"
	"github.com/dukex/botflow/pkg/template"
	"github.com/dukex/botflow/pkg/wiring"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	editorService   *services.Editor
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	editorService *services.Editor,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		editorService:   editorService,
		validator:       validator,
		registry:        registry,
	}
}

// Register mounts every endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)

	w.Get("/:id/canvas", h.GetCanvas)
	w.Put("/:id/canvas", h.SaveCanvas)

	n := w.Group("/:id/nodes/:nodeId")
	n.Get("/", h.GetNodeConfig)
	n.Get("/ancestors", h.GetAncestors)
	n.Get("/suggestions", h.GetSuggestions)
	n.Get("/config", h.GetRawConfig)
	n.Put("/config", h.ApplyRawConfig)
	n.Put("/inputs/:input/value", h.SetInputValue)
	n.Put("/inputs/:input/mode", h.SetInputMode)
	n.Put("/inputs/:input/wire", h.SelectWireSource)
	n.Delete("/inputs/:input/wire", h.RemoveWire)
	n.Post("/inputs/:input/reference", h.ConvertWireToReference)
	n.Post("/inputs/:input/extract", h.ExtractToVariable)

	router.Post("/normalize", h.NormalizeWorkflow)
	router.Post("/templates/preview", h.PreviewTemplate)

	router.Get("/actions", h.GetActions)
	router.Get("/actions/:actionId", h.GetAction)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// CreateWorkflow stores a document sent in any of the supported shapes.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	body, err := jsonBody(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.workflowService.Create(c.Context(), body)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	body, err := jsonBody(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.workflowService.Update(c.Context(), c.Params("id"), body)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// NormalizeWorkflow returns the canonical form of a submitted document without storing it.
func (h *APIHandlers) NormalizeWorkflow(c fiber.Ctx) error {
	body, err := jsonBody(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	workflow, err := h.workflowService.Normalize(body)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetCanvas(c fiber.Ctx) error {
	view, err := h.editorService.LoadCanvas(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) SaveCanvas(c fiber.Ctx) error {
	var req SaveCanvasRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.editorService.SaveCanvas(c.Context(), c.Params("id"), req.Graph)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetAncestors(c fiber.Ctx) error {
	ancestors, err := h.editorService.Ancestors(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"ancestors": ancestors})
}

func (h *APIHandlers) GetSuggestions(c fiber.Ctx) error {
	suggestions, err := h.editorService.Suggest(c.Context(), c.Params("id"), c.Params("nodeId"), c.Query("q"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"suggestions": suggestions})
}

func (h *APIHandlers) GetNodeConfig(c fiber.Ctx) error {
	config, err := h.editorService.NodeConfig(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) SetInputValue(c fiber.Ctx) error {
	var req SetInputValueRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	config, err := h.editorService.SetInputValue(c.Context(), c.Params("id"), c.Params("nodeId"), c.Params("input"), req.Value)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) SetInputMode(c fiber.Ctx) error {
	var req SetInputModeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	config, err := h.editorService.SetInputMode(c.Context(), c.Params("id"), c.Params("nodeId"), c.Params("input"), wiring.Mode(req.Mode))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) SelectWireSource(c fiber.Ctx) error {
	var req SelectWireRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	config, err := h.editorService.SelectWireSource(c.Context(), c.Params("id"), c.Params("nodeId"), c.Params("input"),
		req.SourceNode, req.Output, req.Path)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) RemoveWire(c fiber.Ctx) error {
	config, err := h.editorService.RemoveWire(c.Context(), c.Params("id"), c.Params("nodeId"), c.Params("input"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) ConvertWireToReference(c fiber.Ctx) error {
	config, err := h.editorService.ConvertWireToReference(c.Context(), c.Params("id"), c.Params("nodeId"), c.Params("input"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) ExtractToVariable(c fiber.Ctx) error {
	var req ExtractVariableRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outcome, config, err := h.editorService.ExtractToVariable(c.Context(), c.Params("id"), c.Params("nodeId"), c.Params("input"), req.Variable)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ExtractVariableResponse{Outcome: outcome, Config: config})
}

func (h *APIHandlers) GetRawConfig(c fiber.Ctx) error {
	raw, err := h.editorService.RawConfig(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.Send(raw)
}

// ApplyRawConfig replaces a node's configuration with the request body. Schema violations are
// reported per input and nothing is stored.
func (h *APIHandlers) ApplyRawConfig(c fiber.Ctx) error {
	config, err := h.editorService.ApplyRawConfig(c.Context(), c.Params("id"), c.Params("nodeId"), append([]byte(nil), c.Body()...))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(config)
}

func (h *APIHandlers) PreviewTemplate(c fiber.Ctx) error {
	var req PreviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	resp := PreviewResponse{Kind: template.Classify(req.Value)}

	if s, ok := req.Value.(string); ok {
		resp.References = template.Describe(s)
	}

	result, err := template.Preview(req.Value, req.Sample)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Result = result
	}

	return c.JSON(resp)
}

func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	actions := h.registry.Actions()

	resp := make([]ActionResponse, 0, len(actions))
	for _, action := range actions {
		resp = append(resp, newActionResponse(action))
	}

	return c.JSON(fiber.Map{"actions": resp})
}

func (h *APIHandlers) GetAction(c fiber.Ctx) error {
	action, ok := h.registry.Action(c.Params("actionId"))
	if !ok {
		return notFound(c, "action_not_found", "action definition not found")
	}

	return c.JSON(newActionResponse(action))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Botflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Botflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// jsonBody returns a copy of the request body after checking it is JSON.
func jsonBody(c fiber.Ctx) ([]byte, error) {
	body := append([]byte(nil), c.Body()...)

	var probe any
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, err
	}

	return body, nil
}

func newActionResponse(action *models.ActionDefinition) ActionResponse {
	return ActionResponse{
		ActionDefinition: action,
		DataOutputs:      action.DataOutputs(),
		FlowOutputs:      flow.ControlOutputNames(action),
	}
}
