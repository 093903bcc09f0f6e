package mcpserver

import (
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	flowArg := mcp.WithString("flow", mcp.Required(),
		mcp.Description("Flow name, e.g. funding-request or investor-profile"),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list-flows",
			mcp.WithDescription("List the available wizard flows"),
		),
		s.handleListFlows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("describe-flow",
			mcp.WithDescription("Return the steps and field rules of a flow as JSON"),
			flowArg,
		),
		s.handleDescribeFlow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("validate-field",
			mcp.WithDescription("Validate one field value against its rules"),
			flowArg,
			mcp.WithString("field", mcp.Required(), mcp.Description("Field name")),
			mcp.WithString("value", mcp.Description("Value to validate; comma separate file names")),
		),
		s.handleValidateField,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("validate-step",
			mcp.WithDescription("Validate every field of one step and return the error map"),
			flowArg,
			mcp.WithString("step", mcp.Required(), mcp.Description("Step id or 1-based step number")),
			mcp.WithObject("data", mcp.Description("Field values keyed by field name")),
		),
		s.handleValidateStep,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("derive",
			mcp.WithDescription("Compute the derived fields (estimated profit, market score) for the given data"),
			flowArg,
			mcp.WithObject("data", mcp.Required(), mcp.Description("Field values keyed by field name")),
		),
		s.handleDerive,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("submit-request",
			mcp.WithDescription("Walk the wizard with the given data and submit it. Pass id to update an existing request"),
			flowArg,
			mcp.WithObject("data", mcp.Required(), mcp.Description("Field values keyed by field name")),
			mcp.WithString("id", mcp.Description("Existing request id to update")),
		),
		s.handleSubmitRequest,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get-request",
			mcp.WithDescription("Fetch a stored request as JSON, or as a markdown summary"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Request id")),
			mcp.WithBoolean("summary", mcp.Description("Return the markdown review summary instead of JSON")),
		),
		s.handleGetRequest,
	)

	statuses := make([]string, len(requests.Statuses))
	for i, st := range requests.Statuses {
		statuses[i] = string(st)
	}

	s.mcpServer.AddTool(
		mcp.NewTool("list-requests",
			mcp.WithDescription("List stored requests, newest first"),
			mcp.WithString("status", mcp.Description("Filter by status"), mcp.Enum(statuses...)),
			mcp.WithString("flow", mcp.Description("Filter by flow")),
		),
		s.handleListRequests,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set-status",
			mcp.WithDescription("Move a request to another status"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Request id")),
			mcp.WithString("status", mcp.Required(), mcp.Description("New status"), mcp.Enum(statuses...)),
		),
		s.handleSetStatus,
	)
}
