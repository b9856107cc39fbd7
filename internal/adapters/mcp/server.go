package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dkrasniqi/campus-assistant/internal/config"
	"github.com/dkrasniqi/campus-assistant/internal/core/ports"
)

// Server exposes the retrieval engine as MCP tools so agent runtimes can
// pull grounded campus context over stdio.
type Server struct {
	cfg       config.Config
	retriever ports.ContextRetriever
	askUC     ports.QuestionAnswerer
}

func NewServer(cfg config.Config, retriever ports.ContextRetriever, askUC ports.QuestionAnswerer) *Server {
	return &Server{
		cfg:       cfg,
		retriever: retriever,
		askUC:     askUC,
	}
}

func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("campus-assistant", "1.0.0", server.WithToolCapabilities(false))

	retrieveTool := mcp.NewTool("retrieve_context",
		mcp.WithDescription("Retrieve budgeted context and citations from the university document corpus using hybrid dense and keyword search."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language search query.")),
		mcp.WithNumber("k", mcp.Description("Maximum number of chunks to return.")),
		mcp.WithNumber("semantic_weight", mcp.Description("Blend between dense (1.0) and keyword (0.0) scores.")),
		mcp.WithNumber("max_context_chars", mcp.Description("Character budget for the assembled context.")),
	)
	srv.AddTool(retrieveTool, s.handleRetrieve)

	askTool := mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a student question grounded in the university document corpus, with citations."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The student's question.")),
	)
	srv.AddTool(askTool, s.handleAsk)

	return srv
}

func (s *Server) handleRetrieve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	k := request.GetInt("k", s.cfg.RetrievalTopK)
	weight := request.GetFloat("semantic_weight", s.cfg.SemanticWeight)
	maxChars := request.GetInt("max_context_chars", s.cfg.MaxContextChars)

	result, err := s.retriever.Retrieve(ctx, query, k, weight, maxChars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieve: %v", err)), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal retrieval result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.askUC.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask: %v", err)), nil
	}

	payload, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("marshal answer: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
