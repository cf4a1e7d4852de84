// Package mcptools exposes the verification agent's tool surface over the
// Model Context Protocol. The tools mirror what the agent needs while
// reviewing a claim: reference-data lookups, claim creation, and access to
// the extracted form data.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

const dateLayout = "2006-01-02"

type Server struct {
	mcp     *server.MCPServer
	claims  ports.ClaimStore
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewServer(claims ports.ClaimStore, storage ports.ObjectStorage, logger *slog.Logger) *Server {
	s := &Server{
		mcp:     server.NewMCPServer("claims-review-tools", "1.0.0", server.WithToolCapabilities(false)),
		claims:  claims,
		storage: storage,
		logger:  logger,
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving the tool protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("get_member_details",
		mcp.WithDescription("Look up the insured member for a policy number."),
		mcp.WithString("policy_number", mcp.Required(), mcp.Description("Policy number from the claim form.")),
	), s.getMemberDetails)

	s.mcp.AddTool(mcp.NewTool("get_patient",
		mcp.WithDescription("Look up a patient by policy number, last name and birth date."),
		mcp.WithString("policy_number", mcp.Required()),
		mcp.WithString("last_name", mcp.Required()),
		mcp.WithString("birth_date", mcp.Required(), mcp.Description("YYYY-MM-DD")),
	), s.getPatient)

	s.mcp.AddTool(mcp.NewTool("create_claim",
		mcp.WithDescription("Create a claim record with its service lines once the form data has been verified."),
		mcp.WithNumber("patient_id", mcp.Required()),
		mcp.WithString("claim_date", mcp.Required(), mcp.Description("YYYY-MM-DD")),
		mcp.WithArray("diagnoses", mcp.Required(), mcp.Description("One to four diagnosis codes."),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("total_charges", mcp.Required()),
		mcp.WithNumber("amount_paid"),
		mcp.WithNumber("balance_due"),
		mcp.WithArray("service_lines",
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date_of_service":  map[string]any{"type": "string"},
					"place_of_service": map[string]any{"type": "string"},
					"type_of_service":  map[string]any{"type": "string"},
					"procedure_code":   map[string]any{"type": "string"},
					"amount":           map[string]any{"type": "number"},
				},
			})),
	), s.createClaim)

	s.mcp.AddTool(mcp.NewTool("update_claim_status",
		mcp.WithDescription("Move a claim to a new status. Terminal statuses cannot be changed."),
		mcp.WithNumber("claim_id", mcp.Required()),
		mcp.WithString("status", mcp.Required(),
			mcp.Enum("NEW", "IN_PROGRESS", "APPROVED", "ADJUDICATOR_REVIEW")),
	), s.updateClaimStatus)

	s.mcp.AddTool(mcp.NewTool("get_claims_form_data",
		mcp.WithDescription("Read the extracted claim form data at an s3:// URI."),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Location of the extraction result, e.g. s3://bucket/key.json.")),
	), s.getClaimsFormData)
}

func (s *Server) getMemberDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policyNumber, err := req.RequireString("policy_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	member, err := s.claims.GetMemberByPolicyNumber(ctx, policyNumber)
	if err != nil {
		return s.toolError("get_member_details", err), nil
	}
	return jsonResult(member)
}

func (s *Server) getPatient(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policyNumber, err := req.RequireString("policy_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lastName, err := req.RequireString("last_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	birthDate, err := req.RequireString("birth_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := time.Parse(dateLayout, birthDate); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("birth_date must be YYYY-MM-DD: %v", err)), nil
	}

	patient, err := s.claims.GetPatient(ctx, policyNumber, lastName, birthDate)
	if err != nil {
		return s.toolError("get_patient", err), nil
	}
	return jsonResult(patient)
}

type createClaimArgs struct {
	PatientID    int64    `json:"patient_id"`
	ClaimDate    string   `json:"claim_date"`
	Diagnoses    []string `json:"diagnoses"`
	TotalCharges float64  `json:"total_charges"`
	AmountPaid   float64  `json:"amount_paid"`
	BalanceDue   float64  `json:"balance_due"`
	ServiceLines []struct {
		DateOfService  string  `json:"date_of_service"`
		PlaceOfService string  `json:"place_of_service"`
		TypeOfService  string  `json:"type_of_service"`
		ProcedureCode  string  `json:"procedure_code"`
		Amount         float64 `json:"amount"`
	} `json:"service_lines"`
}

func (s *Server) createClaim(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createClaimArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	claimDate, err := time.Parse(dateLayout, args.ClaimDate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("claim_date must be YYYY-MM-DD: %v", err)), nil
	}

	record := &domain.ClaimRecord{
		PatientID:    args.PatientID,
		ClaimDate:    claimDate,
		Diagnoses:    args.Diagnoses,
		TotalCharges: args.TotalCharges,
		AmountPaid:   args.AmountPaid,
		BalanceDue:   args.BalanceDue,
		Status:       domain.ClaimStatusNew,
	}
	if err := record.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	lines := make([]domain.ServiceLine, 0, len(args.ServiceLines))
	for _, line := range args.ServiceLines {
		dateOfService, err := time.Parse(dateLayout, line.DateOfService)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("date_of_service must be YYYY-MM-DD: %v", err)), nil
		}
		lines = append(lines, domain.ServiceLine{
			DateOfService:  dateOfService,
			PlaceOfService: line.PlaceOfService,
			TypeOfService:  line.TypeOfService,
			ProcedureCode:  line.ProcedureCode,
			Amount:         line.Amount,
		})
	}

	claimID, err := s.claims.CreateClaim(ctx, record, lines)
	if err != nil {
		return s.toolError("create_claim", err), nil
	}
	return jsonResult(map[string]any{"claim_id": claimID})
}

func (s *Server) updateClaimStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	claimID, err := req.RequireInt("claim_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.claims.UpdateClaimStatus(ctx, int64(claimID), domain.ClaimStatus(status)); err != nil {
		return s.toolError("update_claim_status", err), nil
	}
	return jsonResult(map[string]any{"claim_id": claimID, "status": status})
}

func (s *Server) getClaimsFormData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := domain.ParseObjectURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reader, err := s.storage.Open(ctx, loc)
	if err != nil {
		return s.toolError("get_claims_form_data", err), nil
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return s.toolError("get_claims_form_data", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("tool call failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
