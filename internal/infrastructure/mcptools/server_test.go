package mcptools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/observability/logging"
)

type claimStoreFake struct {
	member   *domain.InsuredMember
	patient  *domain.Patient
	claimID  int64
	err      error
	created  *domain.ClaimRecord
	lines    []domain.ServiceLine
	statuses map[int64]domain.ClaimStatus
}

func (f *claimStoreFake) GetMemberByPolicyNumber(_ context.Context, policyNumber string) (*domain.InsuredMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.member, nil
}

func (f *claimStoreFake) GetPatient(_ context.Context, policyNumber, lastName, birthDate string) (*domain.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.patient, nil
}

func (f *claimStoreFake) CreateClaim(_ context.Context, claim *domain.ClaimRecord, lines []domain.ServiceLine) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = claim
	f.lines = lines
	return f.claimID, nil
}

func (f *claimStoreFake) UpdateClaimStatus(_ context.Context, claimID int64, status domain.ClaimStatus) error {
	if f.err != nil {
		return f.err
	}
	if f.statuses == nil {
		f.statuses = map[int64]domain.ClaimStatus{}
	}
	f.statuses[claimID] = status
	return nil
}

type storageFake struct {
	objects map[string][]byte
}

func (f *storageFake) Save(_ context.Context, loc domain.ObjectLocation, data io.Reader) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[loc.URI()] = body
	return nil
}

func (f *storageFake) Open(_ context.Context, loc domain.ObjectLocation) (io.ReadCloser, error) {
	body, ok := f.objects[loc.URI()]
	if !ok {
		return nil, domain.WrapError(domain.ErrMissingOutput, "open object", errors.New("no such object"))
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func newTestServer(claims *claimStoreFake, storage *storageFake) *Server {
	return NewServer(claims, storage, logging.NewJSONLogger("test", "error"))
}

func TestGetMemberDetailsReturnsMemberJSON(t *testing.T) {
	claims := &claimStoreFake{member: &domain.InsuredMember{
		InsuredID:    7,
		Name:         "Jan Kowalski",
		PolicyNumber: "POL-1",
	}}
	srv := newTestServer(claims, &storageFake{})

	result, err := srv.getMemberDetails(context.Background(), toolRequest(map[string]any{"policy_number": "POL-1"}))
	if err != nil {
		t.Fatalf("getMemberDetails() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var member domain.InsuredMember
	if err := json.Unmarshal([]byte(resultText(t, result)), &member); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if member.InsuredID != 7 || member.PolicyNumber != "POL-1" {
		t.Fatalf("member = %+v", member)
	}
}

func TestGetMemberDetailsReportsLookupFailure(t *testing.T) {
	claims := &claimStoreFake{err: domain.WrapError(domain.ErrMemberNotFound, "get member", errors.New("no rows"))}
	srv := newTestServer(claims, &storageFake{})

	result, err := srv.getMemberDetails(context.Background(), toolRequest(map[string]any{"policy_number": "missing"}))
	if err != nil {
		t.Fatalf("getMemberDetails() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error result")
	}
}

func TestGetPatientRejectsBadBirthDate(t *testing.T) {
	srv := newTestServer(&claimStoreFake{patient: &domain.Patient{PatientID: 1}}, &storageFake{})

	result, err := srv.getPatient(context.Background(), toolRequest(map[string]any{
		"policy_number": "POL-1",
		"last_name":     "Kowalski",
		"birth_date":    "01/02/1980",
	}))
	if err != nil {
		t.Fatalf("getPatient() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for bad date")
	}
}

func TestCreateClaimPersistsRecordAndLines(t *testing.T) {
	claims := &claimStoreFake{claimID: 42}
	srv := newTestServer(claims, &storageFake{})

	result, err := srv.createClaim(context.Background(), toolRequest(map[string]any{
		"patient_id":    float64(9),
		"claim_date":    "2026-05-30",
		"diagnoses":     []any{"J06.9", "R50.9"},
		"total_charges": 310.50,
		"service_lines": []any{
			map[string]any{
				"date_of_service":  "2026-05-28",
				"place_of_service": "11",
				"procedure_code":   "99213",
				"amount":           185.00,
			},
		},
	}))
	if err != nil {
		t.Fatalf("createClaim() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "42") {
		t.Fatalf("result should carry the new claim id, got %s", resultText(t, result))
	}

	if claims.created == nil || claims.created.PatientID != 9 || claims.created.Status != domain.ClaimStatusNew {
		t.Fatalf("created = %+v", claims.created)
	}
	if len(claims.created.Diagnoses) != 2 {
		t.Fatalf("diagnoses = %v", claims.created.Diagnoses)
	}
	if len(claims.lines) != 1 || claims.lines[0].ProcedureCode != "99213" {
		t.Fatalf("lines = %+v", claims.lines)
	}
	if claims.lines[0].DateOfService != time.Date(2026, 5, 28, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("date of service = %v", claims.lines[0].DateOfService)
	}
}

func TestCreateClaimRejectsTooManyDiagnoses(t *testing.T) {
	srv := newTestServer(&claimStoreFake{claimID: 1}, &storageFake{})

	result, err := srv.createClaim(context.Background(), toolRequest(map[string]any{
		"patient_id":    float64(9),
		"claim_date":    "2026-05-30",
		"diagnoses":     []any{"a", "b", "c", "d", "e"},
		"total_charges": 10.0,
	}))
	if err != nil {
		t.Fatalf("createClaim() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected validation error for five diagnoses")
	}
}

func TestUpdateClaimStatus(t *testing.T) {
	claims := &claimStoreFake{}
	srv := newTestServer(claims, &storageFake{})

	result, err := srv.updateClaimStatus(context.Background(), toolRequest(map[string]any{
		"claim_id": float64(42),
		"status":   "APPROVED",
	}))
	if err != nil {
		t.Fatalf("updateClaimStatus() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if claims.statuses[42] != domain.ClaimStatusApproved {
		t.Fatalf("statuses = %v", claims.statuses)
	}
}

func TestGetClaimsFormDataReadsStoredObject(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"s3://review/c123/form.pdf.json": []byte(`{"patient_lastname":"Kowalski"}`),
	}}
	srv := newTestServer(&claimStoreFake{}, storage)

	result, err := srv.getClaimsFormData(context.Background(), toolRequest(map[string]any{
		"uri": "s3://review/c123/form.pdf.json",
	}))
	if err != nil {
		t.Fatalf("getClaimsFormData() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "Kowalski") {
		t.Fatalf("result = %s", resultText(t, result))
	}
}

func TestGetClaimsFormDataRejectsNonObjectURI(t *testing.T) {
	srv := newTestServer(&claimStoreFake{}, &storageFake{})

	result, err := srv.getClaimsFormData(context.Background(), toolRequest(map[string]any{
		"uri": "https://example.com/form.pdf.json",
	}))
	if err != nil {
		t.Fatalf("getClaimsFormData() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected error for non-object uri")
	}
}
