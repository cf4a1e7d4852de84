package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

// ClaimsRepository serves the relational records behind the verification
// step's tool calls: insured members, patients, claims and their service
// lines.
type ClaimsRepository struct {
	db *sql.DB
}

func NewClaimsRepository(db *sql.DB) *ClaimsRepository {
	return &ClaimsRepository{db: db}
}

func (r *ClaimsRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS insured_person (
	insured_id BIGSERIAL PRIMARY KEY,
	insured_name TEXT NOT NULL,
	insured_group_number TEXT,
	insured_plan_name TEXT,
	insured_birth_date DATE,
	insured_policy_number TEXT NOT NULL UNIQUE,
	phone_number TEXT,
	address TEXT
);

CREATE TABLE IF NOT EXISTS patient (
	patient_id BIGSERIAL PRIMARY KEY,
	insured_id BIGINT NOT NULL REFERENCES insured_person(insured_id),
	patient_firstname TEXT NOT NULL,
	patient_lastname TEXT NOT NULL,
	patient_birth_date DATE NOT NULL,
	relationship_to_insured TEXT,
	phone_number TEXT,
	sex TEXT,
	address TEXT
);

CREATE TABLE IF NOT EXISTS claim (
	claim_id BIGSERIAL PRIMARY KEY,
	patient_id BIGINT NOT NULL REFERENCES patient(patient_id),
	claim_date DATE NOT NULL,
	diagnosis_1 TEXT NOT NULL,
	diagnosis_2 TEXT,
	diagnosis_3 TEXT,
	diagnosis_4 TEXT,
	total_charges NUMERIC(12,2) NOT NULL DEFAULT 0,
	balance_due NUMERIC(12,2) NOT NULL DEFAULT 0,
	amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
	claim_status TEXT NOT NULL DEFAULT 'NEW'
);

CREATE TABLE IF NOT EXISTS service (
	service_id BIGSERIAL PRIMARY KEY,
	claim_id BIGINT NOT NULL REFERENCES claim(claim_id),
	date_of_service DATE NOT NULL,
	place_of_service TEXT,
	type_of_service TEXT,
	procedure_code TEXT,
	amount NUMERIC(12,2) NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_patient_lookup ON patient(insured_id, patient_lastname, patient_birth_date);
CREATE INDEX IF NOT EXISTS idx_service_claim ON service(claim_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ClaimsRepository) GetMemberByPolicyNumber(ctx context.Context, policyNumber string) (*domain.InsuredMember, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT insured_id, insured_name, insured_group_number, insured_plan_name, insured_birth_date, insured_policy_number, phone_number, address
FROM insured_person
WHERE insured_policy_number = $1
`, policyNumber)

	var member domain.InsuredMember
	err := row.Scan(
		&member.InsuredID, &member.Name, &member.GroupNumber, &member.PlanName,
		&member.BirthDate, &member.PolicyNumber, &member.PhoneNumber, &member.Address,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrMemberNotFound, "get member",
				fmt.Errorf("policy number %s", policyNumber))
		}
		return nil, fmt.Errorf("scan insured member: %w", err)
	}
	return &member, nil
}

func (r *ClaimsRepository) GetPatient(ctx context.Context, policyNumber, lastName, birthDate string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT p.patient_id, i.insured_id, p.patient_firstname, p.patient_lastname, p.patient_birth_date,
       p.relationship_to_insured, p.phone_number, p.sex, p.address
FROM patient p
JOIN insured_person i ON i.insured_id = p.insured_id
WHERE i.insured_policy_number = $1
  AND p.patient_lastname = $2
  AND p.patient_birth_date = TO_DATE($3, 'YYYY-MM-DD')
`, policyNumber, lastName, birthDate)

	var patient domain.Patient
	err := row.Scan(
		&patient.PatientID, &patient.InsuredID, &patient.FirstName, &patient.LastName,
		&patient.BirthDate, &patient.RelationshipToInsured, &patient.PhoneNumber,
		&patient.Sex, &patient.Address,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPatientNotFound, "get patient",
				fmt.Errorf("last name %s, birth date %s", lastName, birthDate))
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &patient, nil
}

// CreateClaim inserts the claim and its service lines in one transaction and
// returns the new claim id.
func (r *ClaimsRepository) CreateClaim(ctx context.Context, claim *domain.ClaimRecord, lines []domain.ServiceLine) (int64, error) {
	if err := claim.Validate(); err != nil {
		return 0, err
	}
	if claim.Status == "" {
		claim.Status = domain.ClaimStatusNew
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	diagnoses := make([]sql.NullString, 4)
	for i, code := range claim.Diagnoses {
		diagnoses[i] = sql.NullString{String: code, Valid: true}
	}

	var claimID int64
	row := tx.QueryRowContext(ctx, `
INSERT INTO claim (patient_id, claim_date, diagnosis_1, diagnosis_2, diagnosis_3, diagnosis_4, total_charges, balance_due, amount_paid, claim_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING claim_id
`,
		claim.PatientID, claim.ClaimDate, diagnoses[0], diagnoses[1], diagnoses[2], diagnoses[3],
		claim.TotalCharges, claim.BalanceDue, claim.AmountPaid, string(claim.Status),
	)
	if err := row.Scan(&claimID); err != nil {
		return 0, fmt.Errorf("insert claim: %w", err)
	}

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO service (claim_id, date_of_service, place_of_service, type_of_service, procedure_code, amount)
VALUES ($1, $2, $3, $4, $5, $6)
`,
			claimID, line.DateOfService, line.PlaceOfService, line.TypeOfService,
			line.ProcedureCode, line.Amount,
		); err != nil {
			return 0, fmt.Errorf("insert service line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit claim tx: %w", err)
	}
	claim.ClaimID = claimID
	return claimID, nil
}

// UpdateClaimStatus sets the claim's terminal status exactly once; a claim
// already in a terminal state is left untouched.
func (r *ClaimsRepository) UpdateClaimStatus(ctx context.Context, claimID int64, status domain.ClaimStatus) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE claim
SET claim_status = $2
WHERE claim_id = $1
  AND claim_status NOT IN ($3, $4)
`, claimID, string(status), string(domain.ClaimStatusApproved), string(domain.ClaimStatusAdjudicatorReview))
	if err != nil {
		return fmt.Errorf("update claim status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update claim status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrClaimNotFound, "update claim status",
			fmt.Errorf("claim %d absent or already terminal", claimID))
	}
	return nil
}
