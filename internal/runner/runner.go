// Package runner drives complete test scenarios against the remote API and
// assembles the analyzed report for each run.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/biometriqa/harness/internal/anomaly"
	"github.com/biometriqa/harness/internal/api"
	"github.com/biometriqa/harness/internal/client"
	"github.com/biometriqa/harness/internal/domain"
	"github.com/biometriqa/harness/internal/recorder"
	"github.com/biometriqa/harness/internal/report"
)

// Runner executes scenarios. One runner per test invocation; it shares
// nothing with concurrent runners except the client's token cache.
type Runner struct {
	enrollment *api.Enrollment
	auth       *api.Authentication
	shapes     *recorder.Registry
	engine     *anomaly.Engine
	policy     anomaly.Policy
	logger     *slog.Logger
}

// New creates a runner over the given client.
func New(c *client.Client, policy anomaly.Policy, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		enrollment: api.NewEnrollment(c),
		auth:       api.NewAuthentication(c),
		shapes:     recorder.NewRegistry(),
		engine:     anomaly.New(logger),
		policy:     policy,
		logger:     logger,
	}
}

// EnrollmentOptions configures one enrollment scenario.
type EnrollmentOptions struct {
	// Identity is generated when nil.
	Identity *api.TestIdentity

	// FaceFrames are the captured liveness frames submitted to addFace.
	FaceFrames []map[string]any

	// DocumentPayload, when set, is submitted to addDocumentOCR after the
	// face step.
	DocumentPayload map[string]any

	// ExpectedOutcome is the categorical outcome the scenario author
	// expects, recorded on the report.
	ExpectedOutcome string
}

// EnrollmentFlow runs enroll -> addFace [-> addDocumentOCR], analyzing each
// response. The verdict fails on any critical finding.
func (r *Runner) EnrollmentFlow(ctx context.Context, testName string, opts EnrollmentOptions) (*report.Report, error) {
	rep := report.New(testName, opts.ExpectedOutcome)

	identity := opts.Identity
	if identity == nil {
		var err error
		identity, err = api.NewTestIdentity()
		if err != nil {
			return nil, err
		}
	}
	rep.Metadata["username"] = identity.Username

	// Step 1: initiate enrollment.
	outcome, err := r.enrollment.Enroll(ctx, map[string]any{
		"username":    identity.Username,
		"email":       identity.Email,
		"phoneNumber": identity.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	tx := r.record(recorder.FamilyEnrollment, outcome, rep)
	token := outcome.StringAt("enrollmentToken")
	if token == "" {
		r.logger.Error("enrollment returned no token",
			slog.String("step", tx.StepName),
			slog.Int("status", outcome.StatusCode),
		)
		rep.ActualOutcome = "ENROLLMENT_FAILED"
		r.finalize(rep)
		return rep, nil
	}

	// Step 2: submit face liveness frames.
	payload := api.EnrollmentPayload(token,
		api.FaceLivenessPayload(identity.Username, opts.FaceFrames), nil, nil)
	outcome, err = r.enrollment.AddFace(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("addFace: %w", err)
	}
	faceTx := r.record(recorder.FamilyFace, outcome, rep)
	rep.ActualOutcome = string(faceTx.Status)

	// Step 3 (optional): document OCR.
	if opts.DocumentPayload != nil {
		docPayload := map[string]any{"enrollmentToken": token}
		for k, v := range opts.DocumentPayload {
			docPayload[k] = v
		}
		outcome, err = r.enrollment.AddDocumentOCR(ctx, docPayload)
		if err != nil {
			return nil, fmt.Errorf("addDocumentOCR: %w", err)
		}
		docTx := r.record(recorder.FamilyDocumentOCR, outcome, rep)
		rep.ActualOutcome = string(docTx.Status)
	}

	r.finalize(rep)
	return rep, nil
}

// AuthenticationOptions configures one authentication scenario.
type AuthenticationOptions struct {
	Username   string
	FaceFrames []map[string]any

	// ExpectedResult is the authenticationResult the scenario expects,
	// e.g. PASS or FAIL.
	ExpectedResult string
}

// AuthenticationFlow runs authenticate -> verifyFace, analyzing the
// verification response against the expected result.
func (r *Runner) AuthenticationFlow(ctx context.Context, testName string, opts AuthenticationOptions) (*report.Report, error) {
	rep := report.New(testName, opts.ExpectedResult)
	rep.Metadata["username"] = opts.Username

	outcome, err := r.auth.Initiate(ctx, opts.Username)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	authToken := outcome.StringAt("authToken")
	if authToken == "" {
		rep.ActualOutcome = "AUTHENTICATION_NOT_STARTED"
		r.finalize(rep)
		return rep, nil
	}

	outcome, err = r.auth.VerifyFace(ctx, authToken,
		api.FaceLivenessPayload(opts.Username, opts.FaceFrames))
	if err != nil {
		return nil, fmt.Errorf("verifyFace: %w", err)
	}

	shape, err := r.shapes.Shape(recorder.FamilyAuthentication)
	if err != nil {
		return nil, err
	}
	tx := recorder.Record(shape, outcome)
	if opts.ExpectedResult != "" {
		tx.Data[domain.DataExpectedResult] = opts.ExpectedResult
	}
	r.engine.Evaluate(tx, r.policy)
	rep.AddTransaction(tx)
	rep.ActualOutcome = outcome.StringAt("authenticationResult")

	r.finalize(rep)
	return rep, nil
}

// record converts an outcome, runs the rules, and appends the transaction.
func (r *Runner) record(family string, outcome *client.Outcome, rep *report.Report) *domain.Transaction {
	shape, err := r.shapes.Shape(family)
	if err != nil {
		// Built-in families are always registered; reaching this is a
		// programming error.
		panic(err)
	}
	tx := recorder.Record(shape, outcome)
	r.engine.Evaluate(tx, r.policy)
	rep.AddTransaction(tx)
	return tx
}

// finalize stamps the verdict: passed unless a critical finding exists.
func (r *Runner) finalize(rep *report.Report) {
	summary := report.Assemble(rep)
	rep.Finalize(summary.Success)
}
