package storage

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

func integrationBackends(t *testing.T) model.Backends {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}
	tempDir, err := os.MkdirTemp("", "asr-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })

	backends, err := LoadBackends(
		Config{
			Driver:  DriverSQLite,
			DataDir: tempDir,
		},
	)
	if err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	return backends
}

// TestSQLiteConnection tests connecting to a SQLite database
func TestSQLiteConnection(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	tempDir, err := os.MkdirTemp("", "asr-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	config := Config{
		Driver:  DriverSQLite,
		DataDir: tempDir,
	}

	db, err := Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to SQLite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB: %v", err)
	}

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Failed to ping SQLite database: %v", err)
	}
}

// TestMySQLConnection tests connecting to a MySQL database
func TestMySQLConnection(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL test. Set MYSQL_DSN environment variable")
	}

	config := Config{
		Driver: DriverMySQL,
		DSN:    dsn,
	}

	db, err := Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to MySQL database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB: %v", err)
	}

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Failed to ping MySQL database: %v", err)
	}
}

func TestEntityLifecycle(t *testing.T) {
	backends := integrationBackends(t)
	now := time.Now().Unix()

	entity := &model.LegalEntity{
		ID:             "entity-1",
		Domain:         "carrier.example.com",
		Name:           "Example Carrier B.V.",
		RegistryNumber: "12345678",
		Tier:           model.Tier3,
	}
	if err := backends.Entities.Create(entity); err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}
	if err := backends.Entities.Create(
		&model.LegalEntity{ID: "entity-2", Domain: "carrier.example.com"},
	); err == nil {
		t.Fatal("A duplicate domain must be rejected")
	}

	due := now + 90*24*3600
	updated, err := backends.Entities.ApplyVerification(
		"entity-1", model.Tier2, model.VerificationMethodDNS, now, &due,
	)
	if err != nil {
		t.Fatalf("Failed to apply verification: %v", err)
	}
	if updated.Tier != model.Tier2 || updated.ReverificationDue == nil {
		t.Fatal("Verification did not persist")
	}

	byDomain, err := backends.Entities.ByDomain("carrier.example.com")
	if err != nil {
		t.Fatalf("Failed to look up by domain: %v", err)
	}
	if byDomain.ID != "entity-1" {
		t.Fatalf("Unexpected entity %s", byDomain.ID)
	}
}

func TestEntityDowngrade(t *testing.T) {
	backends := integrationBackends(t)
	now := time.Now().Unix()

	entity := &model.LegalEntity{ID: "entity-1", Domain: "carrier.example.com"}
	if err := backends.Entities.Create(entity); err != nil {
		t.Fatal(err)
	}
	overdue := now - 3600
	if _, err := backends.Entities.ApplyVerification(
		"entity-1", model.Tier2, model.VerificationMethodDNS, now-91*24*3600, &overdue,
	); err != nil {
		t.Fatal(err)
	}

	listed, err := backends.Entities.DueForReverification(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected one overdue entity, got %d", len(listed))
	}

	downgraded, err := backends.Entities.Downgrade("entity-1", now)
	if err != nil {
		t.Fatal(err)
	}
	if !downgraded {
		t.Fatal("The overdue entity must be downgraded")
	}
	// A second sweep over the same entity changes nothing.
	downgraded, err = backends.Entities.Downgrade("entity-1", now)
	if err != nil {
		t.Fatal(err)
	}
	if downgraded {
		t.Fatal("A downgraded entity must not be downgraded again")
	}
	entityAfter, err := backends.Entities.ByID("entity-1")
	if err != nil {
		t.Fatal(err)
	}
	if entityAfter.Tier != model.Tier3 || entityAfter.ReverificationDue != nil {
		t.Fatal("Downgrade did not persist")
	}
}

func TestOrchestrationParticipants(t *testing.T) {
	backends := integrationBackends(t)

	orchestration := &model.Orchestration{
		OrderReference:     "ORD-2026-001",
		OrchestratorDomain: "tms.example.com",
		CustomerDomain:     "shipper.example.org",
	}
	if err := backends.Orchestrations.Create(orchestration); err != nil {
		t.Fatalf("Failed to create orchestration: %v", err)
	}
	if err := backends.Orchestrations.Create(
		&model.Orchestration{OrderReference: "ORD-2026-001"},
	); err == nil {
		t.Fatal("A duplicate order reference must be rejected")
	}

	participant := &model.OrchestrationParticipant{
		OrchestrationID: orchestration.ID,
		Domain:          "carrier.example.com",
		Role:            "Carrier",
		AuthorizedBy:    "tms.example.com",
	}
	if err := backends.Orchestrations.AddParticipant(participant); err != nil {
		t.Fatalf("Failed to add participant: %v", err)
	}
	duplicate := &model.OrchestrationParticipant{
		OrchestrationID: orchestration.ID,
		Domain:          "carrier.example.com",
		Role:            "Carrier",
	}
	if err := backends.Orchestrations.AddParticipant(duplicate); err == nil {
		t.Fatal("The same domain and role cannot be registered twice")
	}

	active, err := backends.Orchestrations.ActiveParticipant(orchestration.ID, "carrier.example.com")
	if err != nil {
		t.Fatalf("Failed to resolve active participant: %v", err)
	}
	if active.Role != "Carrier" {
		t.Fatalf("Unexpected role %s", active.Role)
	}

	if err := backends.Orchestrations.RemoveParticipant(participant.ID); err != nil {
		t.Fatalf("Failed to remove participant: %v", err)
	}
	if _, err := backends.Orchestrations.ActiveParticipant(orchestration.ID, "carrier.example.com"); err == nil {
		t.Fatal("A removed participant must not resolve as active")
	}
	// Re-registering after removal is allowed.
	if err := backends.Orchestrations.AddParticipant(duplicate); err != nil {
		t.Fatalf("Failed to re-register participant: %v", err)
	}
}

func TestOrchestrationTerminalStatus(t *testing.T) {
	backends := integrationBackends(t)

	orchestration := &model.Orchestration{OrderReference: "ORD-2026-002", OrchestratorDomain: "tms.example.com"}
	if err := backends.Orchestrations.Create(orchestration); err != nil {
		t.Fatal(err)
	}
	if err := backends.Orchestrations.SetStatus(orchestration.ID, model.StatusCompleted); err != nil {
		t.Fatalf("Failed to complete orchestration: %v", err)
	}

	err := backends.Orchestrations.SetStatus(orchestration.ID, model.StatusActive)
	var terminal model.TerminalStateError
	if !errors.As(err, &terminal) {
		t.Fatalf("Expected TerminalStateError, got %v", err)
	}
	err = backends.Orchestrations.AddParticipant(
		&model.OrchestrationParticipant{
			OrchestrationID: orchestration.ID,
			Domain:          "carrier.example.com",
			Role:            "Carrier",
		},
	)
	if !errors.As(err, &terminal) {
		t.Fatalf("Expected TerminalStateError on participant add, got %v", err)
	}
}

func TestTokenRecordLifecycle(t *testing.T) {
	backends := integrationBackends(t)
	now := time.Now().Unix()

	record := &model.IssuedTokenRecord{
		JTI:       "jti-1",
		Kind:      model.TokenKindAssurance,
		Issuer:    "https://registry.example.nl",
		Subject:   "carrier.example.com",
		Audience:  []string{"port.example.net"},
		IssuedAt:  now,
		NotBefore: now,
		ExpiresAt: now + 3600,
		TokenHash: "deadbeef",
		Claims:    map[string]any{"tier": 2},
	}
	if err := backends.Tokens.Create(record); err != nil {
		t.Fatalf("Failed to create token record: %v", err)
	}
	if err := backends.Tokens.Create(record); err == nil {
		t.Fatal("A duplicate token id must be rejected")
	}

	if err := backends.Tokens.RecordUsage("jti-1", "port.example.net", now+10); err != nil {
		t.Fatalf("Failed to record usage: %v", err)
	}
	if err := backends.Tokens.Revoke("jti-1", "compromised", now+20); err != nil {
		t.Fatalf("Failed to revoke: %v", err)
	}
	if err := backends.Tokens.Revoke("jti-1", "again", now+30); err != nil {
		t.Fatalf("Revoking twice must be a no-op: %v", err)
	}

	stored, err := backends.Tokens.Get("jti-1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.UsageCount != 1 || stored.LastUsedBy != "port.example.net" {
		t.Fatal("Usage was not recorded")
	}
	if !stored.Revoked || stored.RevocationReason != "compromised" {
		t.Fatal("Revocation was not recorded or the first reason did not stick")
	}
}

func TestValidationLogQueries(t *testing.T) {
	backends := integrationBackends(t)
	now := time.Now().Unix()

	orchestrationID := uint(7)
	entries := []*model.ValidationLogEntry{
		{TokenJTI: "jti-1", Requester: "port.example.net", CheckedAt: now, Result: model.ResultValid},
		{
			TokenJTI: "jti-2", OrchestrationID: &orchestrationID,
			Requester: "customs.example.gov", CheckedAt: now + 1, Result: model.ResultRevoked,
		},
	}
	for _, entry := range entries {
		if err := backends.ValidationLog.Append(entry); err != nil {
			t.Fatalf("Failed to append log entry: %v", err)
		}
	}

	count, err := backends.ValidationLog.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 entries, got %d", count)
	}

	forOrchestration, err := backends.ValidationLog.ForOrchestration(orchestrationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(forOrchestration) != 1 || forOrchestration[0].TokenJTI != "jti-2" {
		t.Fatal("Orchestration query returned the wrong entries")
	}

	forToken, err := backends.ValidationLog.ForToken("jti-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(forToken) != 1 || forToken[0].Result != model.ResultValid {
		t.Fatal("Token query returned the wrong entries")
	}
}

func TestSystemsAuthentication(t *testing.T) {
	backends := integrationBackends(t)

	system := &model.ExternalSystem{
		Domain:     "tms.example.com",
		Name:       "Example TMS",
		Operations: []model.Operation{model.OperationIssue, model.OperationValidate},
		Active:     true,
		Approved:   true,
	}
	apiKey, err := backends.Systems.Create(system)
	if err != nil {
		t.Fatalf("Failed to create system: %v", err)
	}
	if apiKey == "" {
		t.Fatal("Creation must return the api key")
	}

	authenticated, err := backends.Systems.Authenticate(apiKey)
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}
	if authenticated.Domain != "tms.example.com" {
		t.Fatalf("Unexpected system %s", authenticated.Domain)
	}
	if !authenticated.MayPerform(model.OperationIssue) {
		t.Fatal("Operations were not persisted")
	}
	if _, err = backends.Systems.Authenticate("wrong-key"); err == nil {
		t.Fatal("A wrong key must not authenticate")
	}

	if err = backends.Systems.SetActive("tms.example.com", false); err != nil {
		t.Fatal(err)
	}
	deactivated, err := backends.Systems.Authenticate(apiKey)
	if err != nil {
		t.Fatalf("Authentication resolves the record: %v", err)
	}
	if deactivated.MayPerform(model.OperationIssue) {
		t.Fatal("A deactivated system holds no grants")
	}
}

func TestKeyValuePolicies(t *testing.T) {
	backends := integrationBackends(t)

	lifetime, err := GetTokenLifetime(backends.KV)
	if err != nil {
		t.Fatal(err)
	}
	if lifetime != DefaultTokenLifetime {
		t.Fatalf("Expected the default lifetime, got %v", lifetime)
	}
	if err = SetTokenLifetime(backends.KV, 30*time.Minute); err != nil {
		t.Fatal(err)
	}
	lifetime, err = GetTokenLifetime(backends.KV)
	if err != nil {
		t.Fatal(err)
	}
	if lifetime != 30*time.Minute {
		t.Fatalf("Expected 30m, got %v", lifetime)
	}

	ceiling, err := GetRateCeiling(backends.KV)
	if err != nil {
		t.Fatal(err)
	}
	if ceiling != DefaultRateCeiling {
		t.Fatalf("Expected the default ceiling, got %d", ceiling)
	}
	if err = SetRateCeiling(backends.KV, 10); err != nil {
		t.Fatal(err)
	}
	ceiling, err = GetRateCeiling(backends.KV)
	if err != nil {
		t.Fatal(err)
	}
	if ceiling != 10 {
		t.Fatalf("Expected 10, got %d", ceiling)
	}
}

func TestUsersStore(t *testing.T) {
	backends := integrationBackends(t)

	count, err := backends.Users.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("Expected an empty users table, got %d", count)
	}

	if _, err = backends.Users.Create("admin", "s3cret", "Administrator"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if _, err = backends.Users.Authenticate("admin", "s3cret"); err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}
	if _, err = backends.Users.Authenticate("admin", "wrong"); err == nil {
		t.Fatal("A wrong password must not authenticate")
	}
}
