package manager

import (
	"time"

	"schemacore/pkg/schema"
)

// AuditLogger records catalog transaction outcomes.
type AuditLogger interface {
	Record(entry AuditEntry)
}

// AuditEntry captures the audit trail metadata of one transaction attempt.
type AuditEntry struct {
	Operation  string             `json:"operation"`
	Committed  bool               `json:"committed"`
	Violations []schema.Violation `json:"violations,omitempty"`
	Schemas    int                `json:"schemas"`
	Objects    int                `json:"objects"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// SetAudit attaches an audit logger. Nil disables auditing.
func (m *Manager) SetAudit(a AuditLogger) { m.audit = a }

func (m *Manager) recordAudit(operation string, committed bool, violations []schema.Violation) {
	if m.audit == nil {
		return
	}
	live := m.live.Load()
	m.audit.Record(AuditEntry{
		Operation:  operation,
		Committed:  committed,
		Violations: violations,
		Schemas:    len(live.schemas),
		Objects:    live.regs.Size(),
		OccurredAt: time.Now().UTC(),
	})
}
