package models

import (
	"fmt"
	"time"
)

// TranscriptEntry is one in-flight conversation entry accumulated during a run.
type TranscriptEntry struct {
	Role      MessageRole    `json:"role"`
	AgentRole string         `json:"agent_role,omitempty"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	At        time.Time      `json:"at"`
}

// RunLogEntry is one in-flight processing-log line accumulated during a run.
type RunLogEntry struct {
	Level    LogLevel       `json:"level"`
	Node     string         `json:"node"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
	At       time.Time      `json:"at"`
}

// FailureRecord captures one classified failure observed during a run.
type FailureRecord struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// ExecutionState is the mutable record threaded through one lead's run. It is
// created per lead, never shared across leads, and discarded once flushed.
// Accumulators are only reachable through methods so the run invariants hold
// by construction: transcript and logs are append-only, cost never decreases,
// and status only moves pending -> processing -> {completed, failed}.
type ExecutionState struct {
	CampaignLeadID string
	CampaignID     string
	LeadID         string
	TraceID        string

	Lead     LeadSnapshot
	Channels ChannelSet
	Roles    AgentRoles

	validationPassed   bool
	validationErrors   []string
	validated          bool
	message            string
	deterministicInput string
	handoffDone        bool
	cost               float64
	sent               bool
	deliveryResponse   string
	voiceCallMade      bool
	voiceCallID        string
	status             LeadStatus
	failures           []FailureRecord
	errorMessage       string
	transcript         []TranscriptEntry
	logs               []RunLogEntry
}

func NewExecutionState(campaign *Campaign, campaignLead *CampaignLead, lead *Lead) *ExecutionState {
	return &ExecutionState{
		CampaignLeadID: campaignLead.ID,
		CampaignID:     campaign.ID,
		LeadID:         lead.ID,
		Lead:           NewLeadSnapshot(lead),
		Channels:       campaign.Channels.Ordered(),
		Roles:          campaign.Roles,
		status:         LeadStatusPending,
	}
}

// SetValidation records the validate node's verdict. The error slice is
// copied so later mutation by the caller cannot reach the state.
func (s *ExecutionState) SetValidation(passed bool, errs []string) {
	s.validated = true
	s.validationPassed = passed
	s.validationErrors = append([]string(nil), errs...)
}

func (s *ExecutionState) Validated() bool {
	return s.validated
}

func (s *ExecutionState) ValidationPassed() bool {
	return s.validationPassed
}

func (s *ExecutionState) ValidationErrors() []string {
	return append([]string(nil), s.validationErrors...)
}

func (s *ExecutionState) SetMessage(message string) {
	s.message = message
}

func (s *ExecutionState) Message() string {
	return s.message
}

// SetDeterministicInput hands the creative draft to the deterministic role.
func (s *ExecutionState) SetDeterministicInput(draft string) {
	s.deterministicInput = draft
	s.handoffDone = true
}

func (s *ExecutionState) DeterministicInput() string {
	return s.deterministicInput
}

func (s *ExecutionState) HandoffDone() bool {
	return s.handoffDone
}

// OutboundMessage is the text handed to the delivery channel: the
// deterministic input when a hand-off happened, otherwise the generated
// message.
func (s *ExecutionState) OutboundMessage() string {
	if s.deterministicInput != "" {
		return s.deterministicInput
	}

	return s.message
}

// AddCost accumulates generation spend. Negative deltas are ignored so the
// total stays monotonic.
func (s *ExecutionState) AddCost(delta float64) {
	if delta <= 0 {
		return
	}

	s.cost += delta
}

func (s *ExecutionState) Cost() float64 {
	return s.cost
}

func (s *ExecutionState) MarkSent(providerResponse string) {
	s.sent = true
	s.deliveryResponse = providerResponse
}

func (s *ExecutionState) RecordDeliveryResponse(providerResponse string) {
	s.deliveryResponse = providerResponse
}

func (s *ExecutionState) Sent() bool {
	return s.sent
}

func (s *ExecutionState) DeliveryResponse() string {
	return s.deliveryResponse
}

func (s *ExecutionState) MarkVoiceCall(callID string) {
	s.voiceCallMade = true
	s.voiceCallID = callID
}

func (s *ExecutionState) VoiceCallMade() bool {
	return s.voiceCallMade
}

func (s *ExecutionState) VoiceCallID() string {
	return s.voiceCallID
}

// RecordFailure appends a classified failure without deciding the terminal
// status; finalize owns that decision.
func (s *ExecutionState) RecordFailure(kind FailureKind, message string) {
	s.failures = append(s.failures, FailureRecord{Kind: kind, Message: message})
}

func (s *ExecutionState) Failures() []FailureRecord {
	return append([]FailureRecord(nil), s.failures...)
}

// FailureKind reports the first recorded failure's kind, which drives the
// campaign's failure-bucket counters.
func (s *ExecutionState) FailureKind() FailureKind {
	if len(s.failures) == 0 {
		return FailureNone
	}

	return s.failures[0].Kind
}

func (s *ExecutionState) AppendTranscript(entry TranscriptEntry) {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	s.transcript = append(s.transcript, entry)
}

func (s *ExecutionState) Transcript() []TranscriptEntry {
	return append([]TranscriptEntry(nil), s.transcript...)
}

func (s *ExecutionState) AppendLog(level LogLevel, node, message string, metadata map[string]any) {
	s.logs = append(s.logs, RunLogEntry{
		Level:    level,
		Node:     node,
		Message:  message,
		Metadata: metadata,
		At:       time.Now().UTC(),
	})
}

func (s *ExecutionState) Logs() []RunLogEntry {
	return append([]RunLogEntry(nil), s.logs...)
}

func (s *ExecutionState) Status() LeadStatus {
	return s.status
}

func (s *ExecutionState) ErrorMessage() string {
	return s.errorMessage
}

func (s *ExecutionState) Finalized() bool {
	return s.status == LeadStatusCompleted || s.status == LeadStatusFailed
}

func (s *ExecutionState) MarkProcessing() error {
	if s.status != LeadStatusPending {
		return fmt.Errorf("cannot move lead %s from %s to processing", s.LeadID, s.status)
	}

	s.status = LeadStatusProcessing

	return nil
}

func (s *ExecutionState) MarkCompleted() error {
	if s.status != LeadStatusProcessing {
		return fmt.Errorf("cannot complete lead %s from status %s", s.LeadID, s.status)
	}

	s.status = LeadStatusCompleted

	return nil
}

func (s *ExecutionState) MarkFailed(message string) error {
	if s.Finalized() {
		return fmt.Errorf("cannot fail lead %s from terminal status %s", s.LeadID, s.status)
	}

	s.status = LeadStatusFailed
	s.errorMessage = message

	return nil
}
