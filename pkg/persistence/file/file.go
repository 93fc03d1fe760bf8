// Package file provides file-based persistence for campaigns and their run
// records. Each entity is one JSON document under the root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/getleadpipe/leadpipe/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system. Suitable for development and single-process deployments.
type Persistence struct {
	root              string
	campaignRepo      *CampaignRepository
	leadRepo          *LeadRepository
	campaignLeadRepo  *CampaignLeadRepository
	conversationRepo  *ConversationRepository
	processingLogRepo *ProcessingLogRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A file:// prefix is stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:              cleanRoot,
		campaignRepo:      NewCampaignRepository(cleanRoot),
		leadRepo:          NewLeadRepository(cleanRoot),
		campaignLeadRepo:  NewCampaignLeadRepository(cleanRoot),
		conversationRepo:  NewConversationRepository(cleanRoot),
		processingLogRepo: NewProcessingLogRepository(cleanRoot),
	}
}

func (p *Persistence) Campaigns() persistence.CampaignRepository {
	return p.campaignRepo
}

func (p *Persistence) Leads() persistence.LeadRepository {
	return p.leadRepo
}

func (p *Persistence) CampaignLeads() persistence.CampaignLeadRepository {
	return p.campaignLeadRepo
}

func (p *Persistence) Conversations() persistence.ConversationRepository {
	return p.conversationRepo
}

func (p *Persistence) ProcessingLogs() persistence.ProcessingLogRepository {
	return p.processingLogRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// readJSON loads one JSON document into v. It reports false without an error
// when the file does not exist.
func readJSON(filePath string, v any) (bool, error) {
	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", filePath, err)
	}

	return true, nil
}

// writeJSON stores v as an indented JSON document, creating the directory on
// first use.
func writeJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	return os.WriteFile(path.Join(dir, name), data, 0600)
}

// removeJSON deletes one document, ignoring files that are already gone.
func removeJSON(filePath string) error {
	err := os.Remove(filePath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}

	return nil
}
