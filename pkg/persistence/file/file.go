// Package file provides file-based persistence for local development and
// tests. One JSON document per entity; conditional transitions are serialized
// behind a process-wide mutex, which is enough for a single-process setup.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file system.
type Persistence struct {
	root string
	mu   sync.Mutex

	reservationRepo *ReservationRepository
	templateRepo    *TemplateRepository
	instanceRepo    *InstanceRepository
	delegationRepo  *DelegationRepository
	analyticsRepo   *AnalyticsRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// file:// URL or plain path.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.reservationRepo = &ReservationRepository{store: p}
	p.templateRepo = &TemplateRepository{store: p}
	p.instanceRepo = &InstanceRepository{store: p}
	p.delegationRepo = &DelegationRepository{store: p}
	p.analyticsRepo = &AnalyticsRepository{store: p}

	return p
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) ReservationRepository() persistence.ReservationRepository {
	return p.reservationRepo
}

func (p *Persistence) TemplateRepository() persistence.TemplateRepository {
	return p.templateRepo
}

func (p *Persistence) InstanceRepository() persistence.InstanceRepository {
	return p.instanceRepo
}

func (p *Persistence) DelegationRepository() persistence.DelegationRepository {
	return p.delegationRepo
}

func (p *Persistence) AnalyticsRepository() persistence.AnalyticsRepository {
	return p.analyticsRepo
}

func (p *Persistence) write(kind, id string, entity any) error {
	dir := filepath.Join(p.root, kind)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	return nil
}

func (p *Persistence) read(kind, id string, entity any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(p.root, kind, id+".json"))
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}

	if err := json.Unmarshal(data, entity); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return true, nil
}

func (p *Persistence) ids(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, kind))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list %s directory: %w", kind, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}
