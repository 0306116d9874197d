package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
)

// ErrInvalidDisplayState is returned for display documents that do not parse.
var ErrInvalidDisplayState = errors.New("invalid display state")

// DisplayPublisher announces display toggle changes.
// This avoids a direct dependency on the concrete ZeroMQ publisher.
type DisplayPublisher interface {
	PublishDisplayChanged(flags scene.DisplayFlags) error
}

// DisplayService owns the display toggles read by the session on every tick.
type DisplayService interface {
	LoadState() error
	DisplayFlags() scene.DisplayFlags
	GetCurrentStateYAML() ([]byte, error)
	UpdateFlags(flags scene.DisplayFlags) error
	UpdateFlagsYAML(data []byte) error
	SetPublisher(p DisplayPublisher)
}

// displayService implements the DisplayService interface.
type displayService struct {
	statePath string
	logger    customlog.Logger
	publisher DisplayPublisher
	flags     scene.DisplayFlags
	mu        sync.RWMutex
}

// NewDisplayService creates a DisplayService starting from initial. When
// statePath is set, a previously persisted state replaces initial and every
// update is written back.
func NewDisplayService(initial scene.DisplayFlags, statePath string, logger customlog.Logger) (DisplayService, error) {
	if logger == nil {
		return nil, fmt.Errorf("display service needs a logger")
	}

	service := &displayService{
		statePath: statePath,
		logger:    logger,
		flags:     initial,
	}

	if statePath == "" {
		logger.Infof("Display state is not persisted")
		return service, nil
	}
	if err := service.LoadState(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Infof("No display state at '%s' yet, using configured toggles", statePath)
	}
	return service, nil
}

// LoadState reads the persisted toggles from disk.
func (s *displayService) LoadState() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statePath == "" {
		return nil
	}
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return fmt.Errorf("error reading display state file '%s': %w", s.statePath, err)
	}

	flags := s.flags
	if err := yaml.Unmarshal(data, &flags); err != nil {
		s.logger.Errorf("Error parsing display state file '%s': %v", s.statePath, err)
		return fmt.Errorf("error parsing display state file '%s': %w", s.statePath, err)
	}
	s.flags = flags
	s.logger.Infof("Loaded display state %+v", flags)
	return nil
}

// DisplayFlags returns the current toggles.
func (s *displayService) DisplayFlags() scene.DisplayFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// GetCurrentStateYAML renders the current toggles as YAML.
func (s *displayService) GetCurrentStateYAML() ([]byte, error) {
	return yaml.Marshal(s.DisplayFlags())
}

// UpdateFlags persists and applies new toggles, then notifies the publisher.
func (s *displayService) UpdateFlags(flags scene.DisplayFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if flags == s.flags {
		s.logger.Debugf("Display toggles unchanged")
		return nil
	}
	if err := s.persistUnlocked(flags); err != nil {
		return err
	}
	s.flags = flags
	s.logger.Infof("Display toggles updated: %+v", flags)

	if s.publisher != nil {
		go func(publisher DisplayPublisher) {
			if err := publisher.PublishDisplayChanged(flags); err != nil {
				s.logger.Warnf("Failed to publish display change: %v", err)
			}
		}(s.publisher)
	}
	return nil
}

// UpdateFlagsYAML applies a YAML document. Fields it omits keep their value.
func (s *displayService) UpdateFlagsYAML(data []byte) error {
	flags := s.DisplayFlags()
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDisplayState, err)
	}
	return s.UpdateFlags(flags)
}

func (s *displayService) persistUnlocked(flags scene.DisplayFlags) error {
	if s.statePath == "" {
		return nil
	}
	data, err := yaml.Marshal(flags)
	if err != nil {
		return fmt.Errorf("error encoding display state: %w", err)
	}
	if err := os.WriteFile(s.statePath, data, 0644); err != nil {
		s.logger.Errorf("Error writing display state file '%s': %v", s.statePath, err)
		return fmt.Errorf("error writing display state file '%s': %w", s.statePath, err)
	}
	return nil
}

// SetPublisher injects the change publisher after initialization.
func (s *displayService) SetPublisher(p DisplayPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}
