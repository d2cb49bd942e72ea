// Package profile stores the local player's identity and last-used server
// on disk so they survive restarts.
package profile

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/quasilyte/gdata"
)

// SavedProfile represents the player profile data stored on disk
type SavedProfile struct {
	Name           string `json:"name"`
	CharacterModel string `json:"characterModel"`
	ClientID       string `json:"clientId"`
	LastServer     string `json:"lastServer"`
	LastRoom       string `json:"lastRoom"`
}

type Store struct {
	m *gdata.Manager
}

// Open initializes the on-disk store. A failure is non-fatal: callers get a
// store whose loads return defaults and whose saves are no-ops.
func Open(appName string) *Store {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		log.Printf("Warning: Could not initialize profile storage: %v", err)
		return &Store{}
	}
	return &Store{m: m}
}

// Load returns the saved profile, filling defaults for anything missing.
// ClientID is minted on first load and kept stable afterwards so the server
// can recognize returning players across sessions.
func (s *Store) Load() *SavedProfile {
	p := &SavedProfile{
		Name:           "player",
		CharacterModel: "default",
	}
	if s.m != nil {
		data, err := s.m.LoadItem("profile")
		if err != nil {
			log.Printf("Warning: Could not load profile: %v", err)
		} else if len(data) > 0 {
			if err := json.Unmarshal(data, p); err != nil {
				log.Printf("Warning: Could not parse saved profile: %v", err)
			}
		}
	}
	if p.ClientID == "" {
		p.ClientID = uuid.NewString()
		_ = s.Save(p)
	}
	return p
}

// Save writes the profile to disk
func (s *Store) Save(p *SavedProfile) error {
	if s.m == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("Warning: Could not serialize profile: %v", err)
		return err
	}
	if err := s.m.SaveItem("profile", data); err != nil {
		log.Printf("Warning: Could not save profile: %v", err)
		return err
	}
	return nil
}
