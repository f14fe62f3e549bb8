// Package models defines the plaintext records the CLI keeps in the vault.
// They are encrypted as a whole before they leave the process.
package models

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrEmptyName       = errors.New("name is required")
)

// Service is an online account the user tracks while moving to a new
// mailbox. Domain is the lookup key when present.
type Service struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	Note      string `json:"note,omitempty"`
	Migrated  bool   `json:"migrated"`
	Ignored   bool   `json:"ignored"`
	Important bool   `json:"important"`
}

// Services is the vault payload.
type Services []Service

func NewService(name, domain string) (Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Service{}, ErrEmptyName
	}
	return Service{
		ID:     uuid.NewString(),
		Name:   name,
		Domain: strings.ToLower(strings.TrimSpace(domain)),
	}, nil
}

// Add inserts s, or replaces the existing record with the same domain while
// keeping its flags.
func (l Services) Add(s Service) Services {
	if s.Domain != "" {
		for i := range l {
			if l[i].Domain == s.Domain {
				s.ID = l[i].ID
				s.Migrated = l[i].Migrated
				s.Ignored = l[i].Ignored
				s.Important = l[i].Important
				l[i] = s
				return l
			}
		}
	}
	return append(l, s)
}

// Find looks a service up by ID, ID prefix, or domain.
func (l Services) Find(ref string) (int, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return -1, ErrServiceNotFound
	}
	match := -1
	for i, s := range l {
		if s.ID == ref || s.Domain == ref {
			return i, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			if match >= 0 {
				return -1, ErrServiceNotFound
			}
			match = i
		}
	}
	if match < 0 {
		return -1, ErrServiceNotFound
	}
	return match, nil
}

func (l Services) Remove(ref string) (Services, error) {
	i, err := l.Find(ref)
	if err != nil {
		return l, err
	}
	return append(l[:i], l[i+1:]...), nil
}

// Sorted returns a copy ordered important first, then by name.
func (l Services) Sorted() Services {
	out := make(Services, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Important != out[j].Important {
			return out[i].Important
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Pending counts services that are neither migrated nor ignored.
func (l Services) Pending() int {
	n := 0
	for _, s := range l {
		if !s.Migrated && !s.Ignored {
			n++
		}
	}
	return n
}
